package models

import "fmt"

// Category 分类（通常是一场会议，标题可能带年份）
type Category struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"size:255;not null;index" json:"title"`
	Slug        string  `gorm:"size:255" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	URL         string  `gorm:"size:255" json:"url"`
	Videos      []Video `gorm:"foreignKey:CategoryID" json:"videos,omitempty"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// AbsoluteURL 站内路径
func (c *Category) AbsoluteURL() string {
	return fmt.Sprintf("/category/%d/%s/", c.ID, slugOrDefault(c.Slug))
}
