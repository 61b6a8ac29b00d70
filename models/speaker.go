package models

import "fmt"

// Speaker 演讲者
type Speaker struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	Name   string  `gorm:"size:255;not null;index" json:"name"`
	Slug   string  `gorm:"size:255" json:"slug"`
	Videos []Video `gorm:"many2many:video_speakers" json:"videos,omitempty"`
}

// TableName 指定表名
func (Speaker) TableName() string {
	return "speakers"
}

// AbsoluteURL 站内路径
func (s *Speaker) AbsoluteURL() string {
	return fmt.Sprintf("/speaker/%d/%s/", s.ID, slugOrDefault(s.Slug))
}

// Tag 标签
type Tag struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	Tag string `gorm:"size:30;uniqueIndex;not null" json:"tag"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}
