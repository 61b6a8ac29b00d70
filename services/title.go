package services

import (
	"strconv"
	"strings"

	"videoindex/models"
)

// SplitYear 拆分标题末尾的年份。
//
//	SplitYear("PyCon 2013") -> ("PyCon", 2013)
//	SplitYear("Foo")        -> ("Foo", nil)
//
// 末尾 4 个字符无法解析为整数时返回整个标题，不会报错。
func SplitYear(title string) (string, *int) {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) < 4 {
		return title, nil
	}
	cut := len(runes) - 4
	year, err := strconv.Atoi(strings.TrimSpace(string(runes[cut:])))
	if err != nil {
		return title, nil
	}
	return strings.TrimSpace(string(runes[:cut])), &year
}

// CategoryEntry 分组中的一个分类
type CategoryEntry struct {
	Category models.Category
	Year     *int
}

// CategoryGroup 同一基础标题下的分类
type CategoryGroup struct {
	Title   string
	Entries []CategoryEntry
}

// GroupCategories 按基础标题分组，分组顺序和组内顺序都沿用输入顺序
func GroupCategories(categories []models.Category) []CategoryGroup {
	groups := make([]CategoryGroup, 0)
	index := make(map[string]int)

	for _, cat := range categories {
		base, year := SplitYear(cat.Title)
		i, ok := index[base]
		if !ok {
			i = len(groups)
			index[base] = i
			groups = append(groups, CategoryGroup{Title: base})
		}
		groups[i].Entries = append(groups[i].Entries, CategoryEntry{Category: cat, Year: year})
	}
	return groups
}
