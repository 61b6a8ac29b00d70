// Package search 全文检索索引
package search

import (
	"context"
	"errors"
)

// ErrUnavailable 索引不可用（已关闭或底层出错）
var ErrUnavailable = errors.New("search index unavailable")

// Query 两个条件为 OR 关系
type Query struct {
	Content       string // 全文匹配
	SpeakerPrefix string // 演讲者姓名前缀（小写）
}

// Hit 一条命中结果
type Hit struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Category string   `json:"category"`
	Speakers []string `json:"speakers"`
	Score    float64  `json:"score"`
}

// Result 一页结果和总数
type Result struct {
	Total uint64
	Hits  []Hit
}

// Document 索引文档
type Document struct {
	ID          string
	Title       string
	Summary     string
	Description string
	URL         string
	Category    string
	Speakers    []string
	Tags        []string
}

// Index 检索索引需要提供的能力
type Index interface {
	Search(ctx context.Context, q Query, offset, limit int) (*Result, error)
	Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error)
	Reindex(ctx context.Context, docs []Document) error
	Count() (uint64, error)
	Close() error
}
