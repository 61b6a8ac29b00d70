package services

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"videoindex/search"
)

// DefaultPageSize 每页结果数
const DefaultPageSize = 25

const suggestionLimit = 20

// SearchPage 一页搜索结果
type SearchPage struct {
	Query    string
	Number   int
	NumPages int
	PerPage  int
	Total    uint64
	Hits     []search.Hit
	FellBack bool // 请求的页码越界，已回退到第一页
}

func (p *SearchPage) HasNext() bool { return p.Number < p.NumPages }
func (p *SearchPage) HasPrevious() bool { return p.Number > 1 }
func (p *SearchPage) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }
func (p *SearchPage) NextPageNumber() int { return p.Number + 1 }
func (p *SearchPage) PreviousPageNumber() int { return p.Number - 1 }

// StartIndex 本页第一条的序号（从1开始），没有结果时为0
func (p *SearchPage) StartIndex() uint64 {
	if p.Total == 0 {
		return 0
	}
	return uint64(p.Number-1)*uint64(p.PerPage) + 1
}

// EndIndex 本页最后一条的序号
func (p *SearchPage) EndIndex() uint64 {
	if p.Number == p.NumPages {
		return p.Total
	}
	return uint64(p.Number) * uint64(p.PerPage)
}

// SearchService 搜索分页与联想
type SearchService struct {
	index    search.Index
	pageSize int
}

// NewSearchService 创建搜索服务，pageSize 非正数时使用默认值
func NewSearchService(index search.Index, pageSize int) *SearchService {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &SearchService{index: index, pageSize: pageSize}
}

// ParsePage 解析页码，无法解析或小于1时返回1
func ParsePage(raw string) int {
	p, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// Search 执行搜索。query 为空时返回 nil, nil，不访问索引。
// 页码越界时返回第一页；索引故障原样返回错误。
func (s *SearchService) Search(ctx context.Context, query, rawPage string) (*SearchPage, error) {
	if query == "" {
		return nil, nil
	}

	q := search.Query{
		Content:       query,
		SpeakerPrefix: strings.ToLower(query),
	}

	number := ParsePage(rawPage)
	fellBack := false

	var res *search.Result
	if number-1 <= math.MaxInt32/s.pageSize {
		var err error
		res, err = s.index.Search(ctx, q, (number-1)*s.pageSize, s.pageSize)
		if err != nil {
			return nil, err
		}
		if number > numPages(res.Total, s.pageSize) {
			fellBack = true
		}
	} else {
		fellBack = true
	}

	if fellBack {
		number = 1
		var err error
		res, err = s.index.Search(ctx, q, 0, s.pageSize)
		if err != nil {
			return nil, err
		}
	}

	return &SearchPage{
		Query:    query,
		Number:   number,
		NumPages: numPages(res.Total, s.pageSize),
		PerPage:  s.pageSize,
		Total:    res.Total,
		Hits:     res.Hits,
		FellBack: fellBack,
	}, nil
}

// Suggest 标题联想，去重并保持索引返回的顺序
func (s *SearchService) Suggest(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}
	titles, err := s.index.Autocomplete(ctx, query, suggestionLimit)
	if err != nil {
		return nil, err
	}
	return lo.Uniq(titles), nil
}

// numPages 总页数，没有结果时也算一页
func numPages(total uint64, perPage int) int {
	if total == 0 {
		return 1
	}
	return int((total + uint64(perPage) - 1) / uint64(perPage))
}
