package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/rs/zerolog"
)

const autocompleteAnalyzer = "autocomplete"

var storedFields = []string{"title", "url", "category", "speaker_names"}

// bleveDoc 写入 bleve 的文档结构
type bleveDoc struct {
	Content      string   `json:"content"`
	Speakers     []string `json:"speakers"`
	TitleAuto    string   `json:"title_auto"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Category     string   `json:"category"`
	SpeakerNames []string `json:"speaker_names"`
}

// BleveIndex 基于 bleve 的索引实现
type BleveIndex struct {
	idx    bleve.Index
	logger zerolog.Logger
}

// OpenBleve 打开索引。path 为空时使用内存索引，目录不存在时新建。
func OpenBleve(path string, logger zerolog.Logger) (*BleveIndex, error) {
	m, err := newMapping()
	if err != nil {
		return nil, err
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("打开索引失败: %w", err)
	}

	logger.Info().Str("path", path).Msg("search index opened")
	return &BleveIndex{idx: idx, logger: logger}, nil
}

func newMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(autocompleteAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetok.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("注册分析器失败: %w", err)
	}

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false

	speakers := bleve.NewTextFieldMapping()
	speakers.Analyzer = keyword.Name
	speakers.Store = false

	titleAuto := bleve.NewTextFieldMapping()
	titleAuto.Analyzer = autocompleteAnalyzer
	titleAuto.Store = false

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	doc.AddFieldMappingsAt("content", content)
	doc.AddFieldMappingsAt("speakers", speakers)
	doc.AddFieldMappingsAt("title_auto", titleAuto)
	for _, name := range storedFields {
		doc.AddFieldMappingsAt(name, stored)
	}

	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im, nil
}

// Search 全文 OR 演讲者前缀
func (b *BleveIndex) Search(ctx context.Context, q Query, offset, limit int) (*Result, error) {
	content := bleve.NewMatchQuery(q.Content)
	content.SetField("content")
	disj := bleve.NewDisjunctionQuery(content)
	if q.SpeakerPrefix != "" {
		prefix := bleve.NewPrefixQuery(q.SpeakerPrefix)
		prefix.SetField("speakers")
		disj.AddQuery(prefix)
	}

	req := bleve.NewSearchRequestOptions(disj, limit, offset, false)
	req.Fields = storedFields

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := &Result{Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{
			ID:       h.ID,
			Title:    fieldString(h.Fields["title"]),
			URL:      fieldString(h.Fields["url"]),
			Category: fieldString(h.Fields["category"]),
			Speakers: fieldStrings(h.Fields["speaker_names"]),
			Score:    h.Score,
		})
	}
	return out, nil
}

// Autocomplete 标题联想：前面的词精确匹配，最后一个词按前缀匹配
func (b *BleveIndex) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	terms, err := b.analyze(prefix)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return []string{}, nil
	}

	parts := make([]query.Query, 0, len(terms))
	for _, term := range terms[:len(terms)-1] {
		tq := bleve.NewTermQuery(term)
		tq.SetField("title_auto")
		parts = append(parts, tq)
	}
	last := bleve.NewPrefixQuery(terms[len(terms)-1])
	last.SetField("title_auto")
	parts = append(parts, last)

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(parts...), limit, 0, false)
	req.Fields = []string{"title"}

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	titles := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		if t := fieldString(h.Fields["title"]); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

// Reindex 用 docs 替换索引全部内容
func (b *BleveIndex) Reindex(ctx context.Context, docs []Document) error {
	keep := make(map[string]struct{}, len(docs))
	batch := b.idx.NewBatch()
	for _, d := range docs {
		keep[d.ID] = struct{}{}
		if err := batch.Index(d.ID, toBleveDoc(d)); err != nil {
			return fmt.Errorf("索引文档 %s 失败: %w", d.ID, err)
		}
	}

	stale, err := b.staleIDs(ctx, keep)
	if err != nil {
		return err
	}
	for _, id := range stale {
		batch.Delete(id)
	}

	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	b.logger.Info().Int("indexed", len(docs)).Int("deleted", len(stale)).Msg("search index rebuilt")
	return nil
}

func (b *BleveIndex) staleIDs(ctx context.Context, keep map[string]struct{}) ([]string, error) {
	total, err := b.Count()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(total), 0, false)
	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var stale []string
	for _, h := range res.Hits {
		if _, ok := keep[h.ID]; !ok {
			stale = append(stale, h.ID)
		}
	}
	return stale, nil
}

// Count 文档数量
func (b *BleveIndex) Count() (uint64, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// Close 关闭索引
func (b *BleveIndex) Close() error {
	return b.idx.Close()
}

func toBleveDoc(d Document) bleveDoc {
	content := []string{d.Title, d.Summary, d.Description, d.Category}
	content = append(content, d.Speakers...)
	content = append(content, d.Tags...)

	lowered := make([]string, 0, len(d.Speakers))
	for _, s := range d.Speakers {
		lowered = append(lowered, strings.ToLower(s))
	}

	return bleveDoc{
		Content:      strings.Join(content, "\n"),
		Speakers:     lowered,
		TitleAuto:    d.Title,
		Title:        d.Title,
		URL:          d.URL,
		Category:     d.Category,
		SpeakerNames: d.Speakers,
	}
}

// analyze 用 title_auto 字段的分析器切词，保证查询词与索引词一致
func (b *BleveIndex) analyze(s string) ([]string, error) {
	analyzer := b.idx.Mapping().AnalyzerNamed(autocompleteAnalyzer)
	if analyzer == nil {
		return nil, fmt.Errorf("%w: 分析器 %s 不存在", ErrUnavailable, autocompleteAnalyzer)
	}
	tokens := analyzer.Analyze([]byte(s))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, string(tok.Term))
	}
	return terms, nil
}

func fieldString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func fieldStrings(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
