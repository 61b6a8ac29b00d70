package handles

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videoindex/config"
	"videoindex/log"
	"videoindex/metrics"
	"videoindex/services"
	"videoindex/utils"
)

// Searcher 搜索和联想
type Searcher interface {
	Search(ctx context.Context, query, rawPage string) (*services.SearchPage, error)
	Suggest(ctx context.Context, query string) ([]string, error)
}

// SearchHandler 搜索页、OpenSearch 描述和联想接口
type SearchHandler struct {
	pages
	searcher Searcher
}

// NewSearchHandler 创建搜索处理器
func NewSearchHandler(searcher Searcher, site config.SiteConfig) *SearchHandler {
	return &SearchHandler{pages: pages{site: site}, searcher: searcher}
}

// Search 搜索结果页。q 为空时不查询索引，页面显示搜索框
// GET /search/?q=xxx&p=1
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")

	page, err := h.searcher.Search(c.Request.Context(), query, c.DefaultQuery("p", "1"))
	if err != nil {
		metrics.RecordSearch("error")
		h.serverError(c, "search", err)
		return
	}

	switch {
	case page == nil:
		metrics.RecordSearch("no_query")
	case page.FellBack:
		metrics.RecordSearch("ok")
		metrics.RecordSearchFallback()
	default:
		metrics.RecordSearch("ok")
	}

	h.render(c, http.StatusOK, "search.html", "Search", gin.H{
		"Query": query,
		"Page":  page,
	})
}

// Suggestions OpenSearch 联想：["q", ["title", ...]]
// 关闭联想时任何请求都返回 404
// GET /search/suggestions/?q=xxx
func (h *SearchHandler) Suggestions(c *gin.Context) {
	if !h.site.SuggestionsEnabled {
		metrics.RecordSuggestion("disabled")
		utils.NotFound(c)
		return
	}

	query := c.Query("q")
	titles, err := h.searcher.Suggest(c.Request.Context(), query)
	if err != nil {
		metrics.RecordSuggestion("error")
		logger := log.FromContext(c.Request.Context(), "search")
		logger.Error().Err(err).Str("query", query).Msg("suggestions failed")
		utils.JSONError(c, http.StatusBadGateway, "search index unavailable")
		return
	}

	metrics.RecordSuggestion("ok")
	c.JSON(http.StatusOK, []interface{}{query, titles})
}

// openSearchDescription OpenSearch 1.1 描述文档
type openSearchDescription struct {
	XMLName     xml.Name        `xml:"OpenSearchDescription"`
	Xmlns       string          `xml:"xmlns,attr"`
	ShortName   string          `xml:"ShortName"`
	Description string          `xml:"Description"`
	Encoding    string          `xml:"InputEncoding"`
	URLs        []openSearchURL `xml:"Url"`
}

type openSearchURL struct {
	Type     string `xml:"type,attr"`
	Method   string `xml:"method,attr"`
	Template string `xml:"template,attr"`
}

// OpenSearch 描述文档，站点名和地址来自配置
// GET /search/xml/
func (h *SearchHandler) OpenSearch(c *gin.Context) {
	origin := strings.TrimRight(h.site.Origin, "/")
	doc := openSearchDescription{
		Xmlns:       "http://a9.com/-/spec/opensearch/1.1/",
		ShortName:   h.site.Name,
		Description: "Search " + h.site.Name,
		Encoding:    "UTF-8",
		URLs: []openSearchURL{
			{Type: "text/html", Method: "get", Template: origin + "/search/?q={searchTerms}"},
		},
	}
	if h.site.SuggestionsEnabled {
		doc.URLs = append(doc.URLs, openSearchURL{
			Type: "application/x-suggestions+json", Method: "get", Template: origin + "/search/suggestions/?q={searchTerms}",
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		h.serverError(c, "search", err)
		return
	}
	c.Data(http.StatusOK, "application/opensearchdescription+xml; charset=utf-8", append([]byte(xml.Header), out...))
}
