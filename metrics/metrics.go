// Package metrics Prometheus 指标
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoindex_search_requests_total",
		Help: "Search page requests by outcome",
	}, []string{"outcome"}) // outcome=no_query|ok|error

	searchPageFallback = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videoindex_search_page_fallback_total",
		Help: "Search requests whose page number was out of range and fell back to page 1",
	})

	suggestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoindex_suggestions_total",
		Help: "OpenSearch suggestion requests by outcome",
	}, []string{"outcome"}) // outcome=disabled|ok|error|limited

	sourceLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoindex_source_lookup_total",
		Help: "Lookups of videos by source URL by outcome",
	}, []string{"outcome"}) // outcome=found|not_found

	indexDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "videoindex_index_documents",
		Help: "Documents written to the search index by the last rebuild",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoindex_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "status"})
)

// RecordSearch 记录一次搜索
func RecordSearch(outcome string) {
	searchRequests.WithLabelValues(outcome).Inc()
}

// RecordSearchFallback 页码越界回退到第一页
func RecordSearchFallback() {
	searchPageFallback.Inc()
}

// RecordSuggestion 记录一次联想请求
func RecordSuggestion(outcome string) {
	suggestions.WithLabelValues(outcome).Inc()
}

// RecordSourceLookup 记录一次来源地址查询
func RecordSourceLookup(found bool) {
	outcome := "not_found"
	if found {
		outcome = "found"
	}
	sourceLookups.WithLabelValues(outcome).Inc()
}

// SetIndexDocuments 最近一次重建写入的文档数
func SetIndexDocuments(n int) {
	indexDocuments.Set(float64(n))
}

// RecordHTTPRequest 记录 HTTP 请求
func RecordHTTPRequest(method string, status int) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

var rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "videoindex_ratelimit_exceeded_total",
	Help: "Requests rejected by the per-client rate limiter",
}, []string{"route"})

// RecordRateLimited 记录一次限流拒绝
func RecordRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}
