package handles_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"videoindex/cache"
	"videoindex/config"
	"videoindex/handles"
	"videoindex/middleware"
	"videoindex/models"
	"videoindex/routes"
	"videoindex/search"
	"videoindex/services"
	"videoindex/templates"
	"videoindex/utils"
)

const (
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

const catalogJSON = `{
  "categories": [{"title": "PyCon 2013"}, {"title": "PyCon 2012"}, {"title": "DjangoCon"}],
  "videos": [
    {"title": "Testing with pytest", "category": "PyCon 2013", "source_url": "http://vimeo.com/1",
     "speakers": ["Alice Smith"], "tags": ["testing", "pytest"],
     "summary": "<p>All about <b>pytest</b></p>",
     "video_ogv_url": "http://cdn/1.ogv", "video_mp4_url": "http://cdn/1.mp4", "video_flv_url": "http://cdn/1.flv"},
    {"title": "Async IO", "category": "PyCon 2013", "source_url": "http://www.youtube.com/watch?v=2",
     "speakers": ["Alice Smith", "bob jones"], "embed": "<iframe src=\"http://www.youtube.com/embed/2\"></iframe>"},
    {"title": "Draft talk", "category": "PyCon 2013", "state": 2, "speakers": ["Alice Smith"]},
    {"title": "ORM deep dive", "category": "DjangoCon", "speakers": ["Carol White"]}
  ]
}`

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	t       *testing.T
	db      *gorm.DB
	catalog *services.CatalogService
	index   *search.BleveIndex
	router  *gin.Engine
}

type option func(*routes.Handlers, *fixture)

func withSite(site config.SiteConfig) option {
	return func(h *routes.Handlers, f *fixture) {
		h.Site = site
		h.Category = handles.NewCategoryHandler(f.catalog, site)
		h.Speaker = handles.NewSpeakerHandler(f.catalog, site)
		h.Video = handles.NewVideoHandler(f.catalog, site, services.DefaultFormatPolicy)
		h.Search = handles.NewSearchHandler(services.NewSearchService(f.index, 25), site)
		h.API = handles.NewAPIHandler(f.catalog, site.Origin)
	}
}

func withSearchIndex(idx search.Index) option {
	return func(h *routes.Handlers, f *fixture) {
		h.Search = handles.NewSearchHandler(services.NewSearchService(idx, 25), h.Site)
		h.Health = handles.NewHealthHandler(f.catalog, idx)
	}
}

func withSuggestLimiter(l *middleware.RateLimiter) option {
	return func(h *routes.Handlers, f *fixture) {
		h.SuggestLimiter = l
	}
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "handles.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	_, err = utils.ImportCatalog(ctx, db, strings.NewReader(catalogJSON), zerolog.Nop())
	require.NoError(t, err)

	idx, err := search.OpenBleve("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	f := &fixture{t: t, db: db, index: idx}
	f.catalog = services.NewCatalogService(db, cache.NewMemoryCache(), time.Minute)
	indexer := services.NewIndexer(f.catalog, idx, zerolog.Nop())
	_, err = indexer.Rebuild(ctx)
	require.NoError(t, err)

	site := config.Default().Site
	site.EditKey = "edit-me"
	h := routes.Handlers{
		Health:     handles.NewHealthHandler(f.catalog, idx),
		Admin:      handles.NewAdminHandler(indexer, f.catalog),
		AdminToken: "admin",
	}
	withSite(site)(&h, f)
	for _, opt := range opts {
		opt(&h, f)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.SetHTMLTemplate(templates.Load())
	routes.SetupRoutes(r, h)
	f.router = r
	return f
}

func (f *fixture) do(method, target string, body url.Values, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(target string, header ...string) *httptest.ResponseRecorder {
	return f.do(http.MethodGet, target, nil, header...)
}

func (f *fixture) video(title string) models.Video {
	f.t.Helper()
	var v models.Video
	require.NoError(f.t, f.db.Where("title = ?", title).First(&v).Error)
	return v
}

func (f *fixture) category(title string) models.Category {
	f.t.Helper()
	var c models.Category
	require.NoError(f.t, f.db.Where("title = ?", title).First(&c).Error)
	return c
}

func TestRootRedirects(t *testing.T) {
	f := newFixture(t)
	w := f.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/category/", w.Header().Get("Location"))
}

func TestCategoryList(t *testing.T) {
	f := newFixture(t)
	w := f.get("/category/")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<h2>PyCon</h2>")
	assert.Contains(t, body, ">2012</a>")
	assert.Contains(t, body, ">2013</a>")
	assert.Contains(t, body, "<h2>DjangoCon</h2>")
	assert.Less(t, strings.Index(body, "DjangoCon"), strings.Index(body, "<h2>PyCon</h2>"))
}

func TestCategoryVideos(t *testing.T) {
	f := newFixture(t)
	cat := f.category("PyCon 2013")

	w := f.get(fmt.Sprintf("/category/%d/whatever/", cat.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Testing with pytest")
	assert.Contains(t, w.Body.String(), "Async IO")
	assert.NotContains(t, w.Body.String(), "Draft talk")

	w = f.get(fmt.Sprintf("/category/%d/%s/files/", cat.ID, cat.Slug))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="http://cdn/1.flv"`)

	assert.Equal(t, http.StatusNotFound, f.get("/category/999/x/").Code)
	assert.Equal(t, http.StatusNotFound, f.get("/category/abc/x/").Code)
}

func TestSpeakerList(t *testing.T) {
	f := newFixture(t)

	w := f.get("/speaker/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice Smith</a> (3)")
	assert.Contains(t, w.Body.String(), "<strong>a</strong>")

	w = f.get("/speaker/?character=b")
	assert.Contains(t, w.Body.String(), "bob jones")
	assert.NotContains(t, w.Body.String(), "Alice Smith")

	for _, bad := range []string{"zz", "q", "B"} {
		w = f.get("/speaker/?character=" + bad)
		assert.Contains(t, w.Body.String(), "<strong>a</strong>", bad)
		assert.Contains(t, w.Body.String(), "Alice Smith", bad)
	}
}

func TestSpeakerVideos(t *testing.T) {
	f := newFixture(t)
	var alice models.Speaker
	require.NoError(t, f.db.Where("name = ?", "Alice Smith").First(&alice).Error)

	w := f.get(fmt.Sprintf("/speaker/%d/alice/", alice.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Testing with pytest")
	assert.NotContains(t, w.Body.String(), "Draft talk")

	assert.Equal(t, http.StatusNotFound, f.get("/speaker/4242/x/").Code)
}

func TestVideoFormatsByBrowser(t *testing.T) {
	f := newFixture(t)
	v := f.video("Testing with pytest")

	w := f.get(v.AbsoluteURL(), "User-Agent", firefoxUA)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-embed-type="native-html5"`)
	assert.Contains(t, body, `<source src="http://cdn/1.ogv" type="video/ogg">`)
	assert.NotContains(t, body, `type="video/mp4"`)
	assert.NotContains(t, body, `type="video/x-flv"`)

	body = f.get(v.AbsoluteURL(), "User-Agent", chromeUA).Body.String()
	assert.Contains(t, body, `<source src="http://cdn/1.ogv" type="video/ogg">`)
	assert.Contains(t, body, `<source src="http://cdn/1.mp4" type="video/mp4">`)
	assert.NotContains(t, body, `type="video/x-flv"`)
}

func TestVideoMeta(t *testing.T) {
	f := newFixture(t)
	v := f.video("Testing with pytest")

	body := f.get(v.AbsoluteURL()).Body.String()
	assert.Contains(t, body, `<meta name="keywords" content="testing,pytest">`)
	assert.Contains(t, body, `<meta name="description" content="All about pytest">`)
}

func TestVideoEmbedStrategy(t *testing.T) {
	f := newFixture(t)
	v := f.video("Async IO")

	body := f.get(v.AbsoluteURL()).Body.String()
	assert.Contains(t, body, `data-embed-type="subtitle-enabled"`)
	assert.Contains(t, body, `<iframe src="http://www.youtube.com/embed/2"></iframe>`)
}

func TestVideoDraftStillViewable(t *testing.T) {
	f := newFixture(t)
	v := f.video("Draft talk")
	assert.Equal(t, http.StatusOK, f.get(v.AbsoluteURL()).Code)
	assert.Equal(t, http.StatusNotFound, f.get("/video/9999/none/").Code)
}

func TestVideoEdit(t *testing.T) {
	f := newFixture(t)
	v := f.video("Testing with pytest")
	base := v.AbsoluteURL()

	w := f.get(base + "?editkey=edit-me")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="Testing with pytest"`)

	w = f.get(base + "?editkey=wrong")
	assert.NotContains(t, w.Body.String(), "<form method=\"post\"")

	w = f.do(http.MethodPost, base, url.Values{"title": {"Hacked"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPost, base+"?editkey=edit-me", url.Values{"title": {""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, base+"?editkey=edit-me", url.Values{"title": {"Pytest in practice"}, "summary": {"Fixtures"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Saved.")

	updated := f.video("Pytest in practice")
	assert.Equal(t, v.ID, updated.ID)
	assert.Equal(t, "Fixtures", updated.Summary)
}

func TestVideoEditDisabledWithoutKey(t *testing.T) {
	site := config.Default().Site
	site.EditKey = ""
	f := newFixture(t, withSite(site))
	v := f.video("Testing with pytest")

	w := f.get(v.AbsoluteURL() + "?editkey=")
	assert.NotContains(t, w.Body.String(), "<form method=\"post\"")

	w = f.do(http.MethodPost, v.AbsoluteURL()+"?editkey=", url.Values{"title": {"x"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearchPage(t *testing.T) {
	f := newFixture(t)

	w := f.get("/search/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Enter a search term.")

	w = f.get("/search/?q=pytest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `1 results for "pytest"`)
	assert.Contains(t, w.Body.String(), "Testing with pytest")

	w = f.get("/search/?q=alice&p=7")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2 results")
	assert.Contains(t, w.Body.String(), "Async IO")

	w = f.get("/search/?q=alice&p=bogus")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2 results")
}

func TestSearchIndexFailure(t *testing.T) {
	broken, err := search.OpenBleve("", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, broken.Close())

	f := newFixture(t, withSearchIndex(broken))
	assert.Equal(t, http.StatusInternalServerError, f.get("/search/?q=pytest").Code)
	assert.Equal(t, http.StatusOK, f.get("/search/").Code, "empty query never touches the index")
	assert.Equal(t, http.StatusBadGateway, f.get("/search/suggestions/?q=py").Code)
	assert.Equal(t, http.StatusServiceUnavailable, f.get("/api/health").Code)
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t)

	w := f.get("/search/suggestions/?q=Tes")
	require.Equal(t, http.StatusOK, w.Code)
	var payload []interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload, 2)
	assert.Equal(t, "Tes", payload[0])
	assert.Equal(t, []interface{}{"Testing with pytest"}, payload[1])

	w = f.get("/search/suggestions/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["", []]`, w.Body.String())
}

func TestSuggestionsDisabled(t *testing.T) {
	site := config.Default().Site
	site.SuggestionsEnabled = false
	f := newFixture(t, withSite(site))

	for _, target := range []string{"/search/suggestions/", "/search/suggestions/?q=", "/search/suggestions/?q=Tes"} {
		assert.Equal(t, http.StatusNotFound, f.get(target).Code, target)
	}

	body := f.get("/search/xml/").Body.String()
	assert.NotContains(t, body, "x-suggestions+json")
}

func TestSuggestionsDisabledIgnoresRateLimit(t *testing.T) {
	site := config.Default().Site
	site.SuggestionsEnabled = false
	f := newFixture(t, withSite(site), withSuggestLimiter(middleware.NewRateLimiter("suggestions", 0.001, 1)))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNotFound, f.get("/search/suggestions/?q=Tes").Code, "request %d", i)
	}
}

func TestSuggestionsRateLimited(t *testing.T) {
	f := newFixture(t, withSuggestLimiter(middleware.NewRateLimiter("suggestions", 0.001, 1)))

	assert.Equal(t, http.StatusOK, f.get("/search/suggestions/?q=Tes").Code)
	assert.Equal(t, http.StatusTooManyRequests, f.get("/search/suggestions/?q=Tes").Code)
}

func TestOpenSearchDescription(t *testing.T) {
	f := newFixture(t)

	w := f.get("/search/xml/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/opensearchdescription+xml"))
	body := w.Body.String()
	assert.Contains(t, body, "<ShortName>pyvideo.org</ShortName>")
	assert.Contains(t, body, `template="http://pyvideo.org/search/?q={searchTerms}"`)
	assert.Contains(t, body, `template="http://pyvideo.org/search/suggestions/?q={searchTerms}"`)
}

func TestURLForSource(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.Video{
		ID: 42, Title: "Title", Slug: "title", SourceURL: "http://example.com/v1", State: models.StateLive,
	}).Error)

	w := f.get("/api/v1/video/urlforsource?host_url=" + url.QueryEscape("http://example.com/v1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"source_url": "http://pyvideo.org/video/42/title/"}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, f.get("/api/v1/video/urlforsource").Code)
	assert.Equal(t, http.StatusNotFound, f.get("/api/v1/video/urlforsource?host_url=http://example.com/nope").Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.get("/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string                 `json:"status"`
		Checks map[string]interface{} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, float64(3), body.Checks["documents"])
}

func TestAdminReindex(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Video{}).Where("title = ?", "Draft talk").Update("state", models.StateLive).Error)

	w := f.do(http.MethodPost, "/api/admin/reindex", nil, "Authorization", "Bearer admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"documents":4`)

	n, err := f.index.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/admin/reindex", nil).Code)
}
