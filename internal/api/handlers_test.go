package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"qrdash/internal/files"
	"qrdash/internal/models"
)

type testEnv struct {
	router *mux.Router
	store  *files.RegistryStore
	outDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store := files.NewRegistryStore(filepath.Join(dir, files.DefaultRegistryFile))
	outDir := filepath.Join(dir, files.DefaultOutputDir)
	logger := zaptest.NewLogger(t)
	h := NewHandlers(store, files.NewArtifactStore(outDir), logger)
	return &testEnv{router: NewRouter(h, logger), store: store, outDir: outDir}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (e *testEnv) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) postJSON(target string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *testEnv) seed(t *testing.T, pairs ...string) {
	t.Helper()
	for i := 0; i < len(pairs); i += 2 {
		_, _, err := e.store.Add(pairs[i], pairs[i+1])
		require.NoError(t, err)
	}
}

func (e *testEnv) entries(t *testing.T) []models.AppEntry {
	t.Helper()
	reg, err := e.store.Load()
	require.NoError(t, err)
	return reg.Entries()
}

// redirectNotice reads the flash message out of a post/redirect response.
func redirectNotice(t *testing.T, rec *httptest.ResponseRecorder) (level, msg string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	return loc.Query().Get("level"), loc.Query().Get("notice")
}

func TestDashboard_Empty(t *testing.T) {
	e := newTestEnv(t)

	rec := e.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "QR Code Generator Pro Dashboard")
	assert.Contains(t, body, "No apps available.")
	assert.NotContains(t, body, "Remove Selected")
	assert.NotContains(t, body, "Clear All Apps")

	b, err := os.ReadFile(e.store.Path())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestDashboard_RendersCardsAndArtifacts(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, "Docs", "https://docs.example.com", "My App", "https://example.com/app")

	rec := e.get("/index.html")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Scan to open Docs")
	assert.Contains(t, body, "Scan to open My App")
	assert.Contains(t, body, `download="My_App_QR.png"`)
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "Remove Selected")
	assert.Equal(t, 1, strings.Count(body, `class="row cols-1"`))

	for _, name := range []string{"Docs_QR.png", "My_App_QR.png"} {
		assert.FileExists(t, filepath.Join(e.outDir, name))
	}
}

func TestDashboard_GridRows(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, "a", "https://a", "b", "https://b", "c", "https://c", "d", "https://d", "e", "https://e")

	body := e.get("/").Body.String()
	assert.Equal(t, 2, strings.Count(body, `class="row cols-3"`))
	assert.Less(t, strings.Index(body, "Scan to open a"), strings.Index(body, "Scan to open e"))
}

func TestDashboard_MalformedRegistry(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.WriteFile(e.store.Path(), []byte("{broken"), 0644))

	rec := e.get("/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboard_Generator(t *testing.T) {
	e := newTestEnv(t)

	rec := e.get("/?url=" + url.QueryEscape("https://example.com/x") + "&fill=%23FF0000&back=%23ffffff")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "QR Code for https://example.com/x")
	assert.Contains(t, body, `download="dynamic_QR.png"`)
	assert.Contains(t, body, `value="#ff0000"`)
}

func TestDashboard_GeneratorBadColor(t *testing.T) {
	e := newTestEnv(t)

	body := e.get("/?url=https%3A%2F%2Fexample.com&fill=blue").Body.String()
	assert.Contains(t, body, "Invalid fill color blue.")
	assert.NotContains(t, body, "QR Code for")
}

func TestDashboard_ShowsNotice(t *testing.T) {
	e := newTestEnv(t)

	body := e.get("/?notice=Added+Docs%21&level=success").Body.String()
	assert.Contains(t, body, `<div class="notice success">Added Docs!</div>`)

	body = e.get("/?notice=hi&level=bogus").Body.String()
	assert.Contains(t, body, `<div class="notice info">hi</div>`)
}

func TestAddApp(t *testing.T) {
	e := newTestEnv(t)

	level, msg := redirectNotice(t, e.postForm("/apps/add", url.Values{"name": {"Docs"}, "url": {"https://docs.example.com"}}))
	assert.Equal(t, "success", level)
	assert.Equal(t, "Added Docs!", msg)
	assert.Equal(t, []models.AppEntry{{Name: "Docs", URL: "https://docs.example.com"}}, e.entries(t))
}

func TestAddApp_MissingFields(t *testing.T) {
	e := newTestEnv(t)

	level, msg := redirectNotice(t, e.postForm("/apps/add", url.Values{"name": {"Docs"}}))
	assert.Equal(t, "warning", level)
	assert.Equal(t, "App name and URL are both required.", msg)
	assert.Empty(t, e.entries(t))
}

func TestRemoveApps(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, "X", "https://x", "Y", "https://y", "Z", "https://z")

	level, msg := redirectNotice(t, e.postForm("/apps/remove", url.Values{"names": {"X", "Q"}}))
	assert.Equal(t, "warning", level)
	assert.Equal(t, "Please check the confirmation box before removing.", msg)
	assert.Len(t, e.entries(t), 3)

	_, msg = redirectNotice(t, e.postForm("/apps/remove", url.Values{"confirm": {"on"}}))
	assert.Equal(t, "No apps selected for removal.", msg)
	assert.Len(t, e.entries(t), 3)

	level, msg = redirectNotice(t, e.postForm("/apps/remove", url.Values{"names": {"X", "Q"}, "confirm": {"on"}}))
	assert.Equal(t, "success", level)
	assert.Equal(t, "Removed: X", msg)
	assert.Equal(t, []models.AppEntry{{Name: "Y", URL: "https://y"}, {Name: "Z", URL: "https://z"}}, e.entries(t))

	level, msg = redirectNotice(t, e.postForm("/apps/remove", url.Values{"names": {"Q"}, "confirm": {"on"}}))
	assert.Equal(t, "info", level)
	assert.Equal(t, "None of the selected apps exist.", msg)
	assert.Len(t, e.entries(t), 2)
}

func TestClearApps_MalformedRegistry(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.WriteFile(e.store.Path(), []byte("{broken"), 0644))

	rec := e.postForm("/apps/clear", url.Values{"confirm": {"on"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	rec = e.postJSON("/api/apps/clear", ClearAppsRequest{Confirm: true})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	b, err := os.ReadFile(e.store.Path())
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(b))
}

func TestClearApps(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, "X", "https://x", "Y", "https://y")

	level, msg := redirectNotice(t, e.postForm("/apps/clear", url.Values{}))
	assert.Equal(t, "warning", level)
	assert.Equal(t, "Please check the confirmation box before clearing all apps.", msg)
	assert.Len(t, e.entries(t), 2)

	level, msg = redirectNotice(t, e.postForm("/apps/clear", url.Values{"confirm": {"on"}}))
	assert.Equal(t, "success", level)
	assert.Equal(t, "All apps cleared!", msg)
	assert.Empty(t, e.entries(t))
}

func TestDynamicQR(t *testing.T) {
	e := newTestEnv(t)

	rec := e.get("/qr.png?url=" + url.QueryEscape("https://example.com") + "&download=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=dynamic_QR.png", rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	tag := rec.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest(http.MethodGet, "/qr.png?url=https%3A%2F%2Fexample.com", nil)
	req.Header.Set("If-None-Match", tag)
	rec = e.do(req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestDynamicQR_BadRequests(t *testing.T) {
	e := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, e.get("/qr.png").Code)
	assert.Equal(t, http.StatusBadRequest, e.get("/qr.png?url=x&fill=nope").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, e.get("/qr.png?url="+strings.Repeat("x", 4000)).Code)
}

func TestAppQR(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, "My App", "https://example.com/app")

	rec := e.get("/apps/My%20App/qr.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inline; filename=My_App_QR.png", rec.Header().Get("Content-Disposition"))

	assert.Equal(t, http.StatusNotFound, e.get("/apps/Nope/qr.png").Code)
}

func TestAPI_Lifecycle(t *testing.T) {
	e := newTestEnv(t)

	rec := e.postJSON("/api/apps", CreateAppRequest{Name: "A", URL: "https://a"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp appsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Added A!", resp.Message)

	e.postJSON("/api/apps", CreateAppRequest{Name: "B", URL: "https://b"})

	rec = e.postJSON("/api/apps", CreateAppRequest{Name: "C"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.get("/api/apps")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = appsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []models.AppEntry{{Name: "A", URL: "https://a"}, {Name: "B", URL: "https://b"}}, resp.Apps)

	rec = e.postJSON("/api/apps/remove", RemoveAppsRequest{Names: []string{"A"}})
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)
	resp = appsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "warning", resp.Status)
	assert.Len(t, resp.Apps, 2)

	rec = e.postJSON("/api/apps/remove", RemoveAppsRequest{Names: []string{"A", "Q"}, Confirm: true})
	assert.Equal(t, http.StatusOK, rec.Code)
	resp = appsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Removed: A", resp.Message)
	assert.Equal(t, []models.AppEntry{{Name: "B", URL: "https://b"}}, e.entries(t))

	rec = e.postJSON("/api/apps/clear", ClearAppsRequest{Confirm: true})
	assert.Equal(t, http.StatusOK, rec.Code)
	resp = appsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Apps)
	assert.Empty(t, resp.Apps)
}

func TestAPI_InvalidBody(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/apps", strings.NewReader("not json"))
	assert.Equal(t, http.StatusBadRequest, e.do(req).Code)
}

func TestRequestID(t *testing.T) {
	e := newTestEnv(t)

	rec := e.get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", e.do(req).Header().Get(requestIDHeader))
}

func TestEtagMatches(t *testing.T) {
	tag := `"abc"`
	assert.True(t, etagMatches(`"abc"`, tag))
	assert.True(t, etagMatches(`W/"abc"`, tag))
	assert.True(t, etagMatches(`"x", "abc"`, tag))
	assert.True(t, etagMatches(`*`, tag))
	assert.False(t, etagMatches(`"abd"`, tag))
}
