package route

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tuneful/backend/api/middleware"
	"tuneful/backend/cache"
	"tuneful/backend/common"
	"tuneful/backend/model"
	"tuneful/backend/service"
	"tuneful/backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	originalSQLitePath, originalDSN, originalAddress := common.SQLitePath, common.SQLDSN, common.ServerAddress
	dir := t.TempDir()
	common.SQLitePath = filepath.Join(dir, "router_test.db")
	common.SQLDSN = ""
	common.ServerAddress = ""

	db, err := model.InitDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = model.CloseDB(db)
		common.SQLitePath, common.SQLDSN, common.ServerAddress = originalSQLitePath, originalDSN, originalAddress
	})

	blobs, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	catalog := service.NewCatalog(blobs, cache.NewLocalSongCache(time.Minute))

	engine := gin.New()
	engine.Use(middleware.RequestId())
	require.NoError(t, SetRouter(engine, db, catalog))
	return engine
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func uploadFile(t *testing.T, router *gin.Engine, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/files", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestSongLifecycle(t *testing.T) {
	router := setupTestRouter(t)

	resp := doJSON(router, "POST", "/api/songs", `{"file": {"id": 1, "name": "SongA"}}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "/api/songs/1", resp.Header().Get("Location"))
	assert.JSONEq(t, `{"id": 1, "file": {"file_id": 1, "file_name": "SongA"}}`, resp.Body.String())

	resp = doJSON(router, "GET", "/api/songs/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"id": 1, "file": {"file_id": 1, "file_name": "SongA"}}`, resp.Body.String())
	first := resp.Body.String()

	resp = doJSON(router, "GET", "/api/songs/1", "")
	assert.Equal(t, first, resp.Body.String())

	resp = doJSON(router, "PUT", "/api/songs/1", `{"id": 1, "file": {"id": 1, "name": "SongA remix"}}`)
	require.Equal(t, http.StatusAccepted, resp.Code)
	assert.JSONEq(t, `{"id": 1, "file": {"file_id": 1, "file_name": "SongA remix"}}`, resp.Body.String())

	resp = doJSON(router, "GET", "/api/songs/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"id": 1, "file": {"file_id": 1, "file_name": "SongA remix"}}`, resp.Body.String())

	resp = doJSON(router, "DELETE", "/api/songs/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"message": "Song with id 1 is deleted"}`, resp.Body.String())

	resp = doJSON(router, "GET", "/api/songs/1", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"message": "Could not find song with id 1"}`, resp.Body.String())
}

func TestSongIdsIncrease(t *testing.T) {
	router := setupTestRouter(t)

	var last int64
	for i := 0; i < 3; i++ {
		resp := doJSON(router, "POST", "/api/songs", fmt.Sprintf(`{"file": {"id": %d, "name": "Song%d"}}`, 100+i, i))
		require.Equal(t, http.StatusCreated, resp.Code)
		var view model.SongView
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
		assert.Greater(t, view.ID, last)
		last = view.ID
	}

	resp := doJSON(router, "GET", "/api/songs", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var views []model.SongView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &views))
	require.Len(t, views, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{views[0].ID, views[1].ID, views[2].ID})
	assert.Equal(t, "Song0", views[0].File.FileName)
}

func TestEmptySongList(t *testing.T) {
	router := setupTestRouter(t)

	resp := doJSON(router, "GET", "/api/songs", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestUnacceptableMedia(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/songs", nil)
	req.Header.Set("Accept", "application/xml")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotAcceptable, resp.Code)
	assert.JSONEq(t, `{"message": "Request must accept application/json data"}`, resp.Body.String())
}

func TestUnsupportedMediaType(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("POST", "/api/songs", strings.NewReader(`{"file": {"id": 1, "name": "a"}}`))
	req.Header.Set("Content-Type", "text/plain")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Code)
	assert.JSONEq(t, `{"message": "Request must contain application/json data"}`, resp.Body.String())
}

func TestSongValidationErrors(t *testing.T) {
	router := setupTestRouter(t)

	resp := doJSON(router, "POST", "/api/songs", `{"name": "SongA"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.JSONEq(t, `{"message": "'file' is a required property"}`, resp.Body.String())

	resp = doJSON(router, "POST", "/api/songs", `{"file": {"id": "one"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.JSONEq(t, `{"message": "'id' must be an integer"}`, resp.Body.String())

	resp = doJSON(router, "POST", "/api/songs", `{"file": {"id": 1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.JSONEq(t, `{"message": "'name' is a required property"}`, resp.Body.String())
}

func TestMissingSongs(t *testing.T) {
	router := setupTestRouter(t)

	resp := doJSON(router, "GET", "/api/songs/5", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"message": "Could not find song with id 5"}`, resp.Body.String())

	resp = doJSON(router, "PUT", "/api/songs/5", `{"file": {"id": 1, "name": "x"}}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(router, "DELETE", "/api/songs/5", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"message": "Could not find song with id 5"}`, resp.Body.String())

	resp = doJSON(router, "GET", "/api/songs/abc", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"message": "Could not find song with id abc"}`, resp.Body.String())
}

func TestSongConflicts(t *testing.T) {
	router := setupTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(router, "POST", "/api/songs", `{"file": {"id": 1, "name": "A"}}`).Code)
	require.Equal(t, http.StatusCreated, doJSON(router, "POST", "/api/songs", `{"file": {"id": 2, "name": "B"}}`).Code)

	resp := doJSON(router, "POST", "/api/songs", `{"file": {"id": 1}}`)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = doJSON(router, "PUT", "/api/songs/2", `{"file": {"id": 1}}`)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = doJSON(router, "PUT", "/api/songs/2", `{"id": 3, "file": {"id": 2}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestSongETag(t *testing.T) {
	router := setupTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(router, "POST", "/api/songs", `{"file": {"id": 1, "name": "A"}}`).Code)

	resp := doJSON(router, "GET", "/api/songs/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	tag := resp.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req, _ := http.NewRequest("GET", "/api/songs/1", nil)
	req.Header.Set("If-None-Match", tag)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotModified, resp.Code)
	assert.Empty(t, resp.Body.String())

	require.Equal(t, http.StatusAccepted, doJSON(router, "PUT", "/api/songs/1", `{"file": {"id": 1, "name": "B"}}`).Code)
	resp = doJSON(router, "GET", "/api/songs/1", "")
	assert.NotEqual(t, tag, resp.Header().Get("ETag"))
}

func TestUploadAndDownload(t *testing.T) {
	router := setupTestRouter(t)

	resp := uploadFile(t, router, "file", "my song.mp3", "ID3-data")
	require.Equal(t, http.StatusCreated, resp.Code)
	var view model.FileView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	assert.Equal(t, int64(1), view.ID)
	assert.Equal(t, "my_song.mp3", view.Name)
	assert.Equal(t, "http://example.com/uploads/my_song.mp3", view.Path)

	req, _ := http.NewRequest("GET", "/uploads/my_song.mp3", nil)
	download := httptest.NewRecorder()
	router.ServeHTTP(download, req)
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "ID3-data", download.Body.String())
	assert.Equal(t, "audio/mpeg", download.Header().Get("Content-Type"))

	resp = doJSON(router, "POST", "/api/songs", `{"file": {"id": 1}}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.JSONEq(t, `{"id": 1, "file": {"file_id": 1, "file_name": "my_song.mp3"}}`, resp.Body.String())

	resp = doJSON(router, "GET", "/api/files", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "my_song.mp3")

	require.Equal(t, http.StatusOK, doJSON(router, "DELETE", "/api/songs/1", "").Code)
	download = httptest.NewRecorder()
	router.ServeHTTP(download, req)
	assert.Equal(t, http.StatusNotFound, download.Code)
}

func TestRenamedSongStaysDownloadable(t *testing.T) {
	router := setupTestRouter(t)

	require.Equal(t, http.StatusCreated, uploadFile(t, router, "file", "track.mp3", "ID3-data").Code)
	require.Equal(t, http.StatusCreated, doJSON(router, "POST", "/api/songs", `{"file": {"id": 1}}`).Code)
	resp := doJSON(router, "PUT", "/api/songs/1", `{"file": {"id": 1, "name": "Renamed"}}`)
	require.Equal(t, http.StatusAccepted, resp.Code)

	resp = doJSON(router, "GET", "/api/files", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var views []model.FileView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Renamed", views[0].Name)
	assert.Equal(t, "http://example.com/uploads/track.mp3", views[0].Path)

	req := httptest.NewRequest("GET", strings.TrimPrefix(views[0].Path, "http://example.com"), nil)
	download := httptest.NewRecorder()
	router.ServeHTTP(download, req)
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "ID3-data", download.Body.String())
}

func TestOversizeSongPayload(t *testing.T) {
	router := setupTestRouter(t)

	body := `{"file": {"id": 1, "name": "` + strings.Repeat("a", 1<<20) + `"}}`
	resp := doJSON(router, "POST", "/api/songs", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.JSONEq(t, `{"message": "Request body must not exceed 65536 bytes"}`, resp.Body.String())
}

func TestUploadMissingField(t *testing.T) {
	router := setupTestRouter(t)

	resp := uploadFile(t, router, "attachment", "a.mp3", "x")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.JSONEq(t, `{"message": "Could not find file data"}`, resp.Body.String())
}

func TestUploadUsesServerAddress(t *testing.T) {
	router := setupTestRouter(t)
	common.ServerAddress = "https://cdn.example.org"

	resp := uploadFile(t, router, "file", "a.mp3", "x")
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"path":"https://cdn.example.org/uploads/a.mp3"`)
}

func TestDownloadMissingFile(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/uploads/nothing.mp3", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"message": "Could not find file nothing.mp3"}`, resp.Body.String())
}

func TestIndexPage(t *testing.T) {
	router := setupTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(router, "POST", "/api/songs", `{"file": {"id": 1, "name": "SongA"}}`).Code)

	req := httptest.NewRequest("GET", "/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "SongA")
	assert.Contains(t, resp.Body.String(), "http://example.com/uploads/SongA")

	req = httptest.NewRequest("GET", "/static/style.css", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "font-family")
}

func TestRequestIdEchoed(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/songs", nil)
	req.Header.Set("X-Request-Id", "trace-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, "trace-1", resp.Header().Get("X-Request-Id"))
}
