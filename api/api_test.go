package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"audicore/file-api/middleware"
	"audicore/file-api/model"
	"audicore/file-api/registry"
	"audicore/file-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()

	gin.SetMode(gin.TestMode)
	viper.Set("upload.max_size", int64(50<<20))
	viper.Set("download.default_expiry", "1h")

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.File{}))

	store := storage.NewMemory("test-bucket")

	a := &API{
		DB:       db,
		Router:   gin.New(),
		Registry: registry.New(db, store),
		Store:    store,
	}

	a.Router.Use(middleware.NewRequestIDMiddleware())
	a.mount()

	return a
}

func doRequest(a *API, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, name string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func uploadFile(t *testing.T, a *API, name string, content []byte, fields map[string]string) model.File {
	t.Helper()

	body, contentType := multipartUpload(t, name, content, fields)

	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", contentType)

	w := doRequest(a, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var file model.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))
	return file
}

func TestUploadMultipart(t *testing.T) {
	a := newTestAPI(t)

	file := uploadFile(t, a, "a.txt", []byte("hello"), map[string]string{
		"uploaded_by": "someone@example.com",
		"folder":      "docs",
	})

	assert.NotEmpty(t, file.ID)
	assert.Equal(t, "a.txt", file.OriginalName)
	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, "someone@example.com", file.UploadedBy)
	assert.Contains(t, file.StoragePath, "docs/")
}

func TestUploadMultipartNoFile(t *testing.T) {
	a := newTestAPI(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("folder", "docs"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := doRequest(a, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadJSONBase64(t *testing.T) {
	a := newTestAPI(t)

	payload, err := json.Marshal(gin.H{
		"content":      base64.StdEncoding.EncodeToString([]byte("hello")),
		"name":         "b.txt",
		"content_type": "text/plain",
		"uploaded_by":  "powerapps",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/files", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := doRequest(a, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var file model.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))

	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, "b.txt", file.OriginalName)
	assert.Equal(t, "text/plain", file.ContentType)
}

func TestUploadJSONMissingFields(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/files", bytes.NewReader([]byte(`{"name":"x.txt"}`)))
	req.Header.Set("Content-Type", "application/json")

	w := doRequest(a, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadJSONMalformedBase64(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/files", bytes.NewReader([]byte(`{"content":"%%%","name":"x.txt"}`)))
	req.Header.Set("Content-Type", "application/json")

	w := doRequest(a, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "base64")
}

func TestFileFetch(t *testing.T) {
	a := newTestAPI(t)

	uploaded := uploadFile(t, a, "a.txt", []byte("hello"), nil)

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files/"+uploaded.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var file model.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))
	assert.Equal(t, uploaded.ID, file.ID)
}

func TestFileFetchUnknown(t *testing.T) {
	a := newTestAPI(t)

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFileDownload(t *testing.T) {
	a := newTestAPI(t)

	uploaded := uploadFile(t, a, "report.pdf", []byte("pdf bytes"), nil)

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files/"+uploaded.ID+"/download", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "pdf bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.pdf")
}

func TestFileDownloadURL(t *testing.T) {
	a := newTestAPI(t)

	uploaded := uploadFile(t, a, "a.txt", []byte("hello"), nil)

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files/"+uploaded.ID+"/url?expires_in=7200", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var link registry.DownloadLink
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))

	assert.NotEqual(t, uploaded.URL, link.URL)
	assert.Contains(t, link.URL, uploaded.StoragePath)
	assert.False(t, link.ExpiresAt.IsZero())
}

func TestFileDownloadURLBadExpiry(t *testing.T) {
	a := newTestAPI(t)

	uploaded := uploadFile(t, a, "a.txt", []byte("hello"), nil)

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files/"+uploaded.ID+"/url?expires_in=-5", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFileSoftDelete(t *testing.T) {
	a := newTestAPI(t)

	uploaded := uploadFile(t, a, "a.txt", []byte("hello"), nil)

	w := doRequest(a, httptest.NewRequest(http.MethodDelete, "/api/files/"+uploaded.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inactive")

	// Record is hidden but the blob survives
	w = doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files/"+uploaded.ID+"/download", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, err := a.Store.Get(context.Background(), uploaded.StoragePath)
	require.NoError(t, err)
	body.Close()
}

func TestFilePermanentDelete(t *testing.T) {
	a := newTestAPI(t)

	uploaded := uploadFile(t, a, "a.txt", []byte("hello"), nil)

	w := doRequest(a, httptest.NewRequest(http.MethodDelete, "/api/files/"+uploaded.ID+"?permanent=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "permanently")

	_, err := a.Store.Get(context.Background(), uploaded.StoragePath)
	assert.ErrorIs(t, err, storage.ErrObjectMissing)
}

func TestFileFetchFreshAfterDelete(t *testing.T) {
	a := newTestAPI(t)

	uploaded := uploadFile(t, a, "a.txt", []byte("hello"), nil)

	// Prime the metadata cache
	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files/"+uploaded.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(a, httptest.NewRequest(http.MethodDelete, "/api/files/"+uploaded.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	// The cached entry must be gone along with the record
	w = doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files/"+uploaded.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFileListFreshAfterDelete(t *testing.T) {
	a := newTestAPI(t)

	kept := uploadFile(t, a, "a.txt", []byte("hello"), nil)
	gone := uploadFile(t, a, "b.txt", []byte("hello"), nil)

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(a, httptest.NewRequest(http.MethodDelete, "/api/files/"+gone.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Files []model.FileSummary `json:"files"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Equal(t, 1, resp.Total)
	assert.Equal(t, kept.ID, resp.Files[0].ID)
}

func TestFileDeleteUnknown(t *testing.T) {
	a := newTestAPI(t)

	w := doRequest(a, httptest.NewRequest(http.MethodDelete, "/api/files/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFileList(t *testing.T) {
	a := newTestAPI(t)

	for i := range 3 {
		uploadFile(t, a, fmt.Sprintf("file%d.txt", i), []byte("data"), nil)
	}
	uploadFile(t, a, "doc.pdf", []byte("data"), map[string]string{"folder": "docs"})

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Files []model.FileSummary `json:"files"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 4, resp.Total)
	assert.Len(t, resp.Files, 4)
}

func TestFileListFolder(t *testing.T) {
	a := newTestAPI(t)

	uploadFile(t, a, "a.txt", []byte("data"), nil)
	uploadFile(t, a, "doc.pdf", []byte("data"), map[string]string{"folder": "docs"})

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files?folder=docs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Files []model.FileSummary `json:"files"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "doc.pdf", resp.Files[0].OriginalName)
}

func TestFileListBadParams(t *testing.T) {
	a := newTestAPI(t)

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(a, httptest.NewRequest(http.MethodGet, "/api/files?offset=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHeartbeat(t *testing.T) {
	a := newTestAPI(t)

	w := doRequest(a, httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	w := doRequest(a, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-bucket")
}
