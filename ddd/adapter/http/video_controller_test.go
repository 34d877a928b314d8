package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcription-service/ddd/application/app"
	"transcription-service/ddd/domain/service"
	"transcription-service/ddd/domain/vo"
	"transcription-service/ddd/infrastructure/database/persistence"
	"transcription-service/pkg/restapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStorage struct{}

func (memStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	_, err := io.Copy(io.Discard, r)
	return "s3://videos/" + key, err
}

func (memStorage) PresignedURL(_ context.Context, locator string) (string, error) {
	return "https://signed/" + locator, nil
}

type scriptedTranscriber struct {
	err error
}

func (s scriptedTranscriber) Transcribe(context.Context, string) (*vo.TranscriptionDetails, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &vo.TranscriptionDetails{Text: "hello there", Language: "en"}, nil
}

var mp4Head = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'}

func newTestEngine(t *testing.T, tr scriptedTranscriber) *gin.Engine {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	repo := persistence.NewMemoryVideoRepository(now)
	svc := service.NewTranscriptionService(repo, memStorage{}, tr, nil, nil, service.TranscriptionOptions{Timeout: time.Second, Now: now})
	videoApp := app.NewVideoAppWith(repo, memStorage{}, svc, nil, app.VideoAppOptions{MaxFileSize: 1 << 20, Now: now})

	engine := gin.New()
	router := NewRouter(videoApp, 1<<20, "", "")
	router.SetupMiddleware(engine)
	router.SetupRoutes(engine)
	return engine
}

func multipartUpload(t *testing.T, filename, contentType string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-User-UUID", "user-7")
	return req
}

func do(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, engine *gin.Engine) int64 {
	t.Helper()
	w := do(engine, multipartUpload(t, "talk.mp4", "video/mp4", mp4Head))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "uploaded", out.Status)
	return out.ID
}

func TestUploadAndGet(t *testing.T) {
	engine := newTestEngine(t, scriptedTranscriber{})
	id := upload(t, engine)

	w := do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/videos/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, float64(id), v["id"])
	assert.Equal(t, "talk.mp4", v["filename"])
	assert.Equal(t, "user-7", v["created_by"])
	assert.Equal(t, float64(0), v["processing_attempts"])
	assert.Nil(t, v["processed_time"])
	_, hasErr := v["error_message"]
	assert.False(t, hasErr)
}

func TestUploadRejectsNonVideo(t *testing.T) {
	engine := newTestEngine(t, scriptedTranscriber{})

	w := do(engine, multipartUpload(t, "notes.txt", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(engine, httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscribeLifecycle(t *testing.T) {
	engine := newTestEngine(t, scriptedTranscriber{})
	upload(t, engine)

	w := do(engine, httptest.NewRequest(http.MethodPost, "/api/v1/videos/1/transcribe", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "completed", out["status"])
	assert.Equal(t, "hello there", out["transcription"])
	assert.NotNil(t, out["processed_time"])

	// 已完成不能再次转写
	w = do(engine, httptest.NewRequest(http.MethodPost, "/api/v1/videos/1/transcribe", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTranscribeFailureReports500(t *testing.T) {
	engine := newTestEngine(t, scriptedTranscriber{err: errors.New("provider down")})
	upload(t, engine)

	w := do(engine, httptest.NewRequest(http.MethodPost, "/api/v1/videos/1/transcribe", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body restapi.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Detail, "provider down")

	w = do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/videos/1", nil))
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, "failed", v["status"])
	assert.Equal(t, "provider down", v["error_message"])
}

func TestVideoIDErrors(t *testing.T) {
	engine := newTestEngine(t, scriptedTranscriber{})

	w := do(engine, httptest.NewRequest(http.MethodPost, "/api/v1/videos/abc/transcribe", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(engine, httptest.NewRequest(http.MethodPost, "/api/v1/videos/99/transcribe", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListVideos(t *testing.T) {
	engine := newTestEngine(t, scriptedTranscriber{})
	for i := 0; i < 3; i++ {
		upload(t, engine)
	}

	w := do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/videos?page=1&page_size=2&status=uploaded", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Items    []map[string]interface{} `json:"items"`
		Metadata map[string]interface{}   `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out.Items, 2)
	assert.Equal(t, float64(3), out.Metadata["total_count"])
	assert.Equal(t, float64(2), out.Metadata["total_pages"])
	assert.Equal(t, true, out.Metadata["has_next"])
	assert.Equal(t, false, out.Metadata["has_previous"])

	w = do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/videos?order_by=size", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/videos?status=archived", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMetadataAndAnalysis(t *testing.T) {
	engine := newTestEngine(t, scriptedTranscriber{})
	upload(t, engine)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/videos/1/metadata",
		strings.NewReader(`{"media_metadata":{"duration":"12.5","file_size":2048,"format":"mp4"}}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(engine, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/videos?min_duration=10&max_file_size=4096", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_count":1`)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/videos/1/analysis",
		strings.NewReader(`{"summary":"greeting","analysis_results":{"sentiment":{"score":2,"magnitude":1}}}`))
	req.Header.Set("Content-Type", "application/json")
	w = do(engine, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(t, scriptedTranscriber{})
	w := do(engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
