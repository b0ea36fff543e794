package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/constants"
)

func newRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), Recovery(logger))
	r.GET("/ok", func(c *gin.Context) {
		id, _ := GetRequestID(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func TestRequestID_Generated(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	header := w.Header().Get(constants.HeaderRequestID)
	_, err := uuid.Parse(header)
	assert.NoError(t, err)
	assert.Equal(t, header, w.Body.String())
}

func TestRequestID_ReusesValidHeader(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)
	incoming := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(constants.HeaderRequestID, incoming)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, incoming, w.Header().Get(constants.HeaderRequestID))
}

func TestRequestID_ReplacesInvalidHeader(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(constants.HeaderRequestID, "not-a-uuid\nforged")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "not-a-uuid\nforged", w.Header().Get(constants.HeaderRequestID))
}

func TestRequestLogger_WritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?skip=1", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Request handled", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/ok?skip=1", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestRecovery_ReturnsOpaqueError(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "Panic recovered")
}
