package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRedactsSensitiveAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("json", "debug", &buf)

	logger.Info("login", "username", "alice", "password", "hunter2", "session_id", "session:abcd1234")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "alice", entry["username"])
	assert.Equal(t, redactedValue, entry["password"])
	assert.Equal(t, redactedValue, entry["session_id"])
}

func TestSetupTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "k=v")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestRedactGroup(t *testing.T) {
	attr := redact(slog.Group("req", slog.String("cookie", "abc"), slog.String("path", "/login")))
	group := attr.Value.Group()
	require.Len(t, group, 2)
	assert.Equal(t, redactedValue, group[0].Value.String())
	assert.Equal(t, "/login", group[1].Value.String())
}

func TestErrorIncludesOopsCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("SESSION_BUILD_FAILED").With("attempts", 100).Errorf("no free id")
	Error(context.Background(), logger, "issue failed", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "SESSION_BUILD_FAILED", entry["code"])
	assert.Equal(t, "issue failed", entry["msg"])
}

func TestErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	Error(context.Background(), logger, "failed", errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := Setup("json", "info", &buf)

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/ping", func(c *gin.Context) {
		FromContext(c, logger).Info("inside")
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, `"request_id":"req-42"`)
	}
	assert.Contains(t, lines[1], `"status":204`)
}

func TestRequestLoggerGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(Discard()))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}
