package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxicast/taxicast/internal/api/middleware"
)

func TestRecovery_ReturnsErrorEnvelope(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := middleware.RequestID(
		middleware.Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("nil zone table")
		})),
	)

	req := httptest.NewRequest(http.MethodPost, "/predict-duration", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "an unexpected error occurred", body["message"])
	assert.NotContains(t, body["message"], "nil zone table")

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "panic recovered", logEntry["message"])
	assert.Equal(t, "nil zone table", logEntry["error"])
	assert.True(t, strings.Contains(logEntry["stack"].(string), "goroutine"))
}

func TestRecovery_PassesThrough(t *testing.T) {
	handler := middleware.Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRecovery_ReraisesAbort(t *testing.T) {
	handler := middleware.Recovery(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/route", http.NoBody))
	})
}
