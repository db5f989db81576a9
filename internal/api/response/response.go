// Package response writes JSON bodies and error envelopes for the API handlers.
package response

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taxicast/taxicast/internal/api/middleware"
	"github.com/taxicast/taxicast/internal/api/models"
)

// Cache scopes accepted by Cache.
const (
	Public  = "public"
	Private = "private"
)

// JSON encodes data and writes it with status. The body is buffered first so
// an encoding failure still produces a well-formed 500 envelope instead of a
// truncated success response.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set(middleware.RequestIDHeader, requestID)
	}

	if data == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to encode response")
		w.Header().Del("Cache-Control")
		InternalError(w, r, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Cache marks the response cacheable for ttl. A non-positive ttl sets no-store.
func Cache(w http.ResponseWriter, scope string, ttl time.Duration) {
	if ttl <= 0 {
		w.Header().Set("Cache-Control", "no-store")
		return
	}
	w.Header().Set("Cache-Control", scope+", max-age="+strconv.Itoa(int(ttl/time.Second)))
}

// Error writes a {status:"error", message} envelope.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	models.NewError(middleware.GetRequestID(r.Context()), message).Write(w, status)
}

// BadRequest writes a 400 envelope.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, message)
}

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusNotFound, message)
}

// InternalError writes a 500 envelope. The message reaches the client as is.
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusInternalServerError, message)
}
