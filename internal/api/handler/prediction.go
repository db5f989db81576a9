// Package handler provides HTTP handlers for the taxicast API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/taxicast/taxicast/internal/api/middleware"
	"github.com/taxicast/taxicast/internal/api/models"
	"github.com/taxicast/taxicast/internal/api/response"
	"github.com/taxicast/taxicast/internal/prediction"
)

// maxBodyBytes bounds prediction request bodies.
const maxBodyBytes = 64 << 10

// PredictionHandler handles the duration and destination endpoints.
type PredictionHandler struct {
	service *prediction.Service
	logger  zerolog.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(service *prediction.Service, logger zerolog.Logger) *PredictionHandler {
	return &PredictionHandler{
		service: service,
		logger:  logger,
	}
}

// PredictDuration handles POST /predict-duration.
func (h *PredictionHandler) PredictDuration(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.service.PredictDuration(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewDurationResponse(res))
}

// PredictDestination handles POST /predict-destination.
func (h *PredictionHandler) PredictDestination(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.service.PredictDestination(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewDestinationResponse(res))
}

func (h *PredictionHandler) decode(w http.ResponseWriter, r *http.Request) (prediction.Request, bool) {
	var req prediction.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		msg := fmt.Sprintf("invalid JSON body: %v", err)
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		response.BadRequest(w, r, msg)
		return prediction.Request{}, false
	}
	return req, true
}

// writeError maps prediction error kinds to status codes. Only invalid input
// is the caller's fault; everything else is a 500 carrying the cause.
func (h *PredictionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := prediction.KindOf(err)
	if kind == prediction.KindInvalidInput {
		response.BadRequest(w, r, err.Error())
		return
	}

	h.logger.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("kind", string(kind)).
		Str("path", r.URL.Path).
		Msg("prediction failed")

	response.InternalError(w, r, err.Error())
}
