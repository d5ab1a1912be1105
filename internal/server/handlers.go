package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/Veraticus/foodlens/internal/cache"
	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/recognition"
)

// Handler implements the HTTP endpoints.
type Handler struct {
	rec           Recognizer
	logger        *slog.Logger
	maxImageBytes int64
}

// NewHandler creates a handler. Request bodies larger than maxImageBytes
// are rejected.
func NewHandler(rec Recognizer, maxImageBytes int64, logger *slog.Logger) *Handler {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		rec:           rec,
		logger:        logger,
		maxImageBytes: maxImageBytes,
	}
}

// Mux registers every route on a new ServeMux.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/recognize", h.Recognize)
	mux.HandleFunc("DELETE /v1/cache", h.ClearCache)
	mux.HandleFunc("GET /v1/cache/stats", h.CacheStats)
	mux.HandleFunc("GET /healthz", h.Health)
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type statsResponse struct {
	Cache       cache.Stats       `json:"cache"`
	Recognition recognition.Stats `json:"recognition"`
}

// Recognize accepts a photo as the raw request body or as the "image"
// field of a multipart form.
func (h *Handler) Recognize(w http.ResponseWriter, r *http.Request) {
	image, err := h.readImage(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				common.NewUserError(fmt.Sprintf("Photo is larger than %d bytes.", tooLarge.Limit), err))
			return
		}
		h.respondError(w, http.StatusBadRequest, common.NewUserError("Could not read the uploaded photo.", err))
		return
	}

	result, err := h.rec.Recognize(r.Context(), image)
	if err != nil {
		h.respondError(w, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ClearCache drops every cached recognition result.
func (h *Handler) ClearCache(w http.ResponseWriter, _ *http.Request) {
	h.rec.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// CacheStats reports cache and orchestrator counters.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, statsResponse{
		Cache:       h.rec.CacheStats(),
		Recognition: h.rec.Stats(),
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, h.maxImageBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return io.ReadAll(body)
	}

	r.Body = body
	if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("missing image field: %w", err)
	}
	defer func() { _ = file.Close() }()
	return io.ReadAll(file)
}

func statusFor(err error) int {
	var recErr *common.RecognitionError
	switch {
	case errors.As(err, &recErr) && recErr.Kind == common.KindInvalidInput:
		return http.StatusBadRequest
	case errors.As(err, &recErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, err error) {
	h.logger.Warn("Request failed", "status", status, "error", err)

	resp := errorResponse{Error: common.UserMessage(err)}
	var recErr *common.RecognitionError
	if errors.As(err, &recErr) {
		resp.Kind = string(recErr.Kind)
	}
	respondJSON(w, status, resp)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
