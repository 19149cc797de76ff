// Package handler exposes the relief entities over HTTP. Every route decodes
// its input, hands one request to the coordinator and writes the envelope back.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"relief/internal/relief/coordinator"
	"relief/internal/relief/entity"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/httputil"
	"relief/pkg/requestcontext"
)

// Service handles one entity request.
type Service interface {
	Handle(ctx context.Context, req coordinator.Request) coordinator.Response
}

// HealthChecker reports whether the store answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler serves the entity resources, the contact form, the index and health.
type Handler struct {
	service Service
	health  HealthChecker
	logger  *slog.Logger
}

// New creates a new relief Handler. health may be nil, in which case /health
// always reports ok.
func New(service Service, health HealthChecker, logger *slog.Logger) *Handler {
	return &Handler{service: service, health: health, logger: logger}
}

// Register registers the relief routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/health", h.handleHealth)
	r.Post("/api/contact", h.handleContact)

	for _, resource := range entity.Resources() {
		kind, _ := entity.ByResource(resource)
		r.Route("/api/"+resource, func(r chi.Router) {
			r.Get("/", h.entity(kind, coordinator.OpList))
			r.Post("/", h.entity(kind, coordinator.OpCreate))
			r.Get("/{id:[0-9]+}", h.entity(kind, coordinator.OpGet))
			r.Put("/{id:[0-9]+}", h.entity(kind, coordinator.OpUpdate))
			r.Delete("/{id:[0-9]+}", h.entity(kind, coordinator.OpDelete))
		})
	}
}

// NotFound answers unknown routes with the failure envelope.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Resource not found"))
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeMethodNotAllowed, "Method not allowed"))
}

func (h *Handler) entity(kind entity.Kind, op coordinator.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req := coordinator.Request{Kind: kind, Op: op}

		if raw := chi.URLParam(r, "id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				// Digits only, so this is an overflow.
				NotFound(w, r)
				return
			}
			req.ID = id
		}

		if op == coordinator.OpCreate || op == coordinator.OpUpdate {
			fields, err := decodeFields(w, r)
			if err != nil {
				h.logger.WarnContext(ctx, "invalid request body",
					"entity", kind,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			req.Fields = fields
		}

		resp := h.service.Handle(ctx, req)
		httputil.WriteJSON(w, resp.Status, resp.Envelope)
	}
}

type indexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, indexResponse{
		Message: "Disaster Relief Management API",
		Status:  "online",
	})
}

type healthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.health != nil {
		if err := h.health.Health(ctx); err != nil {
			h.logger.ErrorContext(ctx, "health check failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Success: false, Status: "unavailable"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, healthResponse{Success: true, Status: "ok"})
}
