// Package http exposes the route engine over HTTP: dispatch endpoints,
// table and module introspection, health and metrics.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/modgate/app"
	"github.com/artpar/modgate/core/module"
)

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string `json:"status"`
}

// VersionResponse is the /version body.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// Handler serves the route dispatch API.
type Handler struct {
	service *app.RouteService
	logger  zerolog.Logger
	version string
}

// NewHandler creates an HTTP handler over the route service.
func NewHandler(service *app.RouteService, logger zerolog.Logger, version string) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With().Str("component", "http").Logger(),
		version: version,
	}
}

// Router builds the chi router with all endpoints mounted.
func (h *Handler) Router(metricsEnabled bool, metricsPath string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.Health)
	r.Get("/version", h.Version)
	if metricsEnabled {
		r.Handle(metricsPath, promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/routes", h.ListRoutes)
		r.Get("/routes/{name}", h.Dispatch)
		r.Post("/routes/{name}", h.Dispatch)
		r.Get("/modules", h.ListModules)
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Version reports the build version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: h.version, Service: "modgate"})
}

// ListRoutes returns the active table's self-description. Dispatching
// with an empty name yields the same document, so the CLI and HTTP
// surfaces stay in sync.
func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	resp := h.service.Execute(r.Context(), "", nil)
	h.write(w, resp)
}

// ListModules returns the registry description: every module with its
// command table and declared parameters.
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Modules())
}

// Dispatch executes a named route. Arguments come from query
// parameters; a POST JSON body is merged on top and wins on conflict.
// The engine drops anything the route does not declare, so the handler
// forwards the bag as-is.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	raw := make(map[string]any)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}

	if r.Method == http.MethodPost && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		if len(body) > 0 {
			var fields map[string]any
			if err := json.Unmarshal(body, &fields); err != nil {
				http.Error(w, "request body must be a JSON object", http.StatusBadRequest)
				return
			}
			for k, v := range fields {
				raw[k] = v
			}
		}
	}

	resp := h.service.Execute(r.Context(), name, raw)
	h.logger.Debug().
		Str("route", name).
		Int("code", resp.Code).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("route dispatched")
	h.write(w, resp)
}

// write maps an engine response onto the wire verbatim: the code is the
// HTTP status and the body is the payload, untouched.
func (h *Handler) write(w http.ResponseWriter, resp *module.Response) {
	if resp.Type != "" {
		w.Header().Set("Content-Type", resp.Type)
	}
	w.WriteHeader(resp.Code)
	if resp.Code == http.StatusNoContent || len(resp.Data) == 0 {
		return
	}
	if _, err := w.Write(resp.Data); err != nil {
		h.logger.Error().Err(err).Msg("failed to write response body")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
