// Package www serves the JSON API and the live event stream for production
// dashboards.
package www

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prodflow/engine"
)

type Handlers struct {
	engine       *engine.Engine
	sessions     *sessions.CookieStore
	hub          *Hub
	trustHeaders bool
	keepalive    time.Duration
	logFn        func(format string, args ...any)
}

// NewRouter builds the API router and attaches the stream hub to the engine's
// event bus. The returned func detaches the hub and ends open streams.
func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	cfg := eng.AppConfig()
	h := &Handlers{
		engine:       eng,
		trustHeaders: cfg.Web.TrustIdentityHeaders,
		keepalive:    cfg.Web.Keepalive,
		logFn:        log.Printf,
	}
	h.sessions = newSessionStore(cfg.Web.SessionSecret, h.logFn)
	if h.keepalive <= 0 {
		h.keepalive = 30 * time.Second
	}
	h.hub = NewHub(cfg.Web.StreamBuffer, h.logFn)
	h.hub.Attach(eng.Events)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.identify)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealth)
		r.Get("/events", h.handleSSE)
		r.Get("/events/ws", h.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))

			r.Get("/operations/{id}", h.apiGetOperation)
			r.Get("/production-orders/{id}", h.apiGetProductionOrder)
			r.Get("/orders/{sourceOrderID}/production-status", h.apiProductionStatus)
			r.Get("/paths", h.apiListPaths)
			r.Get("/path-codes", h.apiListPathCodes)
			r.Get("/rooms/{id}/eligible-path-codes", h.apiEligiblePathCodes)
			r.Get("/rooms/{id}/access", h.apiRoomAccess)
			r.Get("/rooms/{id}/visibility", h.apiRoomVisibility)
			r.Get("/work-centers/{id}/path-mappings", h.apiListPathMappings)
			r.Get("/work-stations/{id}/assignments", h.apiListAssignments)
			r.Get("/kpi/overview", h.apiKPIOverview)
		})

		// Mutations
		r.Group(func(r chi.Router) {
			r.Use(h.requireIdentity)
			r.Post("/operations/{id}/{action}", h.apiTransition)
			r.Put("/production-orders/{id}/branch", h.apiReassignBranch)
			r.Post("/production-orders/fix-orphaned", h.apiFixOrphaned)
			r.Post("/orders/{sourceOrderID}/production-orders", h.apiMaterialize)
			r.Post("/work-centers/{id}/path-mappings", h.apiAddPathMapping)
			r.Delete("/work-centers/{id}/path-mappings/{code}", h.apiRemovePathMapping)
			r.Put("/work-stations/{id}/restriction", h.apiSetRestriction)
			r.Post("/work-stations/{id}/assignments", h.apiAssignProduct)
			r.Delete("/work-stations/{id}/assignments/{productID}", h.apiUnassignProduct)
		})
	})

	return r, h.hub.Close
}

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbErr := ""
	if err := h.engine.DB().PingContext(r.Context()); err != nil {
		status = "degraded"
		dbErr = err.Error()
	}
	h.jsonOK(w, map[string]any{
		"status":      status,
		"database":    h.engine.DB().Driver(),
		"dbError":     dbErr,
		"subscribers": h.hub.Len(),
	})
}
