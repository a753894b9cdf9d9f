package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yegors/skyplanner/internal/config"
	"github.com/yegors/skyplanner/internal/flightplan"
	"github.com/yegors/skyplanner/internal/websocket"
	"github.com/yegors/skyplanner/pkg/logger"
)

// Router builds the HTTP routing tree over the API handlers
type Router struct {
	handler *Handler
	config  *config.Config
	logger  *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(planService *flightplan.Service, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler: NewHandler(planService, cfg, log, wsServer),
		config:  cfg,
		logger:  log.Named("api-router"),
	}
}

// Routes returns the assembled chi router
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(r.corsMiddleware)

	router.Route("/api", func(api chi.Router) {
		api.Get("/platforms", r.handler.GetPlatforms)
		api.Post("/parse-position", r.handler.ParsePosition)

		api.Route("/plans", func(plans chi.Router) {
			plans.Get("/", r.handler.ListPlans)
			plans.Post("/", r.handler.CreatePlan)

			plans.Route("/{id}", func(plan chi.Router) {
				plan.Get("/", r.handler.GetPlan)
				plan.Put("/", r.handler.UpdatePlan)
				plan.Delete("/", r.handler.DeletePlan)

				plan.Get("/table", r.handler.GetTable)
				plan.Get("/trajectory", r.handler.GetTrajectory)

				plan.Post("/waypoints", r.handler.InsertWaypoint)
				plan.Put("/waypoints/{index}", r.handler.UpdateWaypoint)
				plan.Delete("/waypoints/{index}", r.handler.DeleteWaypoint)
			})
		})
	})

	router.Get("/ws", r.handler.HandleWebSocket)

	return router
}

// corsMiddleware applies the configured CORS policy
func (r *Router) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin != "" && r.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) originAllowed(origin string) bool {
	for _, allowed := range r.config.Server.CORSAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
