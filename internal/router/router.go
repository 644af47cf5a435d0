package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studyhall-backend/internal/handlers"
	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	sessionHandler *handlers.SessionHandler,
	classroomHandler *handlers.ClassroomHandler,
	courseHandler *handlers.CourseHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/login", authHandler.Login)
		})

		// ──── Session Routes (student) ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.RequireRole(middleware.RoleStudent))
			r.Post("/home", sessionHandler.CreateHome)
			r.Get("/current", sessionHandler.Current)
			r.Get("/{id}", sessionHandler.Get)
			r.Post("/{id}/join", sessionHandler.Join)
			r.Post("/{id}/start", sessionHandler.Start)
			r.Post("/{id}/pause", sessionHandler.Pause)
			r.Post("/{id}/resume", sessionHandler.Resume)
			r.Post("/{id}/end", sessionHandler.End)
		})

		// ──── Course Prioritization Routes ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireRole(middleware.RoleStudent))
				r.Get("/ranked", courseHandler.Ranked)
				r.Get("/next", courseHandler.Next)
			})
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireRole(middleware.RoleClassManager))
				r.Post("/group-ranked", courseHandler.GroupRanked)
			})
		})

		// ──── Classroom Routes (class manager) ────
		r.Route("/classroom", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.RequireRole(middleware.RoleClassManager))
			r.Post("/sessions", classroomHandler.CreateSessions)
			r.Get("/sessions", classroomHandler.ListSessions)
			r.Post("/sessions/expire", classroomHandler.ExpireSessions)
			r.Post("/force-pause", classroomHandler.ForcePauseAll)
			r.Post("/force-resume", classroomHandler.ForceResumeAll)
			r.Post("/force-stop", classroomHandler.ForceStopAll)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
