package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
// Paths mirror the client application's expectations, so there is no
// version prefix.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Account creation and login (no auth required)
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)

	// Stored avatars (no auth required; paths are unguessable)
	r.Handle(s.uploads.PublicPath+"/*",
		http.StripPrefix(s.uploads.PublicPath+"/", http.FileServer(http.Dir(s.uploads.Dir))))

	// WebSocket event stream (auth via token query parameter, validated in handler)
	r.Get("/ws", s.handleWebSocket)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/user", func(r chi.Router) {
			r.Get("/me", s.handleGetMe)
			r.Put("/me", s.handleUpdateMe)
			r.Post("/avatar", s.handleUploadAvatar)
			r.Delete("/avatar", s.handleDeleteAvatar)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleDevices)
			r.Post("/register", s.handleRegisterDevice)
			r.Get("/status", s.handleDeviceStatus)
			r.Delete("/delete", s.handleDeleteDevice)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
