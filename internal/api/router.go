package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/", s.handleRoot)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", s.handleLive)
		r.Get("/ready", s.handleReady)
	})

	r.Route("/sensors", func(r chi.Router) {
		r.Get("/", s.handleListSensors)
		r.Post("/", s.handleCreateSensor)

		// Static segment must be registered alongside the {id} wildcard;
		// chi matches it first.
		r.Route("/by-sensorId/{sensorID}", func(r chi.Router) {
			r.Get("/", s.handleGetSensorBySensorID)
			r.Put("/", s.handleUpdateSensorBySensorID)
			r.Delete("/", s.handleDeleteSensorBySensorID)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSensor)
			r.Put("/", s.handleUpdateSensor)
			r.Delete("/", s.handleDeleteSensor)
		})
	})

	return r
}
