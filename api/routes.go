package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// requestLogger logs every request through logrus once it has been served
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		entry := log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start),
			"requestID": middleware.GetReqID(r.Context()),
		})
		if ww.Status() >= http.StatusInternalServerError {
			entry.Warn("HTTP request")
			return
		}
		entry.Debug("HTTP request")
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/prizes", h.handleListPrizes)
		r.Get("/reports/prizes", h.handlePrizeReport)

		r.Post("/participants", h.handleRegisterParticipant)
		r.Route("/participants/{identity}", func(r chi.Router) {
			r.Get("/", h.handleGetParticipant)
			r.Get("/prize", h.handleGetPrize)
			r.Post("/draws", h.handleDraw)
			r.Get("/events", h.handleParticipantEvents)
		})

		r.Post("/sessions", h.handleOpenSession)
		r.Get("/sessions/{id}", h.handleGetSession)
		r.Post("/sessions/{id}/spin", h.handleSpin)
	})

	return r
}
