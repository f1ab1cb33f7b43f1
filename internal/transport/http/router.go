package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"vocab-quiz-service/internal/metrics"
)

// NewRouter mounts the health, metrics, websocket and REST endpoints.
func NewRouter(ws *WSHandler, api *APIHandlers, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/leaderboard", api.GetLeaderboard)
		r.Get("/leaderboard/{userID}", api.GetPlayerStats)

		r.Route("/wordlists", func(r chi.Router) {
			r.Get("/", api.ListPublicWordLists)
			r.Post("/", api.CreateWordList)
			r.Get("/mine", api.ListMyWordLists)
			r.Get("/{id}", api.GetWordList)
			r.Put("/{id}", api.UpdateWordList)
			r.Delete("/{id}", api.DeleteWordList)
		})

		r.Get("/users/{userID}/progress", api.GetProgress)
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
