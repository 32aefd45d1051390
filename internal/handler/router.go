package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/cupid-agent/backend/internal/handler/analyze"
	"github.com/zhouzirui/cupid-agent/backend/internal/handler/transcript"
	"github.com/zhouzirui/cupid-agent/backend/internal/handler/usage"
	middlewarePkg "github.com/zhouzirui/cupid-agent/backend/internal/middleware"
	quotaService "github.com/zhouzirui/cupid-agent/backend/internal/service/quota"
	transcriptService "github.com/zhouzirui/cupid-agent/backend/internal/service/transcript"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(transcripts *transcriptService.Service, analyzer analyze.Analyzer, tracker *quotaService.Tracker) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Create handlers
	transcriptHandler := transcript.New(transcripts)
	analyzeHandler := analyze.New(analyzer, tracker, transcripts)
	usageHandler := usage.New(tracker)

	r.Route("/api", func(api chi.Router) {
		transcriptHandler.RegisterRoutes(api)
		analyzeHandler.RegisterRoutes(api)
		usageHandler.RegisterRoutes(api)
	})

	return r
}
