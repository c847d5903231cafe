package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/agent-chat/backend/internal/config"
	"github.com/zhouzirui/agent-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/agent-chat/backend/internal/handler/system"
	"github.com/zhouzirui/agent-chat/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/agent-chat/backend/internal/middleware"
	chatService "github.com/zhouzirui/agent-chat/backend/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, agentCfg config.AgentConfig, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(chatSvc)
	systemHandler := system.New(agentCfg)

	r.Get("/healthz", system.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		systemHandler.RegisterRoutes(api)
	})

	return r
}
