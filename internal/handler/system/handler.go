package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/agent-chat/backend/internal/config"
	"github.com/zhouzirui/agent-chat/backend/internal/service/agent"
	"github.com/zhouzirui/agent-chat/backend/pkg/utils"
)

// Handler 暴露运行配置与健康检查
type Handler struct {
	agentCfg config.AgentConfig
}

// New 创建系统处理器
func New(agentCfg config.AgentConfig) *Handler {
	return &Handler{agentCfg: agentCfg}
}

// RegisterRoutes 注册 /api 下的配置路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/config", h.handleConfig)
}

// ConfigStatus 描述当前 agent 接入状态
type ConfigStatus struct {
	UseRealAgent   bool   `json:"use_real_agent"`
	TSAgentPath    string `json:"ts_agent_path"`
	AgentAvailable bool   `json:"agent_available"`
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, ConfigStatus{
		UseRealAgent:   h.agentCfg.UseReal,
		TSAgentPath:    h.agentCfg.Path,
		AgentAvailable: agent.Available(h.agentCfg),
	})
}

// Health 返回存活探针
func Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
