package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	chatService "github.com/zhouzirui/agent-chat/backend/internal/service/chat"
	"github.com/zhouzirui/agent-chat/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册会话与聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Post("/sessions", h.handleCreateSession)
	r.Put("/sessions/{sessionID}", h.handleRenameSession)
	r.Delete("/sessions/{sessionID}", h.handleDeleteSession)
	r.Get("/history/{sessionID}", h.handleGetHistory)
	r.Post("/chat", h.handleChat)
}

type sessionNamePayload struct {
	Name *string `json:"name"`
}

type chatPayload struct {
	Query     *string `json:"query"`
	SessionID *string `json:"session_id"`
}

// handleListSessions 按创建时间倒序列出会话
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatSvc.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sessions)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload sessionNamePayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name == nil {
		utils.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), *payload.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleRenameSession 重命名会话
func (h *Handler) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var payload sessionNamePayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name == nil {
		utils.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}

	session, err := h.chatSvc.RenameSession(r.Context(), chi.URLParam(r, "sessionID"), *payload.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleDeleteSession 删除会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Session deleted"})
}

// handleGetHistory 返回会话消息
func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.GetHistory(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleChat 执行一次聊天轮次
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Query == nil || payload.SessionID == nil {
		utils.RespondError(w, http.StatusBadRequest, "query and session_id are required")
		return
	}

	turn, err := h.chatSvc.Chat(r.Context(), *payload.SessionID, *payload.Query)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}

	log.Error().Err(err).Msg("chat request failed")
	utils.RespondError(w, http.StatusInternalServerError, "internal error")
}
