package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/datachat/internal/middleware"
	"github.com/zhouzirui/datachat/internal/service/session"
	"github.com/zhouzirui/datachat/internal/service/surface"
	"github.com/zhouzirui/datachat/pkg/utils"
)

const maxChatBody = 64 << 10

// Handler exposes the session state as JSON.
type Handler struct {
	svc       *surface.Service
	maxUpload int64
}

// New 创建 JSON 接口处理器
func New(svc *surface.Service, maxUpload int64) *Handler {
	return &Handler{svc: svc, maxUpload: maxUpload}
}

// RegisterRoutes 注册接口路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/state", h.handleState)
	r.Get("/history", h.handleHistory)
	r.Post("/upload", h.handleUpload)
	r.Post("/chat", h.handleChat)
	r.Get("/prompt", h.handlePrompt)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Snapshot(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, v)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r.Context())
	entries, err := h.svc.History(r.Context(), id)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": id,
		"entries":   entries,
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, err := utils.ReadUpload(w, r, "file", h.maxUpload)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	v, err := h.svc.Upload(r.Context(), middleware.SessionID(r.Context()), name, data)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, v)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := utils.DecodeJSON(w, r, maxChatBody, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := h.svc.Chat(r.Context(), middleware.SessionID(r.Context()), payload.Message)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	reply := ""
	if n := len(v.Transcript); n > 0 {
		reply = v.Transcript[n-1].Content
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"reply": reply,
		"state": v,
	})
}

func (h *Handler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	prompt, err := h.svc.Prompt(r.Context(), middleware.SessionID(r.Context()), message)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, surface.ErrChatDisabled):
		return http.StatusConflict
	case errors.Is(err, utils.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, surface.ErrEmptyMessage),
		errors.Is(err, surface.ErrUnsupportedFile),
		errors.Is(err, utils.ErrMissingFile),
		errors.Is(err, utils.ErrInvalidForm):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
