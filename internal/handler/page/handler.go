package page

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/datachat/internal/middleware"
	"github.com/zhouzirui/datachat/internal/service/session"
	"github.com/zhouzirui/datachat/internal/service/surface"
	"github.com/zhouzirui/datachat/internal/view"
	"github.com/zhouzirui/datachat/pkg/utils"
)

// Handler 渲染完整页面并处理表单提交
type Handler struct {
	svc       *surface.Service
	renderer  *view.Renderer
	maxUpload int64
}

// New 创建页面处理器
func New(svc *surface.Service, renderer *view.Renderer, maxUpload int64) *Handler {
	return &Handler{svc: svc, renderer: renderer, maxUpload: maxUpload}
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/upload", h.handleUpload)
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Snapshot(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Page(w, v); err != nil {
		log.Printf("[page] render failed: %v", err)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, err := utils.ReadUpload(w, r, "file", h.maxUpload)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	if _, err := h.svc.Upload(r.Context(), middleware.SessionID(r.Context()), name, data); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Chat(r.Context(), middleware.SessionID(r.Context()), r.FormValue("message")); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
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
		// 其余错误来自模型调用
		return http.StatusBadGateway
	}
}
