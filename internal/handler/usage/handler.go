package usage

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	quotaService "github.com/zhouzirui/cupid-agent/backend/internal/service/quota"
	"github.com/zhouzirui/cupid-agent/backend/pkg/utils"
)

// Handler exposes the advisory usage counter so a UI can render it.
type Handler struct {
	tracker *quotaService.Tracker
}

// New 创建用量处理器
func New(tracker *quotaService.Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// RegisterRoutes 注册用量相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/usage", h.handleUsage)
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.tracker.Snapshot())
}
