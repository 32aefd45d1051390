package transcript

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/cupid-agent/backend/internal/model/analysis"
	"github.com/zhouzirui/cupid-agent/backend/internal/model/chat"
	transcriptService "github.com/zhouzirui/cupid-agent/backend/internal/service/transcript"
)

// maxUploadBytes bounds one staged message (text plus a single screenshot).
const maxUploadBytes = 16 << 20

// Handler 会话编辑器的HTTP处理器
type Handler struct {
	svc *transcriptService.Service
}

// New 创建会话处理器
func New(svc *transcriptService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/session/{sessionID}/messages", h.handleAddMessage)
	r.Delete("/session/{sessionID}/messages/{messageID}", h.handleDeleteMessage)
	r.Delete("/session/{sessionID}/messages", h.handleReset)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
}

// handleCreateSession 创建编辑会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.CreateSession(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// handleAddMessage 追加一条消息；文本与图片都为空时拒绝
func (h *Handler) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	sender := chat.Sender(r.FormValue("sender"))
	text := r.FormValue("text")

	image, err := readImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read attached image")
		return
	}

	message, err := h.svc.AddMessage(r.Context(), sessionID, sender, text, image)
	if err != nil {
		switch {
		case errors.Is(err, transcriptService.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, transcriptService.ErrInvalidSender),
			errors.Is(err, transcriptService.ErrEmptyMessage):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to add message")
		}
		return
	}

	respondJSON(w, http.StatusCreated, message)
}

// handleDeleteMessage 按 id 删除；不存在的 id 不算错误
func (h *Handler) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	messageID := chi.URLParam(r, "messageID")

	if err := h.svc.DeleteMessage(r.Context(), sessionID, messageID); err != nil {
		if errors.Is(err, transcriptService.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete message")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleReset 清空整个会话，必须带 confirm=true 二次确认
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if r.URL.Query().Get("confirm") != "true" {
		respondError(w, http.StatusBadRequest, "confirmation required to reset transcript")
		return
	}

	if err := h.svc.Reset(r.Context(), sessionID); err != nil {
		if errors.Is(err, transcriptService.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to reset transcript")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleTranscript 预览扁平化结果
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	lang := analysis.ParseLanguage(r.URL.Query().Get("language"))

	submission, err := h.svc.BuildSubmission(r.Context(), sessionID, lang)
	if err != nil {
		switch {
		case errors.Is(err, transcriptService.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, transcriptService.ErrEmptyTranscript):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to build transcript")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transcript": submission.Transcript,
		"imageCount": len(submission.Images),
	})
}

// readImage loads the optional single image file attached to a staged message.
func readImage(r *http.Request) (*chat.Attachment, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &chat.Attachment{
		Data:     data,
		MimeType: mimeType,
		Filename: header.Filename,
	}, nil
}

// respondJSON 发送JSON响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError 发送错误响应
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
