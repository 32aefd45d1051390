package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/cupid-agent/backend/internal/model/analysis"
	"github.com/zhouzirui/cupid-agent/backend/internal/model/chat"
	aiService "github.com/zhouzirui/cupid-agent/backend/internal/service/ai"
	transcriptService "github.com/zhouzirui/cupid-agent/backend/internal/service/transcript"
)

// maxUploadBytes bounds the multipart body (screenshots, not videos).
const maxUploadBytes = 32 << 20

// Analyzer runs one prompt-and-parse call against the provider.
type Analyzer interface {
	Analyze(ctx context.Context, req aiService.Request) (*analysis.Result, error)
}

// UsageLimiter gates analysis calls behind the advisory daily cap.
type UsageLimiter interface {
	IsLimitReached() bool
	Increment(ctx context.Context)
}

// Handler 分析接口的HTTP处理器
type Handler struct {
	analyzer    Analyzer
	limiter     UsageLimiter
	transcripts *transcriptService.Service
}

// New 创建分析处理器
func New(analyzer Analyzer, limiter UsageLimiter, transcripts *transcriptService.Service) *Handler {
	return &Handler{
		analyzer:    analyzer,
		limiter:     limiter,
		transcripts: transcripts,
	}
}

// RegisterRoutes 注册分析相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
	r.Post("/session/{sessionID}/analyze", h.handleSessionAnalyze)
}

// handleAnalyze 直接分析提交的文本与截图
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	text := r.FormValue("text")
	images, err := readImages(r.MultipartForm.File["image"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read attached image")
		return
	}

	if text == "" && len(images) == 0 {
		respondError(w, http.StatusBadRequest, "Text or image is required")
		return
	}

	h.run(w, r, aiService.Request{
		Text:    text,
		Images:  images,
		Context: contextFromForm(r),
	})
}

// handleSessionAnalyze 将会话内容扁平化后走同一条分析管线
func (h *Handler) handleSessionAnalyze(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actx := contextFromForm(r)
	submission, err := h.transcripts.BuildSubmission(r.Context(), sessionID, actx.Language)
	if err != nil {
		switch {
		case errors.Is(err, transcriptService.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, transcriptService.ErrEmptyTranscript):
			respondError(w, http.StatusBadRequest, "Text or image is required")
		default:
			respondError(w, http.StatusInternalServerError, "failed to build transcript")
		}
		return
	}

	h.run(w, r, aiService.Request{
		Text:    submission.Transcript,
		Images:  submission.Images,
		Context: actx,
	})
}

// run applies quota gating, invokes the provider, and increments usage on
// success only so failed calls never consume quota.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, req aiService.Request) {
	if h.limiter != nil && h.limiter.IsLimitReached() {
		respondError(w, http.StatusTooManyRequests, "Daily usage limit reached, try again tomorrow")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		status, message := mapAnalyzeError(err)
		log.Printf("[analyze] request failed: %v", err)
		respondError(w, status, message)
		return
	}

	if h.limiter != nil {
		h.limiter.Increment(r.Context())
	}
	respondJSON(w, http.StatusOK, result)
}

func mapAnalyzeError(err error) (int, string) {
	switch {
	case errors.Is(err, aiService.ErrEmptyInput):
		return http.StatusBadRequest, "Text or image is required"
	case errors.Is(err, aiService.ErrNotConfigured):
		return http.StatusInternalServerError, "Server Configuration Error: GEMINI_API_KEY is missing"
	case errors.Is(err, aiService.ErrNoStructuredContent), errors.Is(err, aiService.ErrMalformedResponse):
		return http.StatusInternalServerError, "Failed to parse AI response"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func contextFromForm(r *http.Request) analysis.Context {
	return analysis.Context{
		Goal:     r.FormValue("goal"),
		Relation: r.FormValue("relation"),
		Names:    r.FormValue("names"),
		Topic:    r.FormValue("topic"),
		Language: analysis.ParseLanguage(r.FormValue("language")),
	}.Normalized()
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

// readImages loads every uploaded file under the repeatable image field,
// preserving upload order.
func readImages(headers []*multipart.FileHeader) ([]chat.Attachment, error) {
	var images []chat.Attachment
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}

		images = append(images, chat.Attachment{
			Data:     data,
			MimeType: mimeType,
			Filename: header.Filename,
		})
	}
	return images, nil
}
