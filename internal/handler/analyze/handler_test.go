package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/cupid-agent/backend/internal/model/analysis"
	"github.com/zhouzirui/cupid-agent/backend/internal/model/chat"
	aiService "github.com/zhouzirui/cupid-agent/backend/internal/service/ai"
	transcriptService "github.com/zhouzirui/cupid-agent/backend/internal/service/transcript"
)

type stubAnalyzer struct {
	lastReq aiService.Request
	result  *analysis.Result
	err     error
	calls   int
}

func (s *stubAnalyzer) Analyze(_ context.Context, req aiService.Request) (*analysis.Result, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubLimiter struct {
	limited    bool
	increments int
}

func (s *stubLimiter) IsLimitReached() bool        { return s.limited }
func (s *stubLimiter) Increment(_ context.Context) { s.increments++ }

func validResult() *analysis.Result {
	return &analysis.Result{
		Score: 72,
		Metrics: analysis.Metrics{
			Enthusiasm:    80,
			Synchronicity: 65,
			Balance:       70,
			Future:        75,
			Intimacy:      60,
		},
		Analysis: "analysis text",
		Suggestions: []analysis.Suggestion{
			{Type: "攻め（好意を伝える）", Text: "a", Explanation: "x"},
			{Type: "バランス（相手に合わせる）", Text: "b", Explanation: "y"},
			{Type: "引き（あえて引く/質問する）", Text: "c", Explanation: "z"},
		},
		Advice: "advice text",
	}
}

func setupRouter(analyzer Analyzer, limiter UsageLimiter, transcripts *transcriptService.Service) *chi.Mux {
	handler := New(analyzer, limiter, transcripts)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, imageNames []string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField err: %v", err)
		}
	}
	for _, name := range imageNames {
		part, err := writer.CreateFormFile("image", name)
		if err != nil {
			t.Fatalf("CreateFormFile err: %v", err)
		}
		part.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestAnalyzeSuccess(t *testing.T) {
	analyzer := &stubAnalyzer{result: validResult()}
	limiter := &stubLimiter{}
	r := setupRouter(analyzer, limiter, transcriptService.NewService())

	body, contentType := multipartBody(t, map[string]string{
		"text":     "[Partner]: How's your weekend?\n[Me]: Good! Going hiking",
		"goal":     "Keep Chatting",
		"language": "en",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result analysis.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(result.Suggestions))
	}
	for _, m := range []int{
		result.Metrics.Enthusiasm, result.Metrics.Synchronicity,
		result.Metrics.Balance, result.Metrics.Future, result.Metrics.Intimacy,
	} {
		if m < 0 || m > 100 {
			t.Fatalf("metric out of range: %d", m)
		}
	}

	if analyzer.lastReq.Context.Goal != "Keep Chatting" {
		t.Fatalf("goal not forwarded: %+v", analyzer.lastReq.Context)
	}
	if analyzer.lastReq.Context.Language != analysis.LanguageEN {
		t.Fatalf("language not forwarded: %v", analyzer.lastReq.Context.Language)
	}
	if limiter.increments != 1 {
		t.Fatalf("expected exactly one increment, got %d", limiter.increments)
	}
}

func TestAnalyzeMissingInput(t *testing.T) {
	analyzer := &stubAnalyzer{result: validResult()}
	limiter := &stubLimiter{}
	r := setupRouter(analyzer, limiter, transcriptService.NewService())

	body, contentType := multipartBody(t, map[string]string{"text": ""}, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var payload map[string]string
	json.NewDecoder(resp.Body).Decode(&payload)
	if payload["error"] != "Text or image is required" {
		t.Fatalf("unexpected error message: %q", payload["error"])
	}
	if analyzer.calls != 0 {
		t.Fatal("provider must not be called without input")
	}
	if limiter.increments != 0 {
		t.Fatal("quota must not be consumed without input")
	}
}

func TestAnalyzeImageOnly(t *testing.T) {
	analyzer := &stubAnalyzer{result: validResult()}
	r := setupRouter(analyzer, &stubLimiter{}, transcriptService.NewService())

	body, contentType := multipartBody(t, map[string]string{"language": "ja"}, []string{"chat.png"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(analyzer.lastReq.Images) != 1 {
		t.Fatalf("expected 1 image forwarded, got %d", len(analyzer.lastReq.Images))
	}
}

func TestAnalyzeMultipleImagesForwardedInOrder(t *testing.T) {
	analyzer := &stubAnalyzer{result: validResult()}
	r := setupRouter(analyzer, &stubLimiter{}, transcriptService.NewService())

	body, contentType := multipartBody(t, nil, []string{"first.png", "second.png"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	images := analyzer.lastReq.Images
	if len(images) != 2 || images[0].Filename != "first.png" || images[1].Filename != "second.png" {
		t.Fatalf("images not forwarded in order: %+v", images)
	}
}

func TestAnalyzeQuotaReached(t *testing.T) {
	analyzer := &stubAnalyzer{result: validResult()}
	limiter := &stubLimiter{limited: true}
	r := setupRouter(analyzer, limiter, transcriptService.NewService())

	body, contentType := multipartBody(t, map[string]string{"text": "hello"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if analyzer.calls != 0 {
		t.Fatal("provider must not be called when limit is reached")
	}
	if limiter.increments != 0 {
		t.Fatal("blocked request must not consume quota")
	}
}

func TestAnalyzeParseFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: aiService.ErrNoStructuredContent}
	limiter := &stubLimiter{}
	r := setupRouter(analyzer, limiter, transcriptService.NewService())

	body, contentType := multipartBody(t, map[string]string{"text": "hello"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	var payload map[string]string
	json.NewDecoder(resp.Body).Decode(&payload)
	if payload["error"] != "Failed to parse AI response" {
		t.Fatalf("unexpected error message: %q", payload["error"])
	}
	if limiter.increments != 0 {
		t.Fatal("failed call must not consume quota")
	}
}

func TestAnalyzeMissingCredential(t *testing.T) {
	analyzer := &stubAnalyzer{err: aiService.ErrNotConfigured}
	r := setupRouter(analyzer, &stubLimiter{}, transcriptService.NewService())

	body, contentType := multipartBody(t, map[string]string{"text": "hello"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var payload map[string]string
	json.NewDecoder(resp.Body).Decode(&payload)
	if !strings.Contains(payload["error"], "GEMINI_API_KEY is missing") {
		t.Fatalf("unexpected error message: %q", payload["error"])
	}
}

func TestSessionAnalyzeFlow(t *testing.T) {
	analyzer := &stubAnalyzer{result: validResult()}
	limiter := &stubLimiter{}
	transcripts := transcriptService.NewService()
	r := setupRouter(analyzer, limiter, transcripts)

	ctx := context.Background()
	session, err := transcripts.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	transcripts.AddMessage(ctx, session.ID, chat.SenderPartner, "How's your weekend?", nil)
	transcripts.AddMessage(ctx, session.ID, chat.SenderMe, "Good! Going hiking", nil)

	form := strings.NewReader("goal=Keep+Chatting&language=en")
	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/analyze", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	want := "[Partner]: How's your weekend?\n[Me]: Good! Going hiking"
	if analyzer.lastReq.Text != want {
		t.Fatalf("unexpected flattened transcript:\ngot  %q\nwant %q", analyzer.lastReq.Text, want)
	}
	if limiter.increments != 1 {
		t.Fatalf("expected one increment, got %d", limiter.increments)
	}

	// Messages survive a successful analysis; clearing is the caller's choice.
	messages, _ := transcripts.Messages(ctx, session.ID)
	if len(messages) != 2 {
		t.Fatalf("messages should be preserved, got %d", len(messages))
	}
}

func TestSessionAnalyzeEmptySession(t *testing.T) {
	analyzer := &stubAnalyzer{result: validResult()}
	transcripts := transcriptService.NewService()
	r := setupRouter(analyzer, &stubLimiter{}, transcripts)

	session, _ := transcripts.CreateSession(context.Background())

	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/analyze", strings.NewReader("language=en"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if analyzer.calls != 0 {
		t.Fatal("provider must not be called for an empty session")
	}
}

func TestSessionAnalyzeUnknownSession(t *testing.T) {
	r := setupRouter(&stubAnalyzer{result: validResult()}, &stubLimiter{}, transcriptService.NewService())

	req := httptest.NewRequest(http.MethodPost, "/session/missing/analyze", strings.NewReader("language=ja"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
