package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"google.golang.org/genai"

	"github.com/zhouzirui/cupid-agent/backend/internal/config"
	"github.com/zhouzirui/cupid-agent/backend/internal/model/analysis"
	"github.com/zhouzirui/cupid-agent/backend/internal/model/chat"
)

var (
	// ErrNotConfigured 表示缺少 GEMINI_API_KEY，请求时才报告，不阻止进程启动。
	ErrNotConfigured = errors.New("GEMINI_API_KEY is missing")
	// ErrEmptyInput means there was neither transcript text nor an image to analyze.
	ErrEmptyInput = errors.New("text or image is required")
)

// Request bundles everything one analysis call needs.
type Request struct {
	Text    string
	Images  []chat.Attachment
	Context analysis.Context
}

// Service runs the prompt-and-parse contract against Gemini.
type Service struct {
	cfg config.AIConfig

	mu     sync.Mutex
	client *genai.Client
}

// NewService creates the analysis service. The provider client is created
// lazily so a missing credential surfaces per request, never at boot.
func NewService(cfg config.AIConfig) *Service {
	return &Service{cfg: cfg}
}

// Analyze composes the instruction block, forwards text and images to the
// provider, and parses the structured result out of the free-text response.
func (s *Service) Analyze(ctx context.Context, req Request) (*analysis.Result, error) {
	hasText := req.Text != ""
	if !hasText && len(req.Images) == 0 {
		return nil, ErrEmptyInput
	}
	if !s.cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create provider client: %w", err)
	}

	parts := []*genai.Part{genai.NewPartFromText(BuildSystemPrompt(req.Context))}
	if segment := TranscriptPart(req.Text); segment != "" {
		parts = append(parts, genai.NewPartFromText(segment))
	}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{}
	if s.cfg.Temperature != nil {
		genCfg.Temperature = genai.Ptr(float32(*s.cfg.Temperature))
	}
	if s.cfg.MaxTokens != nil {
		genCfg.MaxOutputTokens = int32(*s.cfg.MaxTokens)
	}

	resp, err := client.Models.GenerateContent(ctx, s.cfg.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	raw := resp.Text()
	result, err := ParseResult(raw)
	if err != nil {
		// Raw text stays in the server log for diagnostics only.
		log.Printf("[ai] unparseable provider response: %v, raw=%q", err, raw)
		return nil, err
	}

	log.Printf("[ai] analysis complete, score=%d, images=%d", result.Score, len(req.Images))
	return result, nil
}

func (s *Service) getClient(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: s.cfg.APIKey})
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}
