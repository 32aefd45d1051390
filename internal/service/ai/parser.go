package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zhouzirui/cupid-agent/backend/internal/model/analysis"
)

var (
	// ErrNoStructuredContent means the raw response contained no {...} span at all.
	ErrNoStructuredContent = errors.New("no structured content found in response")
	// ErrMalformedResponse means a candidate span existed but was not the expected JSON.
	ErrMalformedResponse = errors.New("malformed AI response")
)

// extractJSON locates the first '{' and the last '}' and returns the span
// between them. Providers wrap JSON in prose or code fences despite
// instructions; this tolerates both.
func extractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return "", ErrNoStructuredContent
	}
	return trimmed[start : end+1], nil
}

// ParseResult turns the provider's free-text response into a validated Result.
// The raw text never travels past this package on failure; callers log it.
func ParseResult(raw string) (*analysis.Result, error) {
	candidate, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	result := &analysis.Result{}
	if err := json.Unmarshal([]byte(candidate), result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return result, nil
}
