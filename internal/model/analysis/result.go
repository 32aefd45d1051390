package analysis

import (
	"fmt"
	"strings"
)

// SuggestionCount is fixed by the prompt contract: one reply per strategy.
const SuggestionCount = 3

// Metrics carries the five radar axes, each 0-100.
type Metrics struct {
	Enthusiasm    int `json:"enthusiasm"`
	Synchronicity int `json:"synchronicity"`
	Balance       int `json:"balance"`
	Future        int `json:"future"`
	Intimacy      int `json:"intimacy"`
}

// Suggestion is one proposed reply, tagged with its strategy label.
type Suggestion struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
}

// Result is the structured assessment returned by the provider.
// The server validates it strictly before handing it to any caller.
type Result struct {
	Score       int          `json:"score"`
	Metrics     Metrics      `json:"metrics"`
	Analysis    string       `json:"analysis"`
	Suggestions []Suggestion `json:"suggestions"`
	Advice      string       `json:"advice"`
}

// Validate enforces the schema the prompt demands: every score in [0,100],
// exactly three non-empty suggestions, non-empty analysis and advice.
func (r *Result) Validate() error {
	if err := checkRange("score", r.Score); err != nil {
		return err
	}
	metricChecks := []struct {
		name  string
		value int
	}{
		{"metrics.enthusiasm", r.Metrics.Enthusiasm},
		{"metrics.synchronicity", r.Metrics.Synchronicity},
		{"metrics.balance", r.Metrics.Balance},
		{"metrics.future", r.Metrics.Future},
		{"metrics.intimacy", r.Metrics.Intimacy},
	}
	for _, m := range metricChecks {
		if err := checkRange(m.name, m.value); err != nil {
			return err
		}
	}

	if strings.TrimSpace(r.Analysis) == "" {
		return fmt.Errorf("analysis is empty")
	}
	if strings.TrimSpace(r.Advice) == "" {
		return fmt.Errorf("advice is empty")
	}

	if len(r.Suggestions) != SuggestionCount {
		return fmt.Errorf("expected %d suggestions, got %d", SuggestionCount, len(r.Suggestions))
	}
	for i, s := range r.Suggestions {
		if strings.TrimSpace(s.Type) == "" {
			return fmt.Errorf("suggestion %d has empty type", i)
		}
		if strings.TrimSpace(s.Text) == "" {
			return fmt.Errorf("suggestion %d has empty text", i)
		}
	}

	return nil
}

func checkRange(name string, value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%s out of range: %d", name, value)
	}
	return nil
}
