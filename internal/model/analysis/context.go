package analysis

import "strings"

// Language selects the output language for every generated field.
type Language string

const (
	LanguageJA Language = "ja"
	LanguageEN Language = "en"
)

// ParseLanguage normalizes the wire value; anything unrecognized falls back to Japanese,
// matching the product default.
func ParseLanguage(raw string) Language {
	if strings.EqualFold(strings.TrimSpace(raw), string(LanguageEN)) {
		return LanguageEN
	}
	return LanguageJA
}

// Context 为分析请求附带的背景信息。除 Language 外均为自由文本，可为空。
type Context struct {
	Goal     string   `json:"goal"`
	Relation string   `json:"relation"`
	Names    string   `json:"names"`
	Topic    string   `json:"topic"`
	Language Language `json:"language"`
}

// DefaultGoal returns the per-language fallback used when the caller supplies no goal.
func DefaultGoal(lang Language) string {
	if lang == LanguageEN {
		return "Keep Chatting"
	}
	return "雑談を続ける"
}

// Normalized returns a copy with the goal defaulted and whitespace trimmed.
// Empty relation/names/topic stay empty here; the prompt composer substitutes
// the unknown placeholder at render time.
func (c Context) Normalized() Context {
	out := Context{
		Goal:     strings.TrimSpace(c.Goal),
		Relation: strings.TrimSpace(c.Relation),
		Names:    strings.TrimSpace(c.Names),
		Topic:    strings.TrimSpace(c.Topic),
		Language: c.Language,
	}
	if out.Language != LanguageEN {
		out.Language = LanguageJA
	}
	if out.Goal == "" {
		out.Goal = DefaultGoal(out.Language)
	}
	return out
}
