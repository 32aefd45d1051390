package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/cupid-agent/backend/internal/model/analysis"
)

// unknownPlaceholder stands in for context fields the user left blank.
const unknownPlaceholder = "不明"

// BuildSystemPrompt renders the single instruction block sent ahead of the
// transcript: persona, embedded expert knowledge, the four context fields,
// the pure-JSON output contract, and the output-language requirement.
func BuildSystemPrompt(actx analysis.Context) string {
	actx = actx.Normalized()

	outputLanguage := "日本語 (Japanese)"
	if actx.Language == analysis.LanguageEN {
		outputLanguage = "英語 (English)"
	}

	var b strings.Builder
	b.WriteString("あなたは恋愛心理学のプロフェッショナル「Cupid Agent」です。\n\n")
	b.WriteString(expertKnowledge)
	b.WriteString("\n\n## 分析対象のコンテキスト\n")
	fmt.Fprintf(&b, "- **ユーザーの目標**: %s\n", actx.Goal)
	fmt.Fprintf(&b, "- **二人の関係性/背景**: %s\n", orUnknown(actx.Relation))
	fmt.Fprintf(&b, "- **呼び方 (自分/相手)**: %s\n", orUnknown(actx.Names))
	fmt.Fprintf(&b, "- **現在の話題**: %s\n", orUnknown(actx.Topic))
	b.WriteString(`
提供されたチャットの履歴（テキストまたは画像）を分析し、以下の情報をJSON形式で出力してください。

必ず純粋なJSONのみを出力してください。Markdownのコードブロックや説明文は一切不要です。

アドバイスセクションでは、提供された「専門知識」に含まれる心理学用語や法則（例：ベン・フランクリン効果、ハイパーパーソナル・モデルなど）を**必ず1つ以上**引用して、なぜそのアドバイスになるのかを論理的に解説してください。
`)
	fmt.Fprintf(&b, "\n重要: 分析結果、サジェスト、アドバイスのすべてにおいて、必ず「%s」で出力してください。\n", outputLanguage)
	b.WriteString(`
出力スキーマ:
{
  "score": number, // 0-100 (脈あり度総合指標: 他の5つの軸を統合した、最終的な期待値)
  "metrics": {
    "enthusiasm": number, // 0-100 (熱量・積極性: 返信速度、メッセージの平均文字数、スタンプの頻度)
    "synchronicity": number, // 0-100 (同調性・波長の一致: 語尾、絵文字の傾向、返信のリズムの類似性)
    "balance": number, // 0-100 (均衡度・関係の健全性: 送信比率が5:5に近いか、一方が追いかけていないか)
    "future": number, // 0-100 (未来志向・進展可能性: 「今度」「行きたい」「楽しみ」など、次回の接触への言及)
    "intimacy": number // 0-100 (親密度・精神的距離: 事務連絡ではなく、悩み相談や過去の話など「自己開示」の深さ)
  },
  "analysis": string,
  "suggestions": [
    // 以下の3つのタイプの返信案を必ず提案すること
    { "type": "攻め（好意を伝える）", "text": string, "explanation": string },
    { "type": "バランス（相手に合わせる）", "text": string, "explanation": string },
    { "type": "引き（あえて引く/質問する）", "text": string, "explanation": string }
  ],
  "advice": string // 専門知識・心理学に基づいた詳細な戦略アドバイス（300文字程度）
}`)

	return b.String()
}

// TranscriptPart renders the transcript segment appended after the
// instruction block. Empty when the submission is image-only.
func TranscriptPart(transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return ""
	}
	return "\n\nチャットテキスト:\n" + transcript
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return unknownPlaceholder
	}
	return value
}
