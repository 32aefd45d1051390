package chat

import "time"

// Sender identifies which side of the conversation wrote a message.
type Sender string

const (
	SenderMe      Sender = "me"
	SenderPartner Sender = "partner"
)

// Valid reports whether the sender is one of the two known sides.
func (s Sender) Valid() bool {
	return s == SenderMe || s == SenderPartner
}

// Attachment 保存随消息上传的截图原始字节。
type Attachment struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename,omitempty"`
}

// Message is a single staged chat turn. Immutable after creation except deletion.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId"`
	Sender    Sender      `json:"sender"`
	Text      string      `json:"text"`
	Image     *Attachment `json:"image,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// HasImage reports whether the message carries an attachment with actual bytes.
func (m Message) HasImage() bool {
	return m.Image != nil && len(m.Image.Data) > 0
}
