package transcript

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/cupid-agent/backend/internal/model/analysis"
	"github.com/zhouzirui/cupid-agent/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSender   = errors.New("sender must be me or partner")
	ErrEmptyMessage    = errors.New("message needs text or an image")
	ErrEmptyTranscript = errors.New("transcript has no messages")
)

// Submission is the flattened payload handed to the analysis pipeline:
// one line per message plus the attachments in message order.
type Submission struct {
	Transcript string
	Images     []chat.Attachment
}

// Service owns transcript-editing sessions. In-memory, single-writer per
// session from the client's point of view, guarded for concurrent requests.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
}

// NewService bootstraps the in-memory transcript service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
	}
}

// CreateSession provisions an anonymous editing session.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// AddMessage appends a staged turn. A message carrying neither trimmed text
// nor an image is rejected so the sequence stays unchanged.
func (s *Service) AddMessage(_ context.Context, sessionID string, sender chat.Sender, text string, image *chat.Attachment) (chat.Message, error) {
	if !sender.Valid() {
		return chat.Message{}, ErrInvalidSender
	}
	if strings.TrimSpace(text) == "" && (image == nil || len(image.Data) == 0) {
		return chat.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Text:      text,
		Image:     image,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], message)
	return message, nil
}

// DeleteMessage removes the message with the given id. A missing id is not
// an error; the sequence is simply left as it was.
func (s *Service) DeleteMessage(_ context.Context, sessionID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	for i, msg := range messages {
		if msg.ID == messageID {
			s.messages[sessionID] = append(messages[:i], messages[i+1:]...)
			return nil
		}
	}
	return nil
}

// Reset clears every message in the session. Destructive-action confirmation
// is the handler's job; the service just clears.
func (s *Service) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.messages[sessionID] = s.messages[sessionID][:0]
	return nil
}

// Messages returns a copy of the ordered message log.
func (s *Service) Messages(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// BuildSubmission flattens the session into the analysis payload.
// Fails when the session holds no messages.
func (s *Service) BuildSubmission(ctx context.Context, sessionID string, lang analysis.Language) (Submission, error) {
	messages, err := s.Messages(ctx, sessionID)
	if err != nil {
		return Submission{}, err
	}
	return Flatten(messages, lang)
}

// Flatten renders messages as `[label]: text` lines, tagging image-carrying
// turns with a localized marker, and collects attachments in message order.
func Flatten(messages []chat.Message, lang analysis.Language) (Submission, error) {
	if len(messages) == 0 {
		return Submission{}, ErrEmptyTranscript
	}

	var builder strings.Builder
	var images []chat.Attachment
	for i, msg := range messages {
		builder.WriteString("[")
		builder.WriteString(senderLabel(msg.Sender, lang))
		builder.WriteString("]: ")
		builder.WriteString(msg.Text)
		if msg.HasImage() {
			builder.WriteString(" ")
			builder.WriteString(imageMarker(lang))
			images = append(images, *msg.Image)
		}
		if i < len(messages)-1 {
			builder.WriteString("\n")
		}
	}

	return Submission{Transcript: builder.String(), Images: images}, nil
}

func senderLabel(sender chat.Sender, lang analysis.Language) string {
	if lang == analysis.LanguageEN {
		if sender == chat.SenderMe {
			return "Me"
		}
		return "Partner"
	}
	if sender == chat.SenderMe {
		return "自分"
	}
	return "相手"
}

func imageMarker(lang analysis.Language) string {
	if lang == analysis.LanguageEN {
		return "(Image Attached)"
	}
	return "(画像添付)"
}
