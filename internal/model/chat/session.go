package chat

import "time"

// Session captures a transient anonymous transcript-editing session.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
