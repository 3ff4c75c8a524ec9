package notifications

import "strings"

// Payload is a generic user-facing notification payload.
type Payload struct {
	Title   string
	Content string
}

// Normalized trims both fields; ok is false when nothing is left to show.
func (p Payload) Normalized() (Payload, bool) {
	p.Title = strings.TrimSpace(p.Title)
	p.Content = strings.TrimSpace(p.Content)

	return p, p.Title != "" || p.Content != ""
}

// Sender sends notifications using a platform-specific backend.
type Sender interface {
	Send(payload Payload)
}
