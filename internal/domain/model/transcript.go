package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxTitleLen bounds transcript titles on save and rename.
const MaxTitleLen = 100

// Message is one turn inside a saved transcript or the live conversation
// window.
type Message struct {
	Role      string    `json:"role"` // "user" | "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is a user-saved, named snapshot of a conversation. It is
// distinct from the live in-memory window: a transcript only exists because
// the user explicitly saved it.
type Transcript struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TranscriptSummary is the listing view: metadata only, message bodies
// omitted for transfer efficiency.
type TranscriptSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

func NewTranscript(title string, messages []Message) *Transcript {
	now := time.Now()
	return &Transcript{
		ID:        uuid.NewString(),
		Title:     TruncateTitle(title),
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Rename sets a truncated title and refreshes UpdatedAt.
func (t *Transcript) Rename(title string) {
	t.Title = TruncateTitle(title)
	t.UpdatedAt = time.Now()
}

func (t *Transcript) Summary() TranscriptSummary {
	return TranscriptSummary{
		ID:           t.ID,
		Title:        t.Title,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		MessageCount: len(t.Messages),
	}
}

// TruncateTitle cuts at MaxTitleLen runes, not bytes, so multibyte titles
// stay valid UTF-8.
func TruncateTitle(title string) string {
	r := []rune(title)
	if len(r) <= MaxTitleLen {
		return title
	}
	return string(r[:MaxTitleLen])
}
