// Package transcript keeps the append-only conversation log for a session.
//
// The transcript is the source of truth for everything the user and the
// assistant said, including slash commands and their responses. Export
// produces a self-contained JSON document suitable for download from the
// dashboard.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// Export is the JSON document produced by Transcript.Export.
type Export struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Messages   []models.Message `json:"messages"`
}

// Transcript is a mutex-guarded append-only message log. The zero value is
// not usable; use New.
type Transcript struct {
	mu       sync.Mutex
	messages []models.Message
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Append validates and appends a message, assigning an ID and timestamp when
// the caller left them zero. The stored message is returned.
func (t *Transcript) Append(msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if err := msg.Validate(); err != nil {
		slog.Warn("Transcript.Append: rejected message", "error", err, "role", msg.Role)
		return models.Message{}, fmt.Errorf("appending transcript message: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	slog.Debug("Transcript.Append: message stored", "id", msg.ID, "role", msg.Role, "total", len(t.messages))
	return msg, nil
}

// All returns a copy of the log in append order.
func (t *Transcript) All() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len reports the number of stored messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Export serializes the full transcript with an export timestamp. Timestamps
// marshal as RFC 3339 via the standard time.Time encoding.
func (t *Transcript) Export() ([]byte, error) {
	doc := Export{
		ExportedAt: time.Now().UTC(),
		Messages:   t.All(),
	}
	if doc.Messages == nil {
		doc.Messages = []models.Message{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exporting transcript: %w", err)
	}
	slog.Debug("Transcript.Export: serialized", "messages", len(doc.Messages), "bytes", len(data))
	return data, nil
}
