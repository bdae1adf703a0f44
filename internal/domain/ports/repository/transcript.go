package repository

import (
	"context"

	"novai-server/internal/domain/model"
)

// TranscriptRepository persists saved chats per username, newest first.
// Every operation is scoped to the owning username; lookups for another
// user's transcript id behave as a miss.
type TranscriptRepository interface {
	// Save prepends the transcript to the user's list.
	Save(ctx context.Context, username string, t *model.Transcript) error
	// List returns summaries in stored (newest-first) order.
	List(ctx context.Context, username string) ([]model.TranscriptSummary, error)
	// Get returns domain.ErrNotFound on a miss.
	Get(ctx context.Context, username, id string) (*model.Transcript, error)
	// Update replaces the stored transcript with the same id.
	Update(ctx context.Context, username string, t *model.Transcript) error
	// Delete returns domain.ErrNotFound when the id is absent; the store is
	// left unchanged in that case.
	Delete(ctx context.Context, username, id string) error
}
