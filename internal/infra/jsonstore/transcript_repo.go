package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"novai-server/internal/domain"
	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/repository"
	"novai-server/internal/infra/metrics"
)

// Compile-time check
var _ repository.TranscriptRepository = (*TranscriptRepo)(nil)

// TranscriptRepo persists saved chats as one JSON object mapping username to
// a newest-first list of transcripts, rewritten wholesale on every mutation.
type TranscriptRepo struct {
	path string
	mu   sync.Mutex
}

// NewTranscriptRepo creates the backing file with an empty map when absent.
func NewTranscriptRepo(path string) (*TranscriptRepo, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			return nil, fmt.Errorf("init chats file: %w", err)
		}
	}
	return &TranscriptRepo{path: path}, nil
}

func (r *TranscriptRepo) Save(ctx context.Context, username string, t *model.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readAll()
	if err != nil {
		return err
	}
	// Prepend: listings are newest first.
	chats[username] = append([]model.Transcript{*t}, chats[username]...)
	return r.writeAll(chats)
}

func (r *TranscriptRepo) List(ctx context.Context, username string) ([]model.TranscriptSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readAll()
	if err != nil {
		return nil, err
	}
	list := chats[username]
	summaries := make([]model.TranscriptSummary, 0, len(list))
	for i := range list {
		summaries = append(summaries, list[i].Summary())
	}
	return summaries, nil
}

func (r *TranscriptRepo) Get(ctx context.Context, username, id string) (*model.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for i := range chats[username] {
		if chats[username][i].ID == id {
			t := chats[username][i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *TranscriptRepo) Update(ctx context.Context, username string, t *model.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readAll()
	if err != nil {
		return err
	}
	for i := range chats[username] {
		if chats[username][i].ID == t.ID {
			chats[username][i] = *t
			return r.writeAll(chats)
		}
	}
	return domain.ErrNotFound
}

func (r *TranscriptRepo) Delete(ctx context.Context, username, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readAll()
	if err != nil {
		return err
	}
	list := chats[username]
	for i := range list {
		if list[i].ID == id {
			chats[username] = append(list[:i:i], list[i+1:]...)
			return r.writeAll(chats)
		}
	}
	return domain.ErrNotFound
}

func (r *TranscriptRepo) readAll() (map[string][]model.Transcript, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read chats file: %w", err)
	}
	chats := make(map[string][]model.Transcript)
	if err := json.Unmarshal(b, &chats); err != nil {
		return nil, fmt.Errorf("parse chats file: %w", err)
	}
	return chats, nil
}

func (r *TranscriptRepo) writeAll(chats map[string][]model.Transcript) error {
	b, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chats: %w", err)
	}
	if err := os.WriteFile(r.path, b, 0o600); err != nil {
		return fmt.Errorf("write chats file: %w", err)
	}
	metrics.IncStoreWrite("chats")
	return nil
}
