package memory

import (
	"sync"

	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/repository"
)

// DefaultWindow is how many recent entries are retained per username.
const DefaultWindow = 20

// Compile-time check
var _ repository.ConversationRepository = (*ConversationRepo)(nil)

// ConversationRepo keeps the live conversation window per username. It is
// deliberately in-process only: the window feeds prompt context and is
// expected to vanish on restart. Concurrent chats for the same username may
// interleave appends; the window stays bounded either way.
type ConversationRepo struct {
	mu     sync.Mutex
	window int
	byUser map[string][]model.Message
}

func NewConversationRepo(window int) *ConversationRepo {
	if window <= 0 {
		window = DefaultWindow
	}
	return &ConversationRepo{
		window: window,
		byUser: make(map[string][]model.Message),
	}
}

func (r *ConversationRepo) Append(username string, entry model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := append(r.byUser[username], entry)
	if len(msgs) > r.window {
		msgs = msgs[len(msgs)-r.window:]
	}
	r.byUser[username] = msgs
}

func (r *ConversationRepo) Recent(username string, n int) []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.byUser[username]
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}

func (r *ConversationRepo) All(username string) []model.Message {
	return r.Recent(username, 0)
}

func (r *ConversationRepo) Clear(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, username)
}
