package repository

import "novai-server/internal/domain/model"

// ConversationRepository holds the live per-user conversation window that
// feeds prompt context. It is in-process state: not persisted, lost on
// restart. Implementations retain at most a fixed number of recent entries
// per username, evicting the oldest first.
type ConversationRepository interface {
	Append(username string, entry model.Message)
	// Recent returns the last n entries in original insertion order, or
	// fewer if fewer exist.
	Recent(username string, n int) []model.Message
	// All returns the full retained window.
	All(username string) []model.Message
	Clear(username string)
}
