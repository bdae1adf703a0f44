package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"novai-server/internal/domain"
	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/adapter"
	"novai-server/internal/domain/ports/repository"
	"novai-server/internal/infra/logging"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// promptHistory is how many prior turns feed the prompt.
const promptHistory = 10

// ChatUseCase drives the live conversation: window bookkeeping plus the
// inference call.
type ChatUseCase interface {
	// SendMessage appends the user turn, asks the backend for a reply with
	// recent context, and appends the assistant turn on success. When the
	// backend fails, the user turn stays in the window and no assistant
	// turn is added; the adapter error is returned as-is.
	SendMessage(ctx context.Context, username, message string) (string, time.Time, error)
	// Conversation returns the full retained window for the user.
	Conversation(username string) []model.Message
	// Status reports inference backend reachability without sending a
	// message.
	Status(ctx context.Context) (adapter.BackendStatus, error)
}

type chatUC struct {
	conv repository.ConversationRepository
	ai   adapter.AIServiceAdapter
	log  *zerolog.Logger
}

func NewChatUseCase(conv repository.ConversationRepository, ai adapter.AIServiceAdapter, logger *zerolog.Logger) *chatUC {
	return &chatUC{conv: conv, ai: ai, log: logger}
}

func (c *chatUC) SendMessage(ctx context.Context, username, message string) (string, time.Time, error) {
	defer logging.TraceDuration(c.log, "ChatUC.SendMessage")()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", time.Time{}, domain.ErrInvalidArgument
	}

	// History is captured before the append so the new message appears in
	// the prompt exactly once, as the explicit user turn.
	history := c.conv.Recent(username, promptHistory)
	c.conv.Append(username, model.Message{Role: "user", Content: message, Timestamp: time.Now()})

	reply, err := c.ai.Generate(ctx, message, history)
	if err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("inference call failed")
		return "", time.Time{}, err
	}

	ts := time.Now()
	c.conv.Append(username, model.Message{Role: "assistant", Content: reply, Timestamp: ts})
	return reply, ts, nil
}

func (c *chatUC) Conversation(username string) []model.Message {
	return c.conv.All(username)
}

func (c *chatUC) Status(ctx context.Context) (adapter.BackendStatus, error) {
	defer logging.TraceDuration(c.log, "ChatUC.Status")()
	return c.ai.Status(ctx)
}
