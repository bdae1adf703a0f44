package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"novai-server/internal/domain"
	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/repository"
	"novai-server/internal/infra/logging"
)

// Compile-time check
var _ TranscriptUseCase = (*transcriptUC)(nil)

// TranscriptUseCase manages a user's saved chats.
type TranscriptUseCase interface {
	Save(ctx context.Context, username, title string, messages []model.Message) (*model.Transcript, error)
	List(ctx context.Context, username string) ([]model.TranscriptSummary, error)
	Get(ctx context.Context, username, id string) (*model.Transcript, error)
	Rename(ctx context.Context, username, id, title string) (*model.Transcript, error)
	Delete(ctx context.Context, username, id string) error
}

type transcriptUC struct {
	transcripts repository.TranscriptRepository
	log         *zerolog.Logger
}

func NewTranscriptUseCase(transcripts repository.TranscriptRepository, logger *zerolog.Logger) *transcriptUC {
	return &transcriptUC{transcripts: transcripts, log: logger}
}

func (t *transcriptUC) Save(ctx context.Context, username, title string, messages []model.Message) (*model.Transcript, error) {
	defer logging.TraceDuration(t.log, "TranscriptUC.Save")()

	if strings.TrimSpace(title) == "" || messages == nil {
		return nil, domain.ErrInvalidArgument
	}
	tr := model.NewTranscript(title, messages)
	if err := t.transcripts.Save(ctx, username, tr); err != nil {
		return nil, err
	}
	t.log.Info().Str("username", username).Str("chat_id", tr.ID).Msg("chat saved")
	return tr, nil
}

func (t *transcriptUC) List(ctx context.Context, username string) ([]model.TranscriptSummary, error) {
	defer logging.TraceDuration(t.log, "TranscriptUC.List")()
	return t.transcripts.List(ctx, username)
}

func (t *transcriptUC) Get(ctx context.Context, username, id string) (*model.Transcript, error) {
	defer logging.TraceDuration(t.log, "TranscriptUC.Get")()
	return t.transcripts.Get(ctx, username, id)
}

func (t *transcriptUC) Rename(ctx context.Context, username, id, title string) (*model.Transcript, error) {
	defer logging.TraceDuration(t.log, "TranscriptUC.Rename")()

	if strings.TrimSpace(title) == "" {
		return nil, domain.ErrInvalidArgument
	}
	tr, err := t.transcripts.Get(ctx, username, id)
	if err != nil {
		return nil, err
	}
	tr.Rename(title)
	if err := t.transcripts.Update(ctx, username, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

func (t *transcriptUC) Delete(ctx context.Context, username, id string) error {
	defer logging.TraceDuration(t.log, "TranscriptUC.Delete")()
	return t.transcripts.Delete(ctx, username, id)
}
