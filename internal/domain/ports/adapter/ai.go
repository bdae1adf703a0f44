package adapter

import (
	"context"

	"novai-server/internal/domain/model"
)

// BackendStatus describes the reachability of the inference backend and the
// availability of the configured model, as reported by its model-listing
// endpoint.
type BackendStatus struct {
	Running         bool
	Model           string
	ModelAvailable  bool
	AvailableModels []string
}

// AIServiceAdapter is the port for the local LLM inference backend.
type AIServiceAdapter interface {
	// Status probes the model-listing endpoint with a short timeout.
	Status(ctx context.Context) (BackendStatus, error)

	// ListModels returns the model names the backend currently serves.
	ListModels(ctx context.Context) ([]string, error)

	// Generate answers message given the recent conversation history and
	// returns only the assistant text. Failures are one of the adapter
	// error kinds (backend unavailable, model missing, timeout, invalid
	// response), each carrying a remediation hint.
	Generate(ctx context.Context, message string, history []model.Message) (string, error)
}
