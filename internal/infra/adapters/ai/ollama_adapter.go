package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/adapter"
	"novai-server/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*OllamaAdapter)(nil)

const systemPreamble = "You are NovAI, a friendly and helpful virtual assistant. " +
	"Reply naturally and conversationally. Be concise but complete.\n\n"

// OllamaAdapter implements the AI port against a locally running Ollama
// server: GET /api/tags for the model listing and POST /api/generate for
// non-streaming completions. Every call probes the listing first so a dead
// backend or a missing model is reported as such instead of as a generic
// transport error.
type OllamaAdapter struct {
	base  string // e.g., http://localhost:11434
	model string

	// Separate clients: the probe must fail fast, the generation must
	// tolerate slow local inference.
	probeClient *http.Client
	genClient   *http.Client

	now func() time.Time
}

func NewOllamaAdapter(baseURL, modelName string, probeTimeout, generateTimeout time.Duration) (*OllamaAdapter, error) {
	if baseURL == "" {
		return nil, errors.New("ollama base url empty")
	}
	if modelName == "" {
		return nil, errors.New("ollama model name empty")
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	if generateTimeout <= 0 {
		generateTimeout = 2 * time.Minute
	}
	return &OllamaAdapter{
		base:        strings.TrimRight(baseURL, "/"),
		model:       modelName,
		probeClient: &http.Client{Timeout: probeTimeout},
		genClient:   &http.Client{Timeout: generateTimeout},
		now:         time.Now,
	}, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (o *OllamaAdapter) Status(ctx context.Context) (adapter.BackendStatus, error) {
	status := adapter.BackendStatus{Model: o.model}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.base+"/api/tags", nil)
	if err != nil {
		return status, err
	}
	resp, err := o.probeClient.Do(req)
	if err != nil {
		return status, classifyTransport(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return status, fmt.Errorf("%w: model listing returned http %d", adapter.ErrBackendUnavailable, resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return status, fmt.Errorf("%w: cannot parse model listing", adapter.ErrInvalidResponse)
	}

	status.Running = true
	for _, m := range tags.Models {
		status.AvailableModels = append(status.AvailableModels, m.Name)
		// Substring match so "llama3.2" accepts "llama3.2:latest".
		if strings.Contains(m.Name, o.model) {
			status.ModelAvailable = true
		}
	}
	return status, nil
}

func (o *OllamaAdapter) ListModels(ctx context.Context) ([]string, error) {
	status, err := o.Status(ctx)
	if err != nil {
		return nil, err
	}
	return status.AvailableModels, nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (o *OllamaAdapter) Generate(ctx context.Context, message string, history []model.Message) (string, error) {
	if err := o.checkReady(ctx); err != nil {
		return "", err
	}

	reqBody := generateRequest{
		Model:  o.model,
		Prompt: o.buildPrompt(message, history),
		Stream: false,
		Options: generateOptions{
			Temperature: 0.7,
			NumPredict:  300, // keep replies short so slow machines stay usable
		},
	}
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := o.now()
	resp, err := o.genClient.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		kerr := classifyTransport(err)
		metrics.ObserveGenerate(o.model, latency, false)
		metrics.IncAIFailure(adapter.Kind(kerr))
		return "", kerr
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		metrics.ObserveGenerate(o.model, latency, false)
		metrics.IncAIFailure(adapter.Kind(adapter.ErrInvalidResponse))
		return "", fmt.Errorf("%w: generate returned http %d", adapter.ErrInvalidResponse, resp.StatusCode)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ObserveGenerate(o.model, latency, false)
		metrics.IncAIFailure(adapter.Kind(adapter.ErrInvalidResponse))
		return "", fmt.Errorf("%w: cannot parse generate response", adapter.ErrInvalidResponse)
	}
	reply := strings.TrimSpace(payload.Response)
	if reply == "" {
		metrics.ObserveGenerate(o.model, latency, false)
		metrics.IncAIFailure(adapter.Kind(adapter.ErrInvalidResponse))
		return "", fmt.Errorf("%w: response field absent or empty", adapter.ErrInvalidResponse)
	}

	metrics.ObserveGenerate(o.model, latency, true)
	return reply, nil
}

// checkReady confirms the backend is reachable and serves the configured
// model before spending a long generate call on it.
func (o *OllamaAdapter) checkReady(ctx context.Context) error {
	status, err := o.Status(ctx)
	if err != nil {
		metrics.IncAIFailure(adapter.Kind(err))
		return err
	}
	if !status.ModelAvailable {
		metrics.IncAIFailure(adapter.Kind(adapter.ErrModelNotFound))
		return fmt.Errorf("%w: %q is not installed, pull it first: ollama pull %s",
			adapter.ErrModelNotFound, o.model, o.model)
	}
	return nil
}

// buildPrompt renders a single completion prompt: persona preamble, the
// current date and time (so temporal questions get correct answers), up to
// the last 10 history turns as "Role: content" lines, then the new user
// turn and an assistant marker.
func (o *OllamaAdapter) buildPrompt(message string, history []model.Message) string {
	now := o.now()
	var sb strings.Builder
	sb.WriteString(systemPreamble)
	fmt.Fprintf(&sb, "CURRENT DATE AND TIME: today is %s, %s. Use this when asked about the date, the time, or other temporal references.\n\n",
		now.Format("Monday, January 2, 2006"), now.Format("15:04:05"))

	recent := history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	for _, msg := range recent {
		role := "User"
		if msg.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, msg.Content)
	}

	fmt.Fprintf(&sb, "User: %s\nAssistant:", message)
	return sb.String()
}

// classifyTransport maps a transport error to one of the adapter kinds with
// a remediation hint attached.
func classifyTransport(err error) error {
	var ne net.Error
	if (errors.As(err, &ne) && ne.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: the model may be too heavy or not loaded, try restarting the backend", adapter.ErrTimeout)
	}
	return fmt.Errorf("%w: start it first (ollama serve) and check the configured URL", adapter.ErrBackendUnavailable)
}
