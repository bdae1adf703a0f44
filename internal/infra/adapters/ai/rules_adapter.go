package ai

import (
	"context"
	"strings"
	"time"

	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AIServiceAdapter = (*RulesAdapter)(nil)

// Rule pairs trigger keywords with a canned response. Rules are evaluated
// in order; the first rule with any keyword contained in the lowercased
// message wins.
type Rule struct {
	Keywords []string
	Response string
}

// RulesAdapter is the offline chat mode: no inference backend, just an
// ordered rule list. It serves the same port as the real adapter so the
// rest of the stack cannot tell the difference.
type RulesAdapter struct {
	rules    []Rule
	fallback string
	now      func() time.Time
}

func NewRulesAdapter(rules []Rule, fallback string) *RulesAdapter {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if fallback == "" {
		fallback = "I'm not sure how to answer that. Could you rephrase?"
	}
	return &RulesAdapter{rules: rules, fallback: fallback, now: time.Now}
}

// DefaultRules covers the handful of intents the no-AI mode answered.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"hello", "hi ", "hey"}, Response: "Hello! How can I help you today?"},
		{Keywords: []string{"how are you"}, Response: "I'm doing great, thanks for asking! How about you?"},
		{Keywords: []string{"thank"}, Response: "You're welcome!"},
		{Keywords: []string{"bye", "goodbye"}, Response: "Goodbye! Come back any time."},
		{Keywords: []string{"your name", "who are you"}, Response: "I'm NovAI, your virtual assistant."},
	}
}

func (r *RulesAdapter) Status(ctx context.Context) (adapter.BackendStatus, error) {
	return adapter.BackendStatus{
		Running:         true,
		Model:           "rules",
		ModelAvailable:  true,
		AvailableModels: []string{"rules"},
	}, nil
}

func (r *RulesAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{"rules"}, nil
}

func (r *RulesAdapter) Generate(ctx context.Context, message string, history []model.Message) (string, error) {
	lower := strings.ToLower(message)

	// Temporal questions answered from the clock, like the real adapter's
	// prompt preamble lets the model do.
	if strings.Contains(lower, "what time") {
		return "It is " + r.now().Format("15:04") + ".", nil
	}
	if strings.Contains(lower, "what day") || strings.Contains(lower, "date") {
		return "Today is " + r.now().Format("Monday, January 2, 2006") + ".", nil
	}

	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Response, nil
			}
		}
	}
	return r.fallback, nil
}
