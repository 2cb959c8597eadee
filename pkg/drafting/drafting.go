// Package drafting wraps the external generative-text capability the agents
// fall back to when their deterministic rules don't match. The service gives
// no structure or determinism guarantees; callers must parse its output
// defensively and keep a deterministic fallback path of their own.
package drafting

import "context"

// Service is the single black-box capability: prompt in, free text out.
type Service interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}
