package llm

import (
	"context"
	"errors"
)

// Client abstracts generative-model providers. Implementations must apply a
// finite request timeout; pipeline stages rely on every call terminating.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single completion request.
type Request struct {
	System   string
	Prompt   string
	JSONMode bool
}

// ErrTransport marks timeouts and non-success responses from the model API.
// Callers map it to a failed pipeline transition.
var ErrTransport = errors.New("model transport failed")

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotConfigured
}
