package llm

import (
	"context"
	"errors"
)

// Request is one text-generation call.
type Request struct {
	SystemInstruction string
	Prompt            string
	Temperature       float64
	MaxTokens         int
}

// Client abstracts the text-generation provider.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Provider failure classes. The retry orchestrator treats all three as
// retryable transport failures.
var (
	ErrTimeout       = errors.New("generation call timed out")
	ErrEmptyResponse = errors.New("provider returned an empty response")
	ErrTransport     = errors.New("provider transport error")
)

// IsTransportError reports whether the error is any provider-side failure
// as opposed to malformed-but-present content.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrTransport)
}
