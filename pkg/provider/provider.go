package provider

import (
	"codegen-relay/pkg/types"
	"context"
	"fmt"
)

// Provider sends one chat-completion request upstream and returns the decoded reply.
type Provider interface {
	Send(ctx context.Context, req types.OpenAIRequest) (*types.OpenAIResponse, error)
}

// UpstreamError reports an upstream reply that was received but cannot be used:
// either a non-success status or a success status whose body lacks the
// expected choices[0].message structure.
type UpstreamError struct {
	StatusCode int
	Body       string
	Malformed  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Malformed {
		if e.Err != nil {
			return fmt.Sprintf("malformed upstream response: %v", e.Err)
		}
		return "malformed upstream response"
	}
	return fmt.Sprintf("upstream error: status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// LegacyText renders the error the way the original service embedded it in
// the code field: "Error: <status>, <body>".
func (e *UpstreamError) LegacyText() string {
	return fmt.Sprintf("Error: %d, %s", e.StatusCode, e.Body)
}
