// Package llm wraps the external chat-completion services the stages call.
//
// Two logical capabilities share the same wire shape: the "research" service
// answers lookup prompts (events, exhibitors, firmographics) and the "writer"
// service drafts outreach text. Both speak the chat-completions contract, so
// a single HTTP client serves either endpoint.
package llm

import "context"

// Request describes one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client is implemented by anything that can answer a completion request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function into a Client (handy for test fakes).
type Func func(ctx context.Context, req Request) (string, error)

// Complete implements Client.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
