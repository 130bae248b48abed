package llm

import "context"

// Client abstracts LLM providers for summarization and question
// answering.
type Client interface {
	Summarize(ctx context.Context, text string) (string, error)
	Answer(ctx context.Context, summary, question string) (string, error)
}

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Summarize returns ErrNotImplemented.
func (PlaceholderClient) Summarize(ctx context.Context, text string) (string, error) {
	_ = ctx
	_ = text
	return "", Permanent(ErrNotImplemented)
}

// Answer returns ErrNotImplemented.
func (PlaceholderClient) Answer(ctx context.Context, summary, question string) (string, error) {
	_ = ctx
	_ = summary
	_ = question
	return "", Permanent(ErrNotImplemented)
}

var _ Client = PlaceholderClient{}
