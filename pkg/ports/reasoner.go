package ports

import (
	"context"

	"github.com/isaid22/agentloop/pkg/domain"
)

// Reasoner is the reasoning capability: given the conversation so far it
// produces the next assistant message, optionally requesting Actions.
// Implementations must treat messages as read-only.
type Reasoner interface {
	Decide(ctx context.Context, messages []domain.Message) (domain.Message, error)
}

// ReasonerFunc adapts a plain function to Reasoner.
type ReasonerFunc func(ctx context.Context, messages []domain.Message) (domain.Message, error)

// Decide calls f.
func (f ReasonerFunc) Decide(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	return f(ctx, messages)
}
