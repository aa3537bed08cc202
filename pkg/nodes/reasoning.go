package nodes

import (
	"context"

	"github.com/google/uuid"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/ports"
)

// ReasoningOption configures a reasoning node.
type ReasoningOption func(*reasoningConfig)

type reasoningConfig struct {
	newID func() string
}

// WithActionIDs sets the generator used for Actions the reasoner left without an ID.
func WithActionIDs(gen func() string) ReasoningOption {
	return func(c *reasoningConfig) {
		c.newID = gen
	}
}

// Reasoning builds a node that asks r for the next turn and appends it to the
// messages channel as an assistant turn. Requested Actions are attached to the message for
// the router to discover; they are not executed here.
func Reasoning(r ports.Reasoner, opts ...ReasoningOption) domain.NodeFunc {
	cfg := reasoningConfig{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, state *domain.State) (domain.Update, error) {
		msg, err := r.Decide(ctx, domain.CloneMessages(state.Messages()))
		if err != nil {
			return nil, &domain.ReasonerError{Cause: err}
		}

		msg = domain.CloneMessage(msg)
		msg.Role = domain.RoleAssistant
		for i := range msg.Actions {
			if msg.Actions[i].ID == "" {
				msg.Actions[i].ID = cfg.newID()
			}
		}

		return domain.Messages(msg), nil
	}
}
