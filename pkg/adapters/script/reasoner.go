// Package script provides a Reasoner that replays a fixed conversation from a
// YAML file. It makes runs deterministic for demos, the CLI and tests.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/isaid22/agentloop/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ErrExhausted is returned when the conversation asks for more turns than the script holds.
var ErrExhausted = errors.New("script has no more turns")

// Turn is one scripted assistant reply.
type Turn struct {
	Content string          `yaml:"content"`
	Actions []domain.Action `yaml:"actions"`
}

// File is the on-disk layout of a script.
//
//	turns:
//	  - actions:
//	      - name: search
//	        args: {query: "weather in Paris"}
//	  - content: "It is sunny."
type File struct {
	Turns []Turn `yaml:"turns"`
}

// Reasoner answers with the Nth turn, where N is the number of assistant
// messages already in the conversation. It keeps no state of its own, so one
// Reasoner serves concurrent runs.
type Reasoner struct {
	turns []Turn
}

// New creates a Reasoner from turns.
func New(turns ...Turn) *Reasoner {
	return &Reasoner{turns: turns}
}

// Load reads a YAML script.
func Load(path string) (*Reasoner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML script.
func Parse(data []byte) (*Reasoner, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(f.Turns) == 0 {
		return nil, errors.New("script has no turns")
	}
	for i, turn := range f.Turns {
		for _, a := range turn.Actions {
			if a.Name == "" {
				return nil, fmt.Errorf("turn %d: action without a name", i+1)
			}
		}
	}
	return New(f.Turns...), nil
}

// Decide implements ports.Reasoner.
func (r *Reasoner) Decide(ctx context.Context, msgs []domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	n := 0
	for _, m := range msgs {
		if m.Role == domain.RoleAssistant {
			n++
		}
	}
	if n >= len(r.turns) {
		return domain.Message{}, fmt.Errorf("%w (turn %d of %d)", ErrExhausted, n+1, len(r.turns))
	}

	turn := r.turns[n]
	msg := domain.AssistantMessage(turn.Content)
	for i, a := range turn.Actions {
		a = domain.CloneAction(a)
		if a.ID == "" {
			// Deterministic, unique within the run.
			a.ID = fmt.Sprintf("turn%d-call%d", n+1, i+1)
		}
		msg.Actions = append(msg.Actions, a)
	}
	return msg, nil
}

// Len returns the number of scripted turns.
func (r *Reasoner) Len() int {
	return len(r.turns)
}
