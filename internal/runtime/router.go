package runtime

import (
	"fmt"

	"github.com/isaid22/agentloop/pkg/domain"
)

// next decides where the run goes after node from, given the post-merge state.
// A node without outgoing edges ends the run.
func (t *Topology) next(from string, state *domain.State) (target string, err error) {
	if to, ok := t.edges[from]; ok {
		return to, nil
	}

	c, ok := t.routes[from]
	if !ok {
		return domain.End, nil
	}

	defer func() {
		if r := recover(); r != nil {
			target, err = "", fmt.Errorf("routing function of %q panicked: %v", from, r)
		}
	}()

	label := c.Router.Route(state)
	to, ok := c.Table[label]
	if !ok {
		return "", fmt.Errorf("node %q produced label %q: %w", from, label, domain.ErrUnknownRoute)
	}
	return to, nil
}
