package nodes

import "github.com/isaid22/agentloop/pkg/domain"

// Labels produced by RouteOnActions.
const (
	LabelTools = "tools"
	LabelEnd   = "end"
)

// RouteOnActions returns LabelTools when the most recent message carries
// pending Actions and LabelEnd otherwise. An empty Actions list counts as none.
func RouteOnActions(state *domain.State) string {
	last, ok := state.LastMessage()
	if !ok || !last.HasActions() {
		return LabelEnd
	}
	return LabelTools
}

// ActionRouter is RouteOnActions with its label set declared.
func ActionRouter() domain.Router {
	return domain.Router{
		Route:  RouteOnActions,
		Labels: []string{LabelTools, LabelEnd},
	}
}
