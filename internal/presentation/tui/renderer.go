package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer prints a run transcript. On a terminal roles are colored and the
// final answer is rendered as markdown; otherwise output is plain text.
type Renderer struct {
	out      io.Writer
	profile  termenv.Profile
	markdown func(string) (string, error)
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	r := &Renderer{out: out, profile: termenv.Ascii}
	if IsTerminal(out) {
		r.profile = termenv.ColorProfile()
		if md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(), // Automatically detect light/dark background
			glamour.WithWordWrap(100),
		); err == nil {
			r.markdown = md.Render
		}
	}
	return r
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Profile returns the color profile in use.
func (r *Renderer) Profile() termenv.Profile {
	return r.profile
}

var roleColors = map[domain.Role]string{
	domain.RoleSystem:    "#9ca3af",
	domain.RoleUser:      "#60a5fa",
	domain.RoleAssistant: "#c084fc",
	domain.RoleTool:      "#34d399",
}

// Step prints the messages a node appended to the transcript.
func (r *Renderer) Step(ev domain.StepEvent) {
	switch v := ev.Update[domain.ChannelMessages].(type) {
	case []domain.Message:
		for _, m := range v {
			r.Message(m)
		}
	case domain.Message:
		r.Message(v)
	}
}

// Message prints a single transcript entry.
func (r *Renderer) Message(m domain.Message) {
	label := r.profile.String(fmt.Sprintf("[%s]", m.Role)).Foreground(r.profile.Color(roleColors[m.Role])).Bold()

	switch {
	case m.Role == domain.RoleTool:
		status := "ok"
		if m.IsError {
			status = r.profile.String("error").Foreground(r.profile.Color("#f87171")).String()
		}
		fmt.Fprintf(r.out, "%s %s (%s, %s): %s\n", label, m.Name, m.ActionID, status, m.Content)
	case m.HasActions():
		if m.Content != "" {
			fmt.Fprintf(r.out, "%s %s\n", label, m.Content)
		}
		for _, a := range m.Actions {
			args, _ := json.Marshal(a.Args)
			fmt.Fprintf(r.out, "%s -> %s %s %s\n", label, a.ID, a.Name, args)
		}
	default:
		fmt.Fprintf(r.out, "%s %s\n", label, m.Content)
	}
}

// Answer prints the final answer, rendered as markdown when possible.
func (r *Renderer) Answer(content string) {
	if r.markdown != nil {
		if out, err := r.markdown(content); err == nil {
			fmt.Fprint(r.out, out)
			return
		}
	}
	fmt.Fprintln(r.out, strings.TrimSpace(content))
}
