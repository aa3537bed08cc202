package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the agentloop banner in a gradient to w.
func PrintBanner(w io.Writer, profile termenv.Profile, version string) {
	lines := []string{
		"                        _   _                   ",
		"   __ _  __ _  ___ _ __ | |_| | ___   ___  _ __  ",
		"  / _` |/ _` |/ _ \\ '_ \\| __| |/ _ \\ / _ \\| '_ \\ ",
		" | (_| | (_| |  __/ | | | |_| | (_) | (_) | |_) |",
		"  \\__,_|\\__, |\\___|_| |_|\\__|_|\\___/ \\___/| .__/ ",
		"        |___/                             |_|    ",
	}
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

	fmt.Fprintln(w)
	for i, line := range lines {
		fmt.Fprintln(w, profile.String(line).Foreground(profile.Color(colors[i])))
	}
	fmt.Fprintln(w, profile.String("  "+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
