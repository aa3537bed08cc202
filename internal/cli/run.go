package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/isaid22/agentloop"
	"github.com/isaid22/agentloop/internal/presentation/tui"
	"github.com/isaid22/agentloop/pkg/domain"
)

// Streamer is the engine surface used by Run.
type Streamer interface {
	Stream(ctx context.Context, prompt string, opts ...agentloop.RunOption) iter.Seq2[domain.StepEvent, error]
}

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	Prompt string
	// JSON writes one StepEvent per line instead of a transcript.
	JSON bool
	// Quiet prints only the final answer.
	Quiet   bool
	Out     io.Writer
	Logger  *slog.Logger
	RunOpts []agentloop.RunOption
}

// Run streams one invocation of eng to opts.Out.
func Run(ctx context.Context, eng Streamer, opts RunOptions) error {
	if opts.Prompt == "" {
		return errors.New("a prompt is required")
	}

	var (
		renderer = tui.NewRenderer(opts.Out)
		encoder  = json.NewEncoder(opts.Out)
		last     domain.StepEvent
	)
	if !opts.JSON && !opts.Quiet {
		renderer.Message(domain.UserMessage(opts.Prompt))
	}

	for ev, err := range eng.Stream(ctx, opts.Prompt, opts.RunOpts...) {
		if err != nil {
			return handleExecutionError(err)
		}
		last = ev
		switch {
		case opts.JSON:
			if err := encoder.Encode(ev); err != nil {
				return fmt.Errorf("failed to encode step %d: %w", ev.Step, err)
			}
		case !opts.Quiet:
			renderer.Step(ev)
		}
	}

	if opts.Logger != nil && last.State != nil {
		opts.Logger.Info("Run completed", "run_id", last.State.RunID, "steps", last.Step)
	}
	if opts.JSON || last.State == nil {
		return nil
	}
	answer, err := agentloop.Answer(last.State)
	if err != nil {
		return err
	}
	if opts.Quiet {
		fmt.Fprintln(opts.Out, answer)
		return nil
	}
	fmt.Fprintln(opts.Out)
	renderer.Answer(answer)
	return nil
}

// handleExecutionError adds a hint for the failures a CLI user can act on.
func handleExecutionError(err error) error {
	var limit *domain.StepLimitExceeded
	switch {
	case errors.As(err, &limit):
		return fmt.Errorf("%w (raise --step-limit or step_limit in the config)", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("run interrupted: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("run timed out (see --run-timeout): %w", err)
	default:
		return err
	}
}
