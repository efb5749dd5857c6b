package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/livelink/internal/syncapi"
)

// PullResult is the output of the pull command.
type PullResult struct {
	Target  string           `json:"target"`
	Changes []syncapi.Change `json:"changes"`
}

// RenderText prints one line per change.
func (r PullResult) RenderText(w io.Writer) {
	if len(r.Changes) == 0 {
		fmt.Fprintf(w, "No changes pending for %s.\n", r.Target)
		return
	}
	for _, c := range r.Changes {
		fmt.Fprintf(w, "%s\tlocation=%v", c.Name, c.Location)
		if c.Rotation != nil {
			fmt.Fprintf(w, " rotation=%v", c.Rotation)
		}
		if c.Scale != nil {
			fmt.Fprintf(w, " scale=%v", c.Scale)
		}
		fmt.Fprintln(w)
	}
}

// NewPullCommand creates the pull command.
func NewPullCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pull <A|B>",
		Short: "Drain changes queued for a side",
		Long: `Drain everything the relay has queued for a side.

Pulling is destructive: drained changes are not delivered again. A pull for
A also lets the relay poll the engine first.

Examples:
  livelink pull A
  livelink pull B --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd, opts, args[0])
		},
	}
	addClientFlags(cmd, opts)

	return cmd
}

func runPull(cmd *cobra.Command, opts *ClientOptions, target string) error {
	out := newFormatter(cmd, opts.RootOptions)

	resp, err := opts.client().PullChanges(cmd.Context(), target)
	if err != nil {
		return failRelay(out, "pull failed", err)
	}
	changes := resp.Changes
	if changes == nil {
		changes = []syncapi.Change{}
	}
	return out.Success(PullResult{Target: target, Changes: changes})
}
