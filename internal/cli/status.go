package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/livelink/internal/syncapi"
)

// StatusResult is the output of the status command.
type StatusResult struct {
	Relay  string                 `json:"relay"`
	Health syncapi.HealthResponse `json:"health"`
}

// RenderText prints relay health as aligned lines.
func (r StatusResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Relay:          %s (%s)\n", r.Relay, r.Health.Status)
	if r.Health.Port != 0 {
		fmt.Fprintf(w, "Port:           %d\n", r.Health.Port)
	}
	fmt.Fprintf(w, "Pending for A:  %d\n", r.Health.PendingForA)
	fmt.Fprintf(w, "Pending for B:  %d\n", r.Health.PendingForB)
	if r.Health.LastPoll != nil {
		fmt.Fprintf(w, "Last poll:      %s\n", r.Health.LastPoll.Format(time.RFC3339Nano))
	} else {
		fmt.Fprintln(w, "Last poll:      never")
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show relay health",
		Long: `Query a running relay for its queue depths and last engine poll.

Examples:
  livelink status
  livelink status --relay http://10.0.0.5:30013 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}
	addClientFlags(cmd, opts)

	return cmd
}

func runStatus(cmd *cobra.Command, opts *ClientOptions) error {
	out := newFormatter(cmd, opts.RootOptions)
	out.VerboseLog("querying %s", opts.RelayURL)

	health, err := opts.client().Health(cmd.Context())
	if err != nil {
		return failRelay(out, "health check failed", err)
	}
	return out.Success(StatusResult{Relay: opts.RelayURL, Health: health})
}
