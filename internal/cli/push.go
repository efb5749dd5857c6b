package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/livelink/internal/syncapi"
)

// PushOptions holds flags for the push command.
type PushOptions struct {
	ClientOptions
	Source string
}

// PushResult is the output of the push command.
type PushResult struct {
	Source string               `json:"source"`
	Result syncapi.PushResponse `json:"result"`
}

// RenderText prints the batch summary.
func (r PushResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Batch %s from %s: %d accepted, %d applied, %d queued, %d skipped\n",
		r.Result.BatchID, r.Source, r.Result.Accepted, r.Result.Applied, r.Result.Queued, r.Result.Skipped)
}

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PushOptions{ClientOptions: ClientOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "push --source <A|B> [changes-file]",
		Short: "Push a batch of changes to the relay",
		Long: `Push a batch of change records to a running relay.

The changes file holds either a JSON array of changes or a push body with a
"changes" field. With no file, or "-", changes are read from stdin.

Each change is {"name": "...", "location": [x, y, z]} with optional
"rotation" and "scale".

Examples:
  livelink push --source A changes.json
  echo '[{"name":"Cube","location":[1,2,0.5]}]' | livelink push --source A`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runPush(cmd, opts, path)
		},
	}
	addClientFlags(cmd, &opts.ClientOptions)
	cmd.Flags().StringVar(&opts.Source, "source", "", "side the changes come from (A or B)")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func runPush(cmd *cobra.Command, opts *PushOptions, path string) error {
	out := newFormatter(cmd, opts.RootOptions)

	changes, err := readChanges(cmd.InOrStdin(), path)
	if err != nil {
		return out.Fail(ExitCommandError, CodeInvalidInput, "failed to read changes", err)
	}
	out.VerboseLog("pushing %d change(s) from %s to %s", len(changes), opts.Source, opts.RelayURL)

	resp, err := opts.client().PushChanges(cmd.Context(), opts.Source, changes)
	if err != nil {
		return failRelay(out, "push failed", err)
	}
	return out.Success(PushResult{Source: opts.Source, Result: resp})
}

// readChanges loads changes from path, or from stdin when path is "-".
func readChanges(stdin io.Reader, path string) ([]syncapi.Change, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return parseChanges(data)
}

// parseChanges accepts a bare JSON array of changes or a push body.
func parseChanges(data []byte) ([]syncapi.Change, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []syncapi.Change{}, nil
	}

	var changes []syncapi.Change
	if data[0] == '[' {
		if err := json.Unmarshal(data, &changes); err != nil {
			return nil, fmt.Errorf("invalid changes array: %w", err)
		}
	} else {
		var req syncapi.PushRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("invalid push body: %w", err)
		}
		changes = req.Changes
	}
	if changes == nil {
		changes = []syncapi.Change{}
	}
	return changes, nil
}
