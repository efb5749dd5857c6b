package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/livelink/internal/relayclient"
)

// DefaultRelayURL is the relay address used when --relay is not given.
const DefaultRelayURL = "http://127.0.0.1:30013"

// ClientOptions holds flags shared by commands that talk to a running relay.
type ClientOptions struct {
	*RootOptions
	RelayURL string
	Timeout  time.Duration
}

func addClientFlags(cmd *cobra.Command, opts *ClientOptions) {
	cmd.Flags().StringVar(&opts.RelayURL, "relay", DefaultRelayURL, "relay base URL")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", relayclient.DefaultTimeout, "request timeout")
}

func (o *ClientOptions) client() *relayclient.Client {
	return relayclient.New(o.RelayURL, relayclient.WithTimeout(o.Timeout))
}

// failRelay reports a relay client error. A rejected request is the
// caller's mistake; anything else is a runtime failure.
func failRelay(out *OutputFormatter, message string, err error) error {
	exitCode := ExitFailure
	if relayclient.IsValidationError(err) {
		exitCode = ExitCommandError
	}
	return out.Fail(exitCode, relayErrorCode(err), message, err)
}
