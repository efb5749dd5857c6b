package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/roach88/livelink/internal/config"
	"github.com/roach88/livelink/internal/httpapi"
	"github.com/roach88/livelink/internal/nova"
	"github.com/roach88/livelink/internal/relay"
)

// shutdownTimeout bounds how long in-flight requests may run after a stop
// signal.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Host       string
	Port       int
	EngineHost string
	EnginePort int

	// Engine replaces the engine bridge client (tests).
	Engine relay.Engine
	// Listener replaces the listener on the configured address (tests).
	Listener net.Listener
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync relay",
		Long: `Run the sync relay HTTP server until interrupted.

Settings come from the environment (NOVABRIDGE_LIVELINK_* for the relay,
NOVABRIDGE_* for the engine bridge). Flags override the environment.

Examples:
  livelink serve
  livelink serve --port 30013 --engine-host 10.0.0.5
  livelink serve -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "relay listen host (overrides NOVABRIDGE_LIVELINK_HOST)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "relay listen port (overrides NOVABRIDGE_LIVELINK_PORT)")
	cmd.Flags().StringVar(&opts.EngineHost, "engine-host", "", "engine bridge host (overrides NOVABRIDGE_HOST)")
	cmd.Flags().IntVar(&opts.EnginePort, "engine-port", 0, "engine bridge port (overrides NOVABRIDGE_PORT)")

	return cmd
}

// loadServeConfig reads the environment and applies flags the user set.
func loadServeConfig(cmd *cobra.Command, opts *ServeOptions) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.Host
	}
	if flags.Changed("port") {
		cfg.Port = opts.Port
	}
	if flags.Changed("engine-host") {
		cfg.EngineHost = opts.EngineHost
	}
	if flags.Changed("engine-port") {
		cfg.EnginePort = opts.EnginePort
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := loadServeConfig(cmd, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	engine := opts.Engine
	if engine == nil {
		engine = nova.New(cfg.EngineBaseURL(),
			nova.WithAPIKey(cfg.EngineAPIKey),
			nova.WithTimeout(cfg.EngineTimeout),
		)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := relay.New(engine,
		relay.WithPollInterval(cfg.PollInterval()),
		relay.WithMaxPending(cfg.MaxPending),
		relay.WithLogger(logger),
		relay.WithMetrics(relay.NewMetrics(registry)),
	)
	handler := httpapi.NewHandler(svc,
		httpapi.WithPort(cfg.Port),
		httpapi.WithGatherer(registry),
		httpapi.WithLogger(logger),
	)

	ln := opts.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", cfg.Addr())
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to listen on %s", cfg.Addr()), err)
		}
	}
	srv := httpapi.NewServer(cfg.Addr(), handler)

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	logger.Info("relay listening",
		"addr", ln.Addr().String(),
		"engine", cfg.EngineBaseURL(),
		"poll_interval", cfg.PollInterval(),
		"max_pending", cfg.MaxPending,
	)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitFailure, "relay server failed", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "relay server failed", err)
	}
	return nil
}
