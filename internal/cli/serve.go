package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vexsearch/vexdb/internal/config"
	"github.com/vexsearch/vexdb/internal/logging"
	"github.com/vexsearch/vexdb/pkg/api"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 30 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API serving /v1/commands, /v1/wire and
/v1/namespaces/{namespace}/validate. Stops on SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(rootOpts *RootOptions, opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.ListenAddr = opts.Addr
	}
	logger, err := newLogger(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return WrapExitError(ExitCommandError, "listen on "+cfg.ListenAddr, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, logger, ln)
}

// serve runs the API on ln until ctx ends, then shuts down gracefully.
func serve(ctx context.Context, cfg *config.Config, logger *logging.Logger, ln net.Listener) error {
	router := api.NewRouterWithLogger(cfg, logger)

	writeTimeout := time.Duration(cfg.Timeout.GetRequestTimeout())*time.Millisecond + 5*time.Second
	if writeTimeout < 30*time.Second {
		writeTimeout = 30 * time.Second
	}
	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting vexdb server", "addr", ln.Addr().String(), "version", Version)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitCommandError, "server error", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown", err)
	}

	logger.Info("server stopped")
	return nil
}
