package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/httpapi"
	"github.com/MrEthical07/tokenauth/internal/config"
	"github.com/MrEthical07/tokenauth/internal/logging"
	promexport "github.com/MrEthical07/tokenauth/metrics/export/prometheus"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(configPath(cmd), cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(settings.Log.Level, settings.Log.Format, cmd.ErrOrStderr())
			if err != nil {
				return oops.Code("CONFIG_INVALID").With("key", "log").Wrap(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, settings, logger, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServe blocks until ctx is cancelled or the listener fails. When ready is
// non-nil it receives the bound address once the server accepts connections.
func runServe(ctx context.Context, settings *config.Settings, logger *slog.Logger, ready chan<- net.Addr) error {
	store, closeStore, err := openStore(ctx, settings.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := newEngine(settings, store, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	srv := newServer(settings, engine, logger)

	ln, err := net.Listen("tcp", settings.Server.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", settings.Server.Addr).Wrap(err)
	}
	logger.Info("authd listening", "addr", ln.Addr().String(), "store", settings.Store.Driver)
	if ready != nil {
		ready <- ln.Addr()
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return oops.Code("SERVE_FAILED").Wrap(err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

func newEngine(settings *config.Settings, store tokenauth.CredentialStore, logger *slog.Logger) (*tokenauth.Engine, error) {
	b := tokenauth.New().
		WithConfig(settings.EngineConfig()).
		WithStore(store).
		WithLogger(logger)
	if settings.Audit.Enabled {
		b = b.WithAuditSink(tokenauth.NewSlogSink(logger.With("component", "audit")))
	}
	engine, err := b.Build()
	if err != nil {
		return nil, oops.Code("ENGINE_BUILD_FAILED").Wrap(err)
	}
	return engine, nil
}

// newServer mounts the API and, when enabled, the metrics endpoint on one mux.
func newServer(settings *config.Settings, engine *tokenauth.Engine, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewHandler(engine, logger))
	if settings.Metrics.Enabled {
		reg := promexport.NewRegistry(promexport.NewCollector(engine))
		mux.Handle("GET "+settings.Metrics.Path, promexport.Handler(reg))
	}

	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: settings.Server.ReadTimeout,
		ReadTimeout:       settings.Server.ReadTimeout,
		WriteTimeout:      settings.Server.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
