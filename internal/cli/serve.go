package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gluk-w/claworc/artifacts/internal/audit"
	"github.com/gluk-w/claworc/artifacts/internal/config"
	"github.com/gluk-w/claworc/artifacts/internal/handlers"
)

func (a *app) serveCommand() *cobra.Command {
	var listen, token string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an HTTP API over the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				config.Cfg.ListenAddr = listen
			}
			if cmd.Flags().Changed("api-token") {
				config.Cfg.APIToken = token
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8000", "address to listen on")
	cmd.Flags().StringVar(&token, "api-token", "", "bearer token required by the API")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	log := logger.WithField("component", "http")

	repo, err := a.repository()
	if err != nil {
		return err
	}
	handlers.Repo = repo

	if a.auditor != nil && config.Cfg.AuditPurgeSchedule != "" {
		c, err := audit.StartPurgeSchedule(a.auditor, config.Cfg.AuditPurgeSchedule)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              config.Cfg.ListenAddr,
		Handler:           handlers.NewRouter(config.Cfg.APIToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server starting on %s for %s", srv.Addr, repo)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-sigCtx.Done():
	}
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
