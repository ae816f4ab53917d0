package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rickchristie/crew/review"
	"github.com/rickchristie/crew/server"
	"github.com/rickchristie/crew/session"
)

const sweepInterval = 10 * time.Minute

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	d, err := buildDeps(ctx, logger)
	if err != nil {
		return err
	}

	store := session.New(d.cfg.SessionTimeout).WithLogger(logger)
	store.StartSweeper(ctx, sweepInterval)

	srv := server.New(d.model, store, d.profiles, d.tools).
		WithReviewer(review.New(d.model).WithLogger(logger)).
		WithBudget(d.cfg.Budget).
		WithMaxIterations(d.cfg.MaxIterations).
		WithLogger(logger)

	httpSrv := &http.Server{
		Addr:    d.cfg.Addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", d.cfg.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
