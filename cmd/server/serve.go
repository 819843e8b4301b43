package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/youruser/imageapi/internal/api"
	"github.com/youruser/imageapi/internal/logger"
	"github.com/youruser/imageapi/internal/telemetry"
	"go.trai.ch/zerr"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.pipeline.Close()

	shutdownTracing, err := telemetry.Setup(ctx, a.cfg.ServiceName, a.cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error(context.Background(), a.logger, zerr.Wrap(err, "shutdown tracing"))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(a.cfg.Port),
		Handler: api.NewHandler(a.pipeline, a.logger, a.cfg.APIKey).NewEngine(),
	}

	go a.pipeline.Run(ctx, a.cfg.SweepInterval)

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "addr", srv.Addr, "auth", a.cfg.APIKey != "")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.Wrap(err, "listen")
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, "shutdown server")
	}
	return nil
}
