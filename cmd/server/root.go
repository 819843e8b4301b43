package main

import (
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/youruser/imageapi/internal/assets"
	"github.com/youruser/imageapi/internal/config"
	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/logger"
	"github.com/youruser/imageapi/internal/pipeline"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "imageapi",
		Short:         "Render item shop, locker and stats images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	serve := newServeCmd(opts)
	root.AddCommand(serve, newRenderCmd(opts))
	root.RunE = serve.RunE
	return root
}

// app holds the services shared by the commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.New(nil, level, logger.Format(cfg.LogFormat))

	p := pipeline.New(
		assets.New(cfg.AssetsDir, log),
		imagepkg.NewFetcher(&http.Client{}, cfg.FetchTimeout),
		pipeline.Options{
			TTL:                 cfg.CacheTTL,
			LockPoolSize:        cfg.LockPoolSize,
			PrefetchConcurrency: cfg.PrefetchConcurrency,
			ItemCacheDir:        cfg.ResolvedItemCacheDir(),
			Logger:              log,
		},
	)
	return &app{cfg: cfg, logger: log, pipeline: p}, nil
}
