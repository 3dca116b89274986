// Package main bakes the sky into panorama or cube map images.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
	"github.com/Faultbox/midgard-sky/internal/config"
	"github.com/Faultbox/midgard-sky/internal/logger"
	"github.com/Faultbox/midgard-sky/internal/skybox"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := bake(ctx, cfg)
	if err != nil {
		logger.Error("bake failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	for _, p := range paths {
		fmt.Println(p)
	}
}

func bake(ctx context.Context, cfg *config.Config) ([]string, error) {
	mode, err := cfg.Atmosphere.ParsedMode()
	if err != nil {
		return nil, err
	}
	params, err := cfg.Atmosphere.Parameters()
	if err != nil {
		return nil, err
	}
	model, err := atmosphere.NewModel(mode, params)
	if err != nil {
		return nil, fmt.Errorf("creating atmosphere: %w", err)
	}

	faces, err := skybox.Bake(ctx, model, skybox.Options{
		Layout:      skybox.Layout(cfg.Bake.Layout),
		Size:        cfg.Bake.Size,
		Supersample: cfg.Bake.Supersample,
		Exposure:    cfg.Bake.Exposure,
		Workers:     cfg.Bake.Workers,
	}, logger.Named("bake"))
	if err != nil {
		return nil, err
	}

	w := skybox.NewWriter(cfg.Bake.OutputDir, skybox.Format(cfg.Bake.Format))
	return w.WriteFaces(faces)
}
