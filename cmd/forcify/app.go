package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	goruntime "runtime"
	"time"

	"forcify/internal/config"
	"forcify/internal/health"
	"forcify/internal/logging"
	"forcify/internal/metrics"
	"forcify/internal/stream"
	"forcify/pkg/forcify"
)

// app is the ambient state shared by the long-running commands.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *metrics.Registry
	recorder *metrics.ForceRecorder
	health   *health.Checker
	stream   *stream.Hub
	server   *http.Server
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	return cfg, nil
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	logging.SetDefault(logger)

	forcify.ReplaceDefaults(cfg.Force)

	rt := &app{
		cfg:    cfg,
		logger: logger,
		health: health.NewChecker(),
		stream: stream.NewHub(logger.WithComponent("stream").Logger),
	}
	if cfg.Metrics.Enabled {
		rt.registry = metrics.Default()
		rt.recorder = metrics.NewForceRecorder(rt.registry)
	}
	return rt, nil
}

// publish forwards force events to the /events stream.
func (rt *app) publish(e forcify.Event) {
	rt.stream.Publish(e)
}

// options returns the engine options for a new instance.
func (rt *app) options(registry *forcify.Registry, clock forcify.Clock) []forcify.Option {
	opts := []forcify.Option{
		forcify.WithRegistry(registry),
		forcify.WithLogger(rt.logger.WithComponent("engine").Logger),
	}
	if clock != nil {
		opts = append(opts, forcify.WithClock(clock))
	}
	if rt.recorder != nil {
		opts = append(opts, forcify.WithRecorder(rt.recorder))
	}
	return opts
}

// platformRegistry builds a fresh dialect registry. An empty platform
// falls back to the configured one, then to the running OS.
func (rt *app) platformRegistry(platform string) *forcify.Registry {
	if platform == "" {
		platform = rt.cfg.Platform
	}
	if platform == "" {
		platform = goruntime.GOOS
	}
	return forcify.NewRegistry(platform)
}

// serve starts the HTTP endpoint with /metrics (when metrics are enabled),
// /healthz, /readyz and the /events WebSocket stream. Nothing is served
// without a listen address.
func (rt *app) serve() {
	if rt.cfg.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	if rt.registry != nil {
		mux.Handle("/metrics", rt.registry.HTTPHandler())
	}
	rt.health.Mount(mux)
	mux.Handle("/events", rt.stream)
	rt.server = &http.Server{
		Addr:              rt.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		rt.logger.Info("http endpoint listening", "addr", rt.cfg.Metrics.Addr)
		if err := rt.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("http endpoint failed", "error", err)
		}
	}()
}

// watchConfig hot-reloads the config file. Reloaded force options become
// the defaults for instances created afterwards; onReload is called after
// they are in place.
func (rt *app) watchConfig(ctx context.Context, onReload func(*config.Config)) (*config.Loader, error) {
	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}

	loader := config.NewLoader(path)
	loader.OnChange(func(cfg *config.Config) {
		forcify.ReplaceDefaults(cfg.Force)
		rt.logger.Info("configuration reloaded", "path", path)
		if onReload != nil {
			onReload(cfg)
		}
	})
	if err := loader.Watch(); err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-loader.Errors():
				rt.logger.Warn("configuration reload failed", "error", err)
			}
		}
	}()
	return loader, nil
}

func (rt *app) Close() {
	rt.stream.Close()
	if rt.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rt.server.Shutdown(ctx)
	}
	_ = rt.logger.Close()
}
