package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ideabridge.org/internal/config"
	"ideabridge.org/internal/devserver"
	"ideabridge.org/internal/obs"
)

var version = "0.1.0"

func main() {
	var (
		configFile = flag.String("config", "", "Path to ideabridge.yaml")
		basePath   = flag.String("base", "/api", "Path prefix for API routes")
		addr       = flag.String("addr", "", "Listen address (overrides devserver.addr)")
	)
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigFile: *configFile})
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := obs.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer obs.SetLogger(logger)()
	defer logger.Sync()

	obs.Init()
	obs.InitBuildInfo("devserver", version)

	srv, err := devserver.New(devserver.Config{
		BasePath:      *basePath,
		Secret:        cfg.DevServer.Secret,
		TokenTTL:      cfg.DevServer.TokenTTL,
		AdminEmail:    cfg.DevServer.AdminEmail,
		AdminPassword: cfg.DevServer.AdminPassword,
		RatePerSec:    50,
		Burst:         100,
		Version:       version,
	})
	if err != nil {
		logger.Fatal("devserver init failed", zap.Error(err))
	}

	listen := cfg.DevServer.Addr
	if *addr != "" {
		listen = *addr
	}
	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting devserver", zap.String("version", version), zap.String("addr", listen), zap.String("base", *basePath))

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	logger.Info("stopped")
}
