package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voting-app/votingapp/internal/app"
	"github.com/voting-app/votingapp/internal/config"
	"github.com/voting-app/votingapp/utils"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/local.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(configPath)

	log := utils.New(cfg.Env)

	if cfg.Env == envLocal || cfg.Env == envDev {
		log.Info("starting voting app", slog.Int("port", cfg.HTTP.Port), slog.String("env", cfg.Env))
	} else {
		log.Info("starting voting app")
	}

	application := app.NewApp(log, cfg.HTTP.Port, cfg.StoragePath, cfg.AppSecret, cfg.TokenTTL)

	go func() {
		if err := application.HTTPServer.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start HTTP server", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	signl := <-stop
	log.Info("shutting down voting app", slog.String("signal", signl.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Stop(ctx); err != nil {
		log.Error("failed to stop application", slog.Any("error", err))
	}

	log.Info("application stopped")
}
