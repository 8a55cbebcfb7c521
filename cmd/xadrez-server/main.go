package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/G4briel-Rodrigues/xadrez-novo/internal/arena"
	appcfg "github.com/G4briel-Rodrigues/xadrez-novo/internal/config"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/history"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/msgcat"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/obslog"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/status"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/store"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/transport"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.L().Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	users, err := store.Open(ctx, cfg.RedisURL)
	if err != nil {
		obslog.L().Fatal("store_init_error", zap.Error(err))
	}
	defer users.Close()

	cat, err := msgcat.New(cfg.MessageOverridePath)
	if err != nil {
		obslog.L().Fatal("msgcat_init_error", zap.Error(err))
	}

	hub := transport.NewHub()
	coord := arena.New(arena.Config{
		Rooms:        cfg.Rooms,
		ClockSeconds: cfg.ClockSeconds,
		RankingSize:  cfg.RankingSize,
	}, users, cat, hub)

	if cfg.DatabaseURL != "" {
		repo, err := history.NewRepository(cfg.DatabaseURL)
		if err != nil {
			obslog.L().Fatal("history_init_error", zap.Error(err))
		}
		defer repo.Close()
		coord.AttachHistory(repo)
	}

	go coord.Run(ctx)

	wsServer := transport.NewServer(hub, coord)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           wsServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		obslog.L().Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("http_serve_error", zap.Error(err))
		}
	}()

	var statusSrv *status.Server
	if cfg.StatusAddr != "" {
		statusSrv = status.New(users, cfg.RankingSize)
		go func() {
			obslog.L().Info("status_listening", zap.String("addr", cfg.StatusAddr))
			if err := statusSrv.ListenAndServe(cfg.StatusAddr); err != nil {
				obslog.L().Error("status_serve_error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	obslog.L().Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		obslog.L().Warn("http_shutdown_error", zap.Error(err))
	}
	if statusSrv != nil {
		if err := statusSrv.Shutdown(); err != nil {
			obslog.L().Warn("status_shutdown_error", zap.Error(err))
		}
	}
	cancel()
}
