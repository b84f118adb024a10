package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/chimera-chess/relay-server/internal/config"
	"github.com/chimera-chess/relay-server/internal/gateway"
	"github.com/chimera-chess/relay-server/internal/lobbymirror"
	"github.com/chimera-chess/relay-server/internal/msgcat"
	"github.com/chimera-chess/relay-server/internal/obslog"
	"github.com/chimera-chess/relay-server/internal/relay"
	"github.com/chimera-chess/relay-server/internal/room"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	cat, err := msgcat.New(cfg.MsgcatDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	var opts []relay.Option
	if cfg.RedisURL != "" {
		mirror, err := lobbymirror.New(cfg.RedisURL)
		if err != nil {
			log.Fatalf("lobby mirror init error: %v", err)
		}
		defer mirror.Close()
		opts = append(opts, relay.WithLobbyMirror(mirror))
	}

	reg := gateway.NewRegistry()
	mgr := relay.NewManager(room.NewDirectory(), reg, cat, opts...)
	srv := gateway.NewServer(cfg, reg, mgr)

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			obslog.L().Error("server_error", zap.Error(err))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("server_shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obslog.L().Error("shutdown_error", zap.Error(err))
	}
}
