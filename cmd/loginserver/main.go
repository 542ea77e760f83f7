// Command loginserver runs the login listener in isolation, for local
// development or testing the login surface independently of a channel
// listener. Migration tickets it issues live only in this process's
// memory: redeeming them requires a channel listener sharing the same
// session manager, which in production means running cmd/shroomd
// instead of this binary alongside a separate cmd/channelserver.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrelnet/shroomd/internal/bootstrap"
	"github.com/kestrelnet/shroomd/internal/channelserver"
	"github.com/kestrelnet/shroomd/internal/config"
	"github.com/kestrelnet/shroomd/internal/loginserver"
	"github.com/kestrelnet/shroomd/internal/session"
)

const configPath = "config/loginserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	slog.Info("login server starting")

	path := configPath
	if p := os.Getenv("SHROOMD_LOGIN_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.LoadLoginServer(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if v := os.Getenv("LISTEN_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	if v := os.Getenv("CHARACTER_STORE_CONNECTION"); v != "" {
		cfg.CharacterStoreConnection = v
	}

	store, closeStore, err := bootstrap.OpenCharacterStore(ctx, cfg.CharacterStoreConnection)
	if err != nil {
		return fmt.Errorf("opening character store: %w", err)
	}
	defer closeStore()

	mgr := session.NewManager(store, channelserver.DefaultFactory)
	channelAddr := os.Getenv("CHANNEL_ADDRESS")
	if channelAddr == "" {
		channelAddr = "127.0.0.1:8485"
	}

	srv := loginserver.NewServer(cfg, mgr, channelAddr)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("running login server: %w", err)
	}
	return nil
}
