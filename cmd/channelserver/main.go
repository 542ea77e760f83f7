// Command channelserver runs the channel listener set in isolation, for
// local development or testing the channel surface independently of a
// login listener. It cannot redeem tickets issued by a separately
// running login process, since migration tickets live only in the
// issuing process's memory; run cmd/shroomd for a working login→channel
// handoff in one process.
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
	"github.com/kestrelnet/shroomd/internal/session"
)

const configPath = "config/channelserver.yaml"

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
	slog.Info("channel server starting")

	path := configPath
	if p := os.Getenv("SHROOMD_CHANNEL_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.LoadChannelServer(path)
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

	srv, err := channelserver.NewServer(cfg, mgr)
	if err != nil {
		return fmt.Errorf("building channel server: %w", err)
	}
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("running channel server: %w", err)
	}
	return nil
}
