// Command shroomd runs the login listener and the channel listener set
// in one process, sharing one session manager. A single process is
// required because migration tickets are held in memory only (see
// internal/session.Manager) and must be visible to both the listener
// that issues them and the listeners that redeem them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelnet/shroomd/internal/bootstrap"
	"github.com/kestrelnet/shroomd/internal/channelserver"
	"github.com/kestrelnet/shroomd/internal/config"
	"github.com/kestrelnet/shroomd/internal/loginserver"
	"github.com/kestrelnet/shroomd/internal/session"
)

const (
	loginConfigPath   = "config/loginserver.yaml"
	channelConfigPath = "config/channelserver.yaml"
)

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
	slog.Info("shroomd starting")

	loginCfg, err := config.LoadLoginServer(loginConfigPath)
	if err != nil {
		return fmt.Errorf("loading login config: %w", err)
	}
	channelCfg, err := config.LoadChannelServer(channelConfigPath)
	if err != nil {
		return fmt.Errorf("loading channel config: %w", err)
	}
	applyEnvOverrides(&loginCfg, &channelCfg)

	storeConn := loginCfg.CharacterStoreConnection
	if storeConn == "" {
		storeConn = channelCfg.CharacterStoreConnection
	}
	store, closeStore, err := bootstrap.OpenCharacterStore(ctx, storeConn)
	if err != nil {
		return fmt.Errorf("opening character store: %w", err)
	}
	defer closeStore()
	slog.Info("character store ready")

	mgr := session.NewManager(store, channelserver.DefaultFactory)

	channelListenHost := channelCfg.BindAddress
	if channelListenHost == "0.0.0.0" || channelListenHost == "" {
		channelListenHost = "127.0.0.1"
	}
	channelAddr := fmt.Sprintf("%s:%d", channelListenHost, channelCfg.ChannelPortStart)

	loginSrv := loginserver.NewServer(loginCfg, mgr, channelAddr)
	channelSrv, err := channelserver.NewServer(channelCfg, mgr)
	if err != nil {
		return fmt.Errorf("building channel server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loginSrv.Run(ctx) })
	g.Go(func() error { return channelSrv.Run(ctx) })

	return g.Wait()
}

func applyEnvOverrides(loginCfg *config.LoginServer, channelCfg *config.ChannelServer) {
	if v := os.Getenv("LISTEN_ADDRESS"); v != "" {
		loginCfg.BindAddress = v
		channelCfg.BindAddress = v
	}
	if v := os.Getenv("LOGIN_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			loginCfg.LoginPort = n
		}
	}
	if v := os.Getenv("CHANNEL_PORT_START"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			channelCfg.ChannelPortStart = n
		}
	}
	if v := os.Getenv("CHANNELS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			channelCfg.Channels = n
		}
	}
	if v := os.Getenv("TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			channelCfg.TickIntervalMs = n
		}
	}
	if v := os.Getenv("CHARACTER_STORE_CONNECTION"); v != "" {
		loginCfg.CharacterStoreConnection = v
		channelCfg.CharacterStoreConnection = v
	}
}
