// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// The nftgate-keeper daemon enforces NFT gate policies on Matrix
// rooms. It watches each configured room for joins and settings
// changes, verifies members' XRPL NFT holdings through Bithomp, and
// removes members who fail the room's condition tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nftgate-foundation/nftgate/gatekeeper"
	"github.com/nftgate-foundation/nftgate/lib/config"
	"github.com/nftgate-foundation/nftgate/lib/process"
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/secret"
	"github.com/nftgate-foundation/nftgate/lib/version"
	"github.com/nftgate-foundation/nftgate/lib/xrpl"
	"github.com/nftgate-foundation/nftgate/messaging"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool
	var logLevel string
	pflag.StringVar(&configPath, "config", "", "path to nftgate.yaml (default: $NFTGATE_CONFIG)")
	pflag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		version.Print("nftgate-keeper")
		return nil
	}

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	holdings, cleanup, err := newHoldings(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rooms := make([]ref.RoomID, 0, len(cfg.Gatekeeper.Rooms))
	for _, raw := range cfg.Gatekeeper.Rooms {
		roomID, err := ref.ParseRoomID(raw)
		if err != nil {
			return fmt.Errorf("gatekeeper.rooms: %w", err)
		}
		rooms = append(rooms, roomID)
	}

	keeper, err := gatekeeper.New(gatekeeper.Config{
		Session:       session,
		Holdings:      holdings,
		Rooms:         rooms,
		SweepInterval: cfg.Gatekeeper.SweepInterval.Std(),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	logger.Info("nftgate-keeper starting",
		"version", version.Info(),
		"homeserver", cfg.Matrix.HomeserverURL,
		"user_id", session.UserID(),
		"rooms", len(rooms),
	)

	err = keeper.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func newLogger(level string) (*slog.Logger, error) {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	})), nil
}

// connect authenticates against the homeserver with either a stored
// access token or a password login.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*messaging.DirectSession, error) {
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	userID, err := ref.ParseUserID(cfg.Matrix.UserID)
	if err != nil {
		return nil, fmt.Errorf("matrix.user_id: %w", err)
	}

	if cfg.Matrix.AccessTokenFile != "" {
		token, err := secret.ReadFromPath(cfg.Matrix.AccessTokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading access token: %w", err)
		}
		defer token.Close()
		session, err := client.SessionFromToken(userID, token.String())
		if err != nil {
			return nil, err
		}
		// Validate the token before enforcement starts.
		if _, err := session.WhoAmI(ctx); err != nil {
			session.Close()
			return nil, fmt.Errorf("validating access token: %w", err)
		}
		return session, nil
	}

	password, err := secret.ReadFromPath(cfg.Matrix.PasswordFile)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	defer password.Close()
	return client.Login(ctx, userID.Localpart(), password)
}

func newHoldings(cfg *config.Config, logger *slog.Logger) (xrpl.HoldingsProvider, func(), error) {
	clientConfig := xrpl.ClientConfig{
		BaseURL: cfg.XRPL.BithompURL,
		Logger:  logger,
	}
	if cfg.XRPL.BithompTokenFile != "" {
		token, err := secret.ReadFromPath(cfg.XRPL.BithompTokenFile)
		if err != nil {
			return nil, nil, fmt.Errorf("reading bithomp token: %w", err)
		}
		clientConfig.Token = token
	}

	client, err := xrpl.NewClient(clientConfig)
	if err != nil {
		return nil, nil, err
	}
	cached, err := xrpl.NewCachedProvider(client, xrpl.CacheConfig{
		Path:     cfg.Cache.Path,
		TTL:      cfg.Cache.TTL.Std(),
		PoolSize: cfg.Cache.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		cached.Close()
		if clientConfig.Token != nil {
			clientConfig.Token.Close()
		}
	}
	return cached, cleanup, nil
}
