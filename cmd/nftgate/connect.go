// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nftgate-foundation/nftgate/lib/config"
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/secret"
	"github.com/nftgate-foundation/nftgate/lib/xrpl"
	"github.com/nftgate-foundation/nftgate/messaging"
)

// loadConfig loads the NFTGate config from --config or NFTGATE_CONFIG.
func loadConfig(configPath string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// cliLogger returns a logger for CLI commands: warnings and errors to
// stderr, quiet otherwise.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// connectMatrix creates an authenticated Matrix session from the
// config's credentials. The caller must Close the session.
func connectMatrix(ctx context.Context, cfg *config.Config) (messaging.Session, error) {
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		Logger:        cliLogger(),
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
		return client.SessionFromToken(userID, token.String())
	}

	password, err := secret.ReadFromPath(cfg.Matrix.PasswordFile)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	defer password.Close()
	return client.Login(ctx, userID.Localpart(), password)
}

// newHoldingsProvider creates the Bithomp-backed holdings provider
// with the configured cache. The returned cleanup closes the cache.
func newHoldingsProvider(cfg *config.Config) (xrpl.HoldingsProvider, func(), error) {
	clientConfig := xrpl.ClientConfig{
		BaseURL: cfg.XRPL.BithompURL,
		Logger:  cliLogger(),
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

	if err := cfg.EnsurePaths(); err != nil {
		return nil, nil, err
	}
	cached, err := xrpl.NewCachedProvider(client, xrpl.CacheConfig{
		Path:     cfg.Cache.Path,
		TTL:      cfg.Cache.TTL.Std(),
		PoolSize: cfg.Cache.PoolSize,
		Logger:   cliLogger(),
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
