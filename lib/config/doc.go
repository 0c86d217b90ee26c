// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for NFTGate
// components.
//
// Configuration is loaded from a single file specified by either the
// NFTGATE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${NFTGATE_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Secrets (the Matrix access token, the Bithomp API key) are
// referenced by file path and loaded into secret.Buffer values by
// the commands, never inlined in the config file itself.
//
// Key exports:
//
//   - [Config] -- master struct with Matrix, XRPL, Cache, Gatekeeper
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other NFTGate packages.
package config
