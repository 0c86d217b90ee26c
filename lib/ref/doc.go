// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for NFTGate: Matrix room IDs, user IDs, event IDs and event types,
// and XRPL account addresses.
//
// All constructors validate their inputs and return errors for invalid
// identifiers. Once constructed, a ref is immutable. Identifiers enter
// the system at the boundary — homeserver responses, config files, CLI
// flags — and are parsed into these types there, so the rest of the
// code never handles raw strings.
//
// JSON marshaling uses the canonical string form via
// encoding.TextMarshaler.
package ref
