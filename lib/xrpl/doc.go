// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package xrpl fetches NFT holdings for XRPL accounts through the
// Bithomp API and converts them into the holdings shape the gate
// evaluator consumes.
//
// The package has three layers:
//
//   - Client talks to Bithomp directly. Every failure is wrapped in
//     ErrHoldingsUnavailable so callers can treat "we do not know what
//     the account holds" as a single condition and deny access.
//
//   - CachedProvider wraps any HoldingsProvider with a SQLite-backed
//     TTL cache (CBOR payloads, zstd compressed). The gatekeeper uses
//     it to avoid hammering Bithomp when members rejoin or settings
//     change.
//
//   - ImageResolver resolves collection preview images for the
//     editing UI. Lookups for the same issuer/taxon key supersede each
//     other; a stale response is discarded instead of overwriting a
//     newer one.
package xrpl
