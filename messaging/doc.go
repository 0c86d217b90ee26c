// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API for NFTGate's
// room enforcement and settings management needs.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client that handles login, returning authenticated
// [DirectSession] values. Client holds the homeserver URL and HTTP
// transport, shared across all sessions derived from it.
//
// [DirectSession] wraps a Client with an access token for
// authenticated operations: membership management (join, leave, kick),
// messaging, state events (the gate settings live in room state),
// incremental sync with long-polling, and identity verification
// (WhoAmI). The access token is held in mmap-backed secret.Buffer
// memory, locked against swap and excluded from core dumps; callers
// must call Close to release it.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_NOT_FOUND, etc.) and HTTP status
// code. [IsMatrixError] tests for a specific error code. Request URLs
// are built by string concatenation rather than url.URL to avoid
// double-encoding of path segments.
//
// [RoomWatcher] tracks a position in the /sync stream for one room and
// delivers events via long-polling; the gatekeeper uses it to observe
// joins and settings changes.
package messaging
