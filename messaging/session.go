// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"

	"github.com/nftgate-foundation/nftgate/lib/ref"
)

// Session is the interface for the Matrix operations NFTGate's
// enforcement and settings code performs. *DirectSession is the
// production implementation; tests supply fakes backed by httptest
// servers or in-memory state.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID.
	UserID() ref.UserID

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// JoinRoom joins a room by room ID. Returns the room ID.
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)

	// JoinedRooms returns the list of room IDs the user has joined.
	JoinedRooms(ctx context.Context) ([]ref.RoomID, error)

	// GetStateEvent fetches a specific state event's content from a
	// room. Returns the raw JSON content for the caller to unmarshal.
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error)

	// SendStateEvent sends a state event to a room. Returns the event ID.
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error)

	// SendMessage sends a message to a room. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)

	// GetRoomMembers returns the members of a room.
	GetRoomMembers(ctx context.Context, roomID ref.RoomID) ([]RoomMember, error)

	// KickUser removes a user from a room with an optional reason.
	KickUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error

	// GetDisplayName fetches a user's display name.
	GetDisplayName(ctx context.Context, userID ref.UserID) (string, error)

	// Sync performs an incremental sync with the homeserver.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

// Compile-time check that DirectSession satisfies Session.
var _ Session = (*DirectSession)(nil)
