// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings persists room gate settings as Matrix room state.
// The policy for a room lives in a single m.nftgate.room_settings
// state event with an empty state key.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/schema"
	"github.com/nftgate-foundation/nftgate/messaging"
)

// Store reads and writes room gate settings through a Matrix session.
// It implements editor.SettingsStore.
type Store struct {
	session schema.StateSession
	logger  *slog.Logger
}

// NewStore creates a settings store backed by a Matrix session. A nil
// logger discards log output.
func NewStore(session schema.StateSession, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{session: session, logger: logger}
}

// FetchSettings returns the room's persisted gate settings. A room
// with no settings event gets the default policy (admit everyone), so
// rooms are ungated until an admin configures them.
func (s *Store) FetchSettings(ctx context.Context, roomID ref.RoomID) (schema.RoomSettings, error) {
	raw, err := s.session.GetStateEvent(ctx, roomID, schema.EventTypeRoomSettings, "")
	if err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
			s.logger.Debug("no settings event, using defaults", "room_id", roomID)
			return schema.DefaultRoomSettings(), nil
		}
		return schema.RoomSettings{}, fmt.Errorf("settings: fetching for %s: %w", roomID, err)
	}

	var settings schema.RoomSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return schema.RoomSettings{}, fmt.Errorf("settings: parsing for %s: %w", roomID, err)
	}
	if err := settings.Validate(); err != nil {
		return schema.RoomSettings{}, fmt.Errorf("settings: stored settings for %s: %w", roomID, err)
	}
	return settings, nil
}

// SaveSettings validates and persists the room's gate settings.
func (s *Store) SaveSettings(ctx context.Context, roomID ref.RoomID, settings schema.RoomSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("settings: refusing to save for %s: %w", roomID, err)
	}

	eventID, err := s.session.SendStateEvent(ctx, roomID, schema.EventTypeRoomSettings, "", settings)
	if err != nil {
		return fmt.Errorf("settings: saving for %s: %w", roomID, err)
	}
	s.logger.Info("room settings saved",
		"room_id", roomID,
		"event_id", eventID,
	)
	return nil
}
