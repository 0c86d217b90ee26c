// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nftgate-foundation/nftgate/lib/ref"
)

// AdminPowerLevel is the minimum power level required to edit a
// room's gate settings.
const AdminPowerLevel = 100

// PowerLevels is a typed representation of the Matrix
// m.room.power_levels state event content. It supports typed
// read-modify-write operations: unmarshal the raw JSON from
// GetStateEvent, modify with SetUserLevel or SetEventLevel, then send
// the struct back with SendStateEvent.
//
// Pointer-to-int fields distinguish "not set" (nil, omitted from
// JSON) from "explicitly set to 0" (pointer to 0). This preserves
// server defaults for fields the caller doesn't touch.
type PowerLevels struct {
	Users         map[string]int `json:"users,omitempty"`
	UsersDefault  *int           `json:"users_default,omitempty"`
	Events        map[string]int `json:"events,omitempty"`
	EventsDefault *int           `json:"events_default,omitempty"`
	StateDefault  *int           `json:"state_default,omitempty"`
	Invite        *int           `json:"invite,omitempty"`
	Ban           *int           `json:"ban,omitempty"`
	Kick          *int           `json:"kick,omitempty"`
	Redact        *int           `json:"redact,omitempty"`
	Notifications map[string]int `json:"notifications,omitempty"`
}

// UserLevel returns the power level for a Matrix user ID string. If
// the user has an explicit entry in the Users map, that value is
// returned. Otherwise falls back to UsersDefault. If UsersDefault is
// also nil (not set), returns 0 per the Matrix spec default.
func (powerLevels *PowerLevels) UserLevel(userID string) int {
	if powerLevels.Users != nil {
		if level, ok := powerLevels.Users[userID]; ok {
			return level
		}
	}
	if powerLevels.UsersDefault != nil {
		return *powerLevels.UsersDefault
	}
	return 0
}

// SetUserLevel sets the power level for a Matrix user ID. Initializes
// the Users map if nil.
func (powerLevels *PowerLevels) SetUserLevel(userID ref.UserID, level int) {
	if powerLevels.Users == nil {
		powerLevels.Users = make(map[string]int)
	}
	powerLevels.Users[userID.String()] = level
}

// SetEventLevel sets the required power level for sending a given
// event type. Initializes the Events map if nil.
func (powerLevels *PowerLevels) SetEventLevel(eventType ref.EventType, level int) {
	if powerLevels.Events == nil {
		powerLevels.Events = make(map[string]int)
	}
	powerLevels.Events[string(eventType)] = level
}

// StateSession is the subset of the Matrix client-server API needed
// for state event read-modify-write operations. Satisfied implicitly
// by messaging.DirectSession.
type StateSession interface {
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error)
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error)
}

// AdminAccess is the outcome of the admin permission check gating the
// settings editor. Callers start in AccessPending until the power
// level lookup resolves.
type AdminAccess string

const (
	AccessPending AdminAccess = "pending"
	AccessDenied  AdminAccess = "denied"
	AccessGranted AdminAccess = "granted"
)

// CheckAdminAccess reads a room's power levels and reports whether
// the user may edit the room's gate settings (level >= AdminPowerLevel).
// A missing power_levels event denies access: without it there is no
// evidence of authority.
func CheckAdminAccess(ctx context.Context, session StateSession, roomID ref.RoomID, userID ref.UserID) (AdminAccess, error) {
	content, err := session.GetStateEvent(ctx, roomID, MatrixEventTypePowerLevels, "")
	if err != nil {
		return AccessDenied, fmt.Errorf("reading power levels for %s: %w", roomID, err)
	}

	var powerLevels PowerLevels
	if err := json.Unmarshal(content, &powerLevels); err != nil {
		return AccessDenied, fmt.Errorf("parsing power levels for %s: %w", roomID, err)
	}

	if powerLevels.UserLevel(userID.String()) >= AdminPowerLevel {
		return AccessGranted, nil
	}
	return AccessDenied, nil
}
