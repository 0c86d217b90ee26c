// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines NFTGate's Matrix event types and the typed
// content structs persisted in room state.
package schema

import (
	"fmt"

	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/ref"
)

// NFTGate state event types.
const (
	// EventTypeRoomSettings holds a room's access policy: the
	// condition tree plus the message shown to users who fail it.
	//
	// State key: "" (one policy per room)
	EventTypeRoomSettings ref.EventType = "m.nftgate.room_settings"
)

// Standard Matrix event types NFTGate reads or writes.
const (
	MatrixEventTypePowerLevels ref.EventType = "m.room.power_levels"
	MatrixEventTypeMember      ref.EventType = "m.room.member"
	MatrixEventTypeMessage     ref.EventType = "m.room.message"
)

// Matrix m.room.member membership values.
const (
	MembershipJoin   = "join"
	MembershipLeave  = "leave"
	MembershipInvite = "invite"
	MembershipBan    = "ban"
)

// RoomSettings is the content of an EventTypeRoomSettings state event:
// the externally persisted unit of a room's access policy.
type RoomSettings struct {
	// ConditionTree is the root of the room's access policy.
	ConditionTree gate.Node `json:"conditionTree"`

	// KickMessage is shown to a user removed for failing the gate.
	KickMessage string `json:"kickMessage"`
}

// DefaultRoomSettings returns the policy for a room with no settings
// event: an empty AND group, which admits everyone (vacuous truth),
// and a generic kick message.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		ConditionTree: gate.NewGroup(gate.OpAnd),
		KickMessage:   "You do not hold the NFTs required to join this room.",
	}
}

// Validate checks the settings for structural problems in the
// condition tree.
func (s RoomSettings) Validate() error {
	if err := s.ConditionTree.Validate(); err != nil {
		return fmt.Errorf("condition tree: %w", err)
	}
	return nil
}

// MemberContent is the content of an m.room.member event.
type MemberContent struct {
	Membership  string `json:"membership"`
	DisplayName string `json:"displayname,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
