// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package gatekeeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nftgate-foundation/nftgate/lib/clock"
	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/schema"
	"github.com/nftgate-foundation/nftgate/lib/settings"
	"github.com/nftgate-foundation/nftgate/lib/xrpl"
	"github.com/nftgate-foundation/nftgate/messaging"
)

// Config holds the parameters for creating a Gatekeeper.
type Config struct {
	// Session is the Matrix session of the gatekeeper account.
	// Required.
	Session messaging.Session

	// Holdings resolves XRPL accounts to NFT holdings. Required.
	Holdings xrpl.HoldingsProvider

	// Rooms lists the rooms to enforce. If empty, every room the
	// session has joined is enforced.
	Rooms []ref.RoomID

	// SweepInterval is how often each room's full member list is
	// re-checked, independent of join events. Zero disables
	// periodic sweeps.
	SweepInterval time.Duration

	// Clock provides time for sweep scheduling. If nil, the real
	// clock is used.
	Clock clock.Clock

	// Logger receives enforcement decisions. If nil, logs are
	// discarded.
	Logger *slog.Logger
}

// Gatekeeper enforces gate policies across a set of rooms. Create
// with New, then call Run; Run blocks until the context is cancelled
// or an unrecoverable error occurs.
type Gatekeeper struct {
	session       messaging.Session
	holdings      xrpl.HoldingsProvider
	store         *settings.Store
	rooms         []ref.RoomID
	sweepInterval time.Duration
	clock         clock.Clock
	logger        *slog.Logger
}

// New creates a Gatekeeper.
func New(cfg Config) (*Gatekeeper, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("gatekeeper: Session is required")
	}
	if cfg.Holdings == nil {
		return nil, fmt.Errorf("gatekeeper: Holdings is required")
	}

	timeSource := cfg.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Gatekeeper{
		session:       cfg.Session,
		holdings:      cfg.Holdings,
		store:         settings.NewStore(cfg.Session, logger),
		rooms:         cfg.Rooms,
		sweepInterval: cfg.SweepInterval,
		clock:         timeSource,
		logger:        logger,
	}, nil
}

// Run enforces all configured rooms until ctx is cancelled. Each room
// gets its own watcher goroutine; the first room that fails
// unrecoverably (for example, the sync loop exhausting its retries)
// stops the whole gatekeeper so the operator notices.
func (g *Gatekeeper) Run(ctx context.Context) error {
	rooms := g.rooms
	if len(rooms) == 0 {
		joined, err := g.session.JoinedRooms(ctx)
		if err != nil {
			return fmt.Errorf("gatekeeper: listing joined rooms: %w", err)
		}
		rooms = joined
	}
	if len(rooms) == 0 {
		return fmt.Errorf("gatekeeper: no rooms to enforce")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	failures := make(chan error, len(rooms))
	for _, roomID := range rooms {
		wg.Add(1)
		go func(roomID ref.RoomID) {
			defer wg.Done()
			if err := g.guardRoom(runCtx, roomID); err != nil && !errors.Is(err, context.Canceled) {
				failures <- fmt.Errorf("gatekeeper: room %s: %w", roomID, err)
				cancel()
			}
		}(roomID)
	}

	wg.Wait()
	close(failures)
	if err := <-failures; err != nil {
		return err
	}
	return ctx.Err()
}

// roomGuard is the per-room enforcement state. The settings snapshot
// is shared between the event loop and the periodic sweep goroutine.
type roomGuard struct {
	gatekeeper *Gatekeeper
	roomID     ref.RoomID

	mu       sync.Mutex
	settings schema.RoomSettings
}

func (g *Gatekeeper) guardRoom(ctx context.Context, roomID ref.RoomID) error {
	initial, err := g.store.FetchSettings(ctx, roomID)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	guard := &roomGuard{gatekeeper: g, roomID: roomID, settings: initial}

	// Start the watcher before the initial sweep so joins during the
	// sweep are not missed.
	watcher, err := messaging.WatchRoom(ctx, g.session, roomID, &messaging.SyncFilter{
		TimelineTypes: []string{
			string(schema.MatrixEventTypeMember),
			string(schema.EventTypeRoomSettings),
		},
		TimelineLimit: 50,
		ExcludeState:  true,
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	g.logger.Info("enforcing room",
		"room_id", roomID,
		"policy", gate.Describe(initial.ConditionTree),
	)

	guard.sweep(ctx)

	if g.sweepInterval > 0 {
		go guard.sweepLoop(ctx)
	}

	for {
		event, err := watcher.WaitForEvent(ctx, func(event messaging.Event) bool {
			switch event.Type {
			case schema.MatrixEventTypeMember, schema.EventTypeRoomSettings:
				return true
			}
			return false
		})
		if err != nil {
			return fmt.Errorf("watching room: %w", err)
		}
		guard.handleEvent(ctx, event)
	}
}

// sweepLoop re-checks the full member list on the configured interval.
func (guard *roomGuard) sweepLoop(ctx context.Context) {
	g := guard.gatekeeper
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.clock.After(g.sweepInterval):
			guard.sweep(ctx)
		}
	}
}

func (guard *roomGuard) handleEvent(ctx context.Context, event messaging.Event) {
	g := guard.gatekeeper
	switch event.Type {
	case schema.EventTypeRoomSettings:
		guard.applySettingsEvent(ctx, event)

	case schema.MatrixEventTypeMember:
		if event.StateKey == nil {
			return
		}
		userID, err := ref.ParseUserID(*event.StateKey)
		if err != nil {
			g.logger.Warn("member event with invalid state key",
				"room_id", guard.roomID,
				"state_key", *event.StateKey,
			)
			return
		}
		content, err := json.Marshal(event.Content)
		if err != nil {
			return
		}
		var member schema.MemberContent
		if err := json.Unmarshal(content, &member); err != nil {
			return
		}
		if member.Membership != schema.MembershipJoin {
			return
		}
		guard.checkMember(ctx, userID)
	}
}

// applySettingsEvent swaps in a new settings snapshot and re-sweeps
// the room under the new policy. A malformed settings event keeps the
// previous policy in force.
func (guard *roomGuard) applySettingsEvent(ctx context.Context, event messaging.Event) {
	g := guard.gatekeeper

	content, err := json.Marshal(event.Content)
	if err != nil {
		return
	}
	var updated schema.RoomSettings
	if err := json.Unmarshal(content, &updated); err != nil {
		g.logger.Warn("unparseable settings event, keeping previous policy",
			"room_id", guard.roomID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}
	if err := updated.Validate(); err != nil {
		g.logger.Warn("invalid settings event, keeping previous policy",
			"room_id", guard.roomID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	guard.mu.Lock()
	guard.settings = updated
	guard.mu.Unlock()

	g.logger.Info("room policy updated",
		"room_id", guard.roomID,
		"sender", event.Sender,
		"policy", gate.Describe(updated.ConditionTree),
	)
	guard.sweep(ctx)
}

// sweep checks every joined member against the current policy.
func (guard *roomGuard) sweep(ctx context.Context) {
	g := guard.gatekeeper
	members, err := g.session.GetRoomMembers(ctx, guard.roomID)
	if err != nil {
		g.logger.Error("member sweep failed",
			"room_id", guard.roomID,
			"error", err,
		)
		return
	}
	for _, member := range members {
		if member.Membership != schema.MembershipJoin {
			continue
		}
		guard.checkMember(ctx, member.UserID)
	}
}

// checkMember evaluates one member against the current policy and
// kicks them if they fail. The gatekeeper account and room admins are
// exempt.
func (guard *roomGuard) checkMember(ctx context.Context, userID ref.UserID) {
	g := guard.gatekeeper
	if userID == g.session.UserID() {
		return
	}

	access, err := schema.CheckAdminAccess(ctx, g.session, guard.roomID, userID)
	if err != nil {
		// No readable power levels means no evidence of admin
		// authority; the member is checked like anyone else.
		g.logger.Debug("power level lookup failed",
			"room_id", guard.roomID,
			"user_id", userID,
			"error", err,
		)
	}
	if access == schema.AccessGranted {
		return
	}

	guard.mu.Lock()
	policy := guard.settings
	guard.mu.Unlock()

	account, err := ref.XRPLAccountFromUserID(userID)
	if err != nil {
		g.logger.Info("kicking member without XRPL identity",
			"room_id", guard.roomID,
			"user_id", userID,
		)
		guard.kick(ctx, userID, policy.KickMessage)
		return
	}

	holdings, err := g.holdings.Holdings(ctx, account)
	if err != nil {
		g.logger.Warn("kicking member with unverifiable holdings",
			"room_id", guard.roomID,
			"user_id", userID,
			"error", err,
		)
		guard.kick(ctx, userID, policy.KickMessage)
		return
	}

	if gate.Evaluate(policy.ConditionTree, holdings) {
		g.logger.Debug("member passes gate",
			"room_id", guard.roomID,
			"user_id", userID,
		)
		return
	}

	g.logger.Info("kicking member failing gate",
		"room_id", guard.roomID,
		"user_id", userID,
		"policy", gate.Describe(policy.ConditionTree),
	)
	guard.kick(ctx, userID, policy.KickMessage)
}

func (guard *roomGuard) kick(ctx context.Context, userID ref.UserID, reason string) {
	g := guard.gatekeeper
	if err := g.session.KickUser(ctx, guard.roomID, userID, reason); err != nil {
		g.logger.Error("kick failed",
			"room_id", guard.roomID,
			"user_id", userID,
			"error", err,
		)
	}
}
