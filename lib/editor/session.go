// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package editor implements the admin editing session for a room's
// gate settings: the saved condition tree, per-category in-progress
// drafts, and the merge-on-save logic that folds drafts back into the
// canonical tree.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/schema"
)

// ErrSaveInFlight reports a save attempt while a previous save has
// not yet resolved. The attempt is rejected, not queued; the caller
// may retry after the pending save completes.
var ErrSaveInFlight = errors.New("editor: a save is already in progress")

// ErrNotLoaded reports an operation on a session before Load has
// fetched the room's settings.
var ErrNotLoaded = errors.New("editor: session not loaded")

// SettingsStore is the persistence collaborator for room settings.
// Implemented by settings.Store over Matrix room state; tests supply
// fakes.
type SettingsStore interface {
	// FetchSettings returns the room's persisted settings, or the
	// default settings if the room has none.
	FetchSettings(ctx context.Context, roomID ref.RoomID) (schema.RoomSettings, error)

	// SaveSettings persists the room's settings.
	SaveSettings(ctx context.Context, roomID ref.RoomID, settings schema.RoomSettings) error
}

// Status is the editing session's lifecycle state.
type Status string

const (
	// StatusIdle: no unsaved edits.
	StatusIdle Status = "idle"

	// StatusEditing: at least one draft differs from the saved tree.
	StatusEditing Status = "editing"

	// StatusSaving: a save is in flight.
	StatusSaving Status = "saving"
)

type draft struct {
	tree gate.Node
	// touched is set on the first edit. A draft that happens to equal
	// the saved subtree still counts as clean; touched only gates
	// whether the draft participates in merge and dirty computation.
	touched bool
}

// Session manages one admin's editing state for one room. Each
// editing category (basic, quantity, traits) keeps an independent
// in-progress draft; switching tabs never discards the other tabs'
// drafts. Saving merges every touched draft into the canonical tree,
// last writer wins per category, and persists the result.
//
// Session methods are safe for concurrent use, though the intended
// access pattern is a single caller. At most one save is in flight at
// a time; concurrent attempts fail with ErrSaveInFlight.
type Session struct {
	store  SettingsStore
	roomID ref.RoomID
	logger *slog.Logger

	mu           sync.Mutex
	loaded       bool
	saved        schema.RoomSettings
	drafts       map[gate.Category]*draft
	kickDraft    *string
	activeTab    gate.Category
	saveInFlight bool
	saveError    error
}

// NewSession creates an unloaded session for a room. Call Load before
// any other operation. A nil logger discards log output.
func NewSession(store SettingsStore, roomID ref.RoomID, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		store:     store,
		roomID:    roomID,
		logger:    logger,
		drafts:    make(map[gate.Category]*draft),
		activeTab: gate.CategoryBasic,
	}
}

// Load fetches the room's settings and resets the session: the saved
// tree is replaced, all drafts are cleared, and the session returns
// to idle. Safe to call again to re-sync with the store.
func (s *Session) Load(ctx context.Context) error {
	settings, err := s.store.FetchSettings(ctx, s.roomID)
	if err != nil {
		return fmt.Errorf("loading settings for %s: %w", s.roomID, err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("settings for %s: %w", s.roomID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = settings
	s.drafts = make(map[gate.Category]*draft)
	s.kickDraft = nil
	s.saveError = nil
	s.loaded = true

	s.logger.Debug("editing session loaded",
		"room_id", s.roomID,
		"policy", gate.Describe(settings.ConditionTree),
	)
	return nil
}

// ActiveTab returns the currently selected editing category.
func (s *Session) ActiveTab() gate.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// SetTab switches the active editing category. Drafts of the other
// categories are retained.
func (s *Session) SetTab(category gate.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = category
}

// DisplayedTree returns the subtree the active tab should show: the
// tab's draft if one exists, else the saved tree's subtree for the
// category. The second return is false when neither exists.
func (s *Session) DisplayedTree() (gate.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[s.activeTab]; ok {
		return d.tree.Clone(), true
	}
	return gate.CategorySubtree(s.saved.ConditionTree, s.activeTab)
}

// UpdateDraft writes an updated subtree into the active tab's draft
// slot and marks it touched. The other tabs' drafts and the saved
// tree are unaffected until Save.
func (s *Session) UpdateDraft(subtree gate.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	s.drafts[s.activeTab] = &draft{tree: subtree.Clone(), touched: true}
	return nil
}

// SetKickMessage stages a new kick message. Like tree drafts, the
// change is not persisted until Save.
func (s *Session) SetKickMessage(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	s.kickDraft = &message
	return nil
}

// DiscardDraft drops the draft for a category, reverting the tab to
// the saved tree.
func (s *Session) DiscardDraft(category gate.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, category)
}

// HasUnsavedChanges reports whether any touched draft differs by
// value from the saved tree's corresponding subtree, or a new kick
// message is staged.
func (s *Session) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsavedLocked()
}

func (s *Session) unsavedLocked() bool {
	if s.kickDraft != nil && *s.kickDraft != s.saved.KickMessage {
		return true
	}
	for category, d := range s.drafts {
		if !d.touched {
			continue
		}
		savedSubtree, ok := gate.CategorySubtree(s.saved.ConditionTree, category)
		if !ok || !gate.Equal(d.tree, savedSubtree) {
			return true
		}
	}
	return false
}

// Status returns the session's lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.saveInFlight:
		return StatusSaving
	case s.unsavedLocked():
		return StatusEditing
	default:
		return StatusIdle
	}
}

// SaveError returns the error from the most recent failed save, or
// nil. Cleared by a successful save or by Load.
func (s *Session) SaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveError
}

// Saved returns a copy of the session's last known persisted settings.
func (s *Session) Saved() schema.RoomSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.saved
	saved.ConditionTree = saved.ConditionTree.Clone()
	return saved
}

// Save merges every touched draft into the canonical tree (each draft
// wholly replaces its category's subtree) and persists the result. On
// success the merged tree becomes the saved tree and all drafts are
// cleared. On failure the drafts are retained so the admin can retry
// without losing work, and SaveError reports the cause.
//
// At most one save may be in flight; a concurrent attempt fails
// immediately with ErrSaveInFlight and does not disturb the pending
// save.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	if s.saveInFlight {
		s.mu.Unlock()
		return ErrSaveInFlight
	}

	merged := s.saved
	merged.ConditionTree = s.saved.ConditionTree.Clone()
	for category, d := range s.drafts {
		if d.touched {
			merged.ConditionTree = gate.ReplaceCategory(merged.ConditionTree, category, d.tree)
		}
	}
	if s.kickDraft != nil {
		merged.KickMessage = *s.kickDraft
	}
	s.saveInFlight = true
	s.mu.Unlock()

	// The store call runs outside the lock so a concurrent Save gets
	// the busy error instead of blocking.
	err := s.store.SaveSettings(ctx, s.roomID, merged)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveInFlight = false
	if err != nil {
		s.saveError = fmt.Errorf("saving settings for %s: %w", s.roomID, err)
		s.logger.Warn("settings save failed",
			"room_id", s.roomID,
			"error", err,
		)
		return s.saveError
	}

	s.saved = merged
	s.drafts = make(map[gate.Category]*draft)
	s.kickDraft = nil
	s.saveError = nil
	s.logger.Info("settings saved",
		"room_id", s.roomID,
		"policy", gate.Describe(merged.ConditionTree),
	)
	return nil
}
