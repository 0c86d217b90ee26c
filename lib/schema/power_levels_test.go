// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nftgate-foundation/nftgate/lib/ref"
)

type fakeStateSession struct {
	content json.RawMessage
	err     error
}

func (s *fakeStateSession) GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error) {
	return s.content, s.err
}

func (s *fakeStateSession) SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error) {
	return ref.EventID{}, nil
}

func TestUserLevel(t *testing.T) {
	levelFifty := 50
	powerLevels := PowerLevels{
		Users:        map[string]int{"@admin:example.org": 100},
		UsersDefault: &levelFifty,
	}

	if level := powerLevels.UserLevel("@admin:example.org"); level != 100 {
		t.Errorf("explicit entry: got %d, want 100", level)
	}
	if level := powerLevels.UserLevel("@other:example.org"); level != 50 {
		t.Errorf("default fallback: got %d, want 50", level)
	}

	empty := PowerLevels{}
	if level := empty.UserLevel("@anyone:example.org"); level != 0 {
		t.Errorf("spec default: got %d, want 0", level)
	}
}

func TestCheckAdminAccess(t *testing.T) {
	roomID := ref.MustParseRoomID("!room:example.org")
	admin := ref.MustParseUserID("@admin:example.org")
	visitor := ref.MustParseUserID("@visitor:example.org")

	session := &fakeStateSession{
		content: json.RawMessage(`{"users": {"@admin:example.org": 100, "@visitor:example.org": 50}}`),
	}

	access, err := CheckAdminAccess(context.Background(), session, roomID, admin)
	if err != nil {
		t.Fatalf("CheckAdminAccess failed: %v", err)
	}
	if access != AccessGranted {
		t.Errorf("admin at level 100: got %s, want granted", access)
	}

	access, err = CheckAdminAccess(context.Background(), session, roomID, visitor)
	if err != nil {
		t.Fatalf("CheckAdminAccess failed: %v", err)
	}
	if access != AccessDenied {
		t.Errorf("user at level 50: got %s, want denied", access)
	}
}

func TestCheckAdminAccess_LookupFailureDenies(t *testing.T) {
	session := &fakeStateSession{err: errors.New("network down")}
	access, err := CheckAdminAccess(context.Background(),
		session,
		ref.MustParseRoomID("!room:example.org"),
		ref.MustParseUserID("@admin:example.org"))
	if err == nil {
		t.Error("expected error from failed lookup")
	}
	if access != AccessDenied {
		t.Errorf("failed lookup must deny, got %s", access)
	}
}
