// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/nftgate-foundation/nftgate/lib/ref"
)

// scriptedSession returns canned /sync responses in order. Other
// Session methods are unused by the watcher and panic if called.
type scriptedSession struct {
	Session
	responses []*SyncResponse
	errs      []error
	calls     int
}

func (s *scriptedSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	if s.calls >= len(s.responses) {
		return nil, errors.New("no more scripted responses")
	}
	index := s.calls
	s.calls++
	if s.errs != nil && s.errs[index] != nil {
		return nil, s.errs[index]
	}
	return s.responses[index], nil
}

func memberEvent(eventID, sender, membership string) Event {
	stateKey := sender
	return Event{
		EventID:  ref.MustParseEventID(eventID),
		Type:     "m.room.member",
		Sender:   ref.MustParseUserID(sender),
		StateKey: &stateKey,
		Content:  map[string]any{"membership": membership},
	}
}

func syncWithEvents(roomID ref.RoomID, nextBatch string, events ...Event) *SyncResponse {
	return &SyncResponse{
		NextBatch: nextBatch,
		Rooms: RoomsSection{
			Join: map[ref.RoomID]JoinedRoom{
				roomID: {Timeline: TimelineSection{Events: events}},
			},
		},
	}
}

func TestWaitForEvent_DeliversMatchingEvent(t *testing.T) {
	roomID := ref.MustParseRoomID("!gated:test.local")
	session := &scriptedSession{
		responses: []*SyncResponse{
			{NextBatch: "s1"},
			syncWithEvents(roomID, "s2",
				memberEvent("$e1:test.local", "@visitor:test.local", "join")),
		},
	}

	watcher, err := WatchRoom(context.Background(), session, roomID, nil)
	if err != nil {
		t.Fatalf("WatchRoom failed: %v", err)
	}

	event, err := watcher.WaitForEvent(context.Background(), func(event Event) bool {
		return event.Type == "m.room.member"
	})
	if err != nil {
		t.Fatalf("WaitForEvent failed: %v", err)
	}
	if event.Sender.String() != "@visitor:test.local" {
		t.Errorf("unexpected sender: %s", event.Sender)
	}
	if watcher.SyncPosition() != "s2" {
		t.Errorf("sync position not advanced: %s", watcher.SyncPosition())
	}
}

func TestWaitForEvent_BuffersUnconsumedEvents(t *testing.T) {
	roomID := ref.MustParseRoomID("!gated:test.local")
	session := &scriptedSession{
		responses: []*SyncResponse{
			{NextBatch: "s1"},
			syncWithEvents(roomID, "s2",
				memberEvent("$e1:test.local", "@first:test.local", "join"),
				memberEvent("$e2:test.local", "@second:test.local", "join")),
		},
	}

	watcher, err := WatchRoom(context.Background(), session, roomID, nil)
	if err != nil {
		t.Fatalf("WatchRoom failed: %v", err)
	}

	isJoin := func(event Event) bool { return event.Type == "m.room.member" }

	first, err := watcher.WaitForEvent(context.Background(), isJoin)
	if err != nil {
		t.Fatalf("first WaitForEvent failed: %v", err)
	}
	// The second event must come from the pending buffer without
	// another sync call.
	second, err := watcher.WaitForEvent(context.Background(), isJoin)
	if err != nil {
		t.Fatalf("second WaitForEvent failed: %v", err)
	}
	if first.Sender.String() != "@first:test.local" || second.Sender.String() != "@second:test.local" {
		t.Errorf("events out of order: %s, %s", first.Sender, second.Sender)
	}
	if session.calls != 2 {
		t.Errorf("expected 2 sync calls, got %d", session.calls)
	}
}

func TestWaitForEvent_RetriesTransientErrors(t *testing.T) {
	roomID := ref.MustParseRoomID("!gated:test.local")
	session := &scriptedSession{
		responses: []*SyncResponse{
			{NextBatch: "s1"},
			nil,
			syncWithEvents(roomID, "s3",
				memberEvent("$e1:test.local", "@visitor:test.local", "join")),
		},
		errs: []error{nil, errors.New("connection reset"), nil},
	}

	watcher, err := WatchRoom(context.Background(), session, roomID, nil)
	if err != nil {
		t.Fatalf("WatchRoom failed: %v", err)
	}

	event, err := watcher.WaitForEvent(context.Background(), func(event Event) bool {
		return event.Type == "m.room.member"
	})
	if err != nil {
		t.Fatalf("WaitForEvent must survive a transient sync error: %v", err)
	}
	if event.EventID.String() != "$e1:test.local" {
		t.Errorf("unexpected event: %s", event.EventID)
	}
}

func TestWaitForEvent_GivesUpAfterMaxRetries(t *testing.T) {
	roomID := ref.MustParseRoomID("!gated:test.local")
	responses := []*SyncResponse{{NextBatch: "s1"}}
	errs := []error{nil}
	for i := 0; i <= maxSyncRetries; i++ {
		responses = append(responses, nil)
		errs = append(errs, fmt.Errorf("failure %d", i))
	}
	session := &scriptedSession{responses: responses, errs: errs}

	watcher, err := WatchRoom(context.Background(), session, roomID, nil)
	if err != nil {
		t.Fatalf("WatchRoom failed: %v", err)
	}

	_, err = watcher.WaitForEvent(context.Background(), func(Event) bool { return true })
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestBuildInlineFilter(t *testing.T) {
	roomID := ref.MustParseRoomID("!gated:test.local")
	raw := buildInlineFilter(roomID, &SyncFilter{
		TimelineTypes: []string{"m.room.member"},
		TimelineLimit: 10,
		ExcludeState:  true,
	})

	var filter map[string]any
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		t.Fatalf("filter is not valid JSON: %v", err)
	}
	room, ok := filter["room"].(map[string]any)
	if !ok {
		t.Fatalf("missing room section: %s", raw)
	}
	rooms, ok := room["rooms"].([]any)
	if !ok || len(rooms) != 1 || rooms[0] != "!gated:test.local" {
		t.Errorf("filter not scoped to the room: %s", raw)
	}
	if _, ok := room["timeline"]; !ok {
		t.Errorf("timeline restriction missing: %s", raw)
	}
}
