// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/nftgate-foundation/nftgate/lib/editor"
	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/schema"
	"github.com/nftgate-foundation/nftgate/messaging"
)

// The store is the production implementation of the editor's
// persistence contract.
var _ editor.SettingsStore = (*Store)(nil)

var testRoom = ref.MustParseRoomID("!gated:test.local")

type fakeStateSession struct {
	state   map[string]json.RawMessage
	sendErr error
	getErr  error
}

func stateKeyFor(roomID ref.RoomID, eventType ref.EventType) string {
	return roomID.String() + "/" + eventType.String()
}

func (f *fakeStateSession) GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	content, ok := f.state[stateKeyFor(roomID, eventType)]
	if !ok {
		return nil, &messaging.MatrixError{
			Code:       messaging.ErrCodeNotFound,
			Message:    "Event not found.",
			StatusCode: http.StatusNotFound,
		}
	}
	return content, nil
}

func (f *fakeStateSession) SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error) {
	if f.sendErr != nil {
		return ref.EventID{}, f.sendErr
	}
	encoded, err := json.Marshal(content)
	if err != nil {
		return ref.EventID{}, err
	}
	if f.state == nil {
		f.state = make(map[string]json.RawMessage)
	}
	f.state[stateKeyFor(roomID, eventType)] = encoded
	return ref.MustParseEventID("$saved:test.local"), nil
}

func TestFetchSettings_MissingEventReturnsDefaults(t *testing.T) {
	store := NewStore(&fakeStateSession{}, nil)

	settings, err := store.FetchSettings(context.Background(), testRoom)
	if err != nil {
		t.Fatalf("FetchSettings failed: %v", err)
	}
	if !gate.Evaluate(settings.ConditionTree, nil) {
		t.Error("default policy must admit everyone")
	}
}

func TestFetchSettings_OtherErrorsPropagate(t *testing.T) {
	store := NewStore(&fakeStateSession{getErr: errors.New("homeserver unreachable")}, nil)
	if _, err := store.FetchSettings(context.Background(), testRoom); err == nil {
		t.Fatal("expected error for unreachable homeserver")
	}
}

func TestSaveFetch_RoundTrip(t *testing.T) {
	session := &fakeStateSession{}
	store := NewStore(session, nil)

	saved := schema.RoomSettings{
		ConditionTree: gate.Node{Type: gate.KindGroup, Operator: gate.OpOr, Children: []gate.Node{
			{Type: gate.KindLock, Issuer: "rISSUER", Taxon: "7", NFTCount: 2},
		}},
		KickMessage: "holders only",
	}
	if err := store.SaveSettings(context.Background(), testRoom, saved); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	fetched, err := store.FetchSettings(context.Background(), testRoom)
	if err != nil {
		t.Fatalf("FetchSettings failed: %v", err)
	}
	if !gate.Equal(fetched.ConditionTree, saved.ConditionTree) {
		t.Error("condition tree changed across persistence round trip")
	}
	if fetched.KickMessage != "holders only" {
		t.Errorf("kick message changed: %q", fetched.KickMessage)
	}
}

func TestSaveSettings_RejectsMalformedTree(t *testing.T) {
	session := &fakeStateSession{}
	store := NewStore(session, nil)

	err := store.SaveSettings(context.Background(), testRoom, schema.RoomSettings{
		ConditionTree: gate.Node{Type: "mystery"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(session.state) != 0 {
		t.Error("malformed settings must not reach the homeserver")
	}
}

func TestFetchSettings_RejectsCorruptState(t *testing.T) {
	session := &fakeStateSession{state: map[string]json.RawMessage{
		stateKeyFor(testRoom, schema.EventTypeRoomSettings): json.RawMessage(`{"conditionTree": {"type": "mystery"}}`),
	}}
	store := NewStore(session, nil)

	if _, err := store.FetchSettings(context.Background(), testRoom); err == nil {
		t.Fatal("expected error for corrupt stored tree")
	}
}
