// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/secret"
)

// testBuffer creates a secret.Buffer from a string for testing. The
// buffer is automatically closed when the test completes.
func testBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("creating test buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8008"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		if err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{HomeserverURL: "://invalid"})
		if err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/login" {
			t.Errorf("unexpected path: %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
			return
		}

		var body LoginRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body.Type != "m.login.password" {
			t.Errorf("unexpected login type: %s", body.Type)
		}
		if body.User != "gatekeeper" || body.Password != "hunter2" {
			t.Errorf("unexpected credentials: %s/%s", body.User, body.Password)
		}

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(AuthResponse{
			UserID:      ref.MustParseUserID("@gatekeeper:test.local"),
			AccessToken: "syt_gatekeeper_token",
			DeviceID:    "DEVICE1",
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	session, err := client.Login(context.Background(), "gatekeeper", testBuffer(t, "hunter2"))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	defer session.Close()

	if session.UserID().String() != "@gatekeeper:test.local" {
		t.Errorf("unexpected user ID: %s", session.UserID())
	}
	if session.DeviceID() != "DEVICE1" {
		t.Errorf("unexpected device ID: %s", session.DeviceID())
	}
}

func TestSessionFromToken_AuthorizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if got := request.Header.Get("Authorization"); got != "Bearer syt_test_token" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(WhoAmIResponse{
			UserID: ref.MustParseUserID("@gatekeeper:test.local"),
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@gatekeeper:test.local"), "syt_test_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	defer session.Close()

	userID, err := session.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI failed: %v", err)
	}
	if userID.String() != "@gatekeeper:test.local" {
		t.Errorf("unexpected user ID: %s", userID)
	}
}

func TestGetStateEvent_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusNotFound)
		json.NewEncoder(writer).Encode(map[string]string{
			"errcode": "M_NOT_FOUND",
			"error":   "Event not found.",
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@gatekeeper:test.local"), "syt_test_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	defer session.Close()

	_, err = session.GetStateEvent(context.Background(),
		ref.MustParseRoomID("!room:test.local"), "m.nftgate.room_settings", "")
	if err == nil {
		t.Fatal("expected error for missing state event")
	}
	if !IsMatrixError(err, ErrCodeNotFound) {
		t.Errorf("expected M_NOT_FOUND, got %v", err)
	}
}

func TestSendStateEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		wantPath := "/_matrix/client/v3/rooms/!room:test.local/state/m.nftgate.room_settings/"
		if request.URL.Path != wantPath {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		if request.Method != http.MethodPut {
			t.Errorf("unexpected method: %s", request.Method)
		}
		var content map[string]any
		if err := json.NewDecoder(request.Body).Decode(&content); err != nil {
			t.Fatalf("failed to decode content: %v", err)
		}
		if content["kickMessage"] != "holders only" {
			t.Errorf("unexpected content: %v", content)
		}

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]string{"event_id": "$settings1:test.local"})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@admin:test.local"), "syt_admin_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	defer session.Close()

	eventID, err := session.SendStateEvent(context.Background(),
		ref.MustParseRoomID("!room:test.local"), "m.nftgate.room_settings", "",
		map[string]any{"kickMessage": "holders only"})
	if err != nil {
		t.Fatalf("SendStateEvent failed: %v", err)
	}
	if eventID.String() != "$settings1:test.local" {
		t.Errorf("unexpected event ID: %s", eventID)
	}
}

func TestKickUser(t *testing.T) {
	var gotKick KickRequest
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if err := json.NewDecoder(request.Body).Decode(&gotKick); err != nil {
			t.Fatalf("failed to decode kick request: %v", err)
		}
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte("{}"))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@gatekeeper:test.local"), "syt_test_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	defer session.Close()

	err = session.KickUser(context.Background(),
		ref.MustParseRoomID("!room:test.local"),
		ref.MustParseUserID("@visitor:test.local"),
		"does not hold the required NFTs")
	if err != nil {
		t.Fatalf("KickUser failed: %v", err)
	}
	if gotKick.UserID.String() != "@visitor:test.local" {
		t.Errorf("unexpected kicked user: %s", gotKick.UserID)
	}
	if gotKick.Reason != "does not hold the required NFTs" {
		t.Errorf("unexpected reason: %q", gotKick.Reason)
	}
}

func TestSync_QueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()
		if query.Get("since") != "s123" {
			t.Errorf("unexpected since: %q", query.Get("since"))
		}
		if query.Get("timeout") != "30000" {
			t.Errorf("unexpected timeout: %q", query.Get("timeout"))
		}
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(SyncResponse{NextBatch: "s124"})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@gatekeeper:test.local"), "syt_test_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	defer session.Close()

	response, err := session.Sync(context.Background(), SyncOptions{
		Since:      "s123",
		SetTimeout: true,
		Timeout:    30000,
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if response.NextBatch != "s124" {
		t.Errorf("unexpected next batch: %s", response.NextBatch)
	}
}
