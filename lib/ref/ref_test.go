// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseRoomID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		roomID, err := ParseRoomID("!abc123:nftgate.local")
		if err != nil {
			t.Fatalf("ParseRoomID failed: %v", err)
		}
		if roomID.String() != "!abc123:nftgate.local" {
			t.Errorf("unexpected string form: %s", roomID)
		}
		if roomID.IsZero() {
			t.Error("parsed room ID should not be zero")
		}
	})

	invalid := []string{"", "abc:server", "!:server", "!abc", "!abc:"}
	for _, raw := range invalid {
		if _, err := ParseRoomID(raw); err == nil {
			t.Errorf("ParseRoomID(%q) should fail", raw)
		}
	}
}

func TestParseUserID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		userID, err := ParseUserID("@alice:nftgate.local")
		if err != nil {
			t.Fatalf("ParseUserID failed: %v", err)
		}
		if userID.Localpart() != "alice" {
			t.Errorf("unexpected localpart: %s", userID.Localpart())
		}
		if userID.Server() != "nftgate.local" {
			t.Errorf("unexpected server: %s", userID.Server())
		}
	})

	invalid := []string{"", "alice", "@alice", "@:server", "@alice:"}
	for _, raw := range invalid {
		if _, err := ParseUserID(raw); err == nil {
			t.Errorf("ParseUserID(%q) should fail", raw)
		}
	}
}

func TestParseEventID(t *testing.T) {
	if _, err := ParseEventID("$abc123"); err != nil {
		t.Fatalf("ParseEventID failed: %v", err)
	}
	for _, raw := range []string{"", "abc", "$"} {
		if _, err := ParseEventID(raw); err == nil {
			t.Errorf("ParseEventID(%q) should fail", raw)
		}
	}
}

func TestParseXRPLAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		account, err := ParseXRPLAccount("rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH")
		if err != nil {
			t.Fatalf("ParseXRPLAccount failed: %v", err)
		}
		if account.IsZero() {
			t.Error("parsed account should not be zero")
		}
	})

	invalid := []string{
		"",
		"N7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH", // missing r prefix
		"rshort",                             // too short
		"rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzR0", // '0' not in alphabet
	}
	for _, raw := range invalid {
		if _, err := ParseXRPLAccount(raw); err == nil {
			t.Errorf("ParseXRPLAccount(%q) should fail", raw)
		}
	}
}

func TestXRPLAccountFromUserID(t *testing.T) {
	t.Run("plain localpart", func(t *testing.T) {
		userID := MustParseUserID("@rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH:nftgate.local")
		account, err := XRPLAccountFromUserID(userID)
		if err != nil {
			t.Fatalf("XRPLAccountFromUserID failed: %v", err)
		}
		if account.String() != "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH" {
			t.Errorf("unexpected account: %s", account)
		}
	})

	t.Run("device-scoped suffix", func(t *testing.T) {
		userID := MustParseUserID("@rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH.phone:nftgate.local")
		account, err := XRPLAccountFromUserID(userID)
		if err != nil {
			t.Fatalf("XRPLAccountFromUserID failed: %v", err)
		}
		if account.String() != "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH" {
			t.Errorf("unexpected account: %s", account)
		}
	})

	t.Run("non-wallet localpart", func(t *testing.T) {
		userID := MustParseUserID("@alice:nftgate.local")
		if _, err := XRPLAccountFromUserID(userID); err == nil {
			t.Fatal("expected error for non-wallet localpart")
		}
	})
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Room  RoomID  `json:"room"`
		User  UserID  `json:"user"`
		Event EventID `json:"event,omitempty"`
	}

	original := payload{
		Room: MustParseRoomID("!room:nftgate.local"),
		User: MustParseUserID("@bob:nftgate.local"),
	}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Room != original.Room || decoded.User != original.User {
		t.Errorf("round trip mismatch: %+v != %+v", decoded, original)
	}

	// Invalid identifiers are rejected at deserialization.
	if err := json.Unmarshal([]byte(`{"room":"not-a-room"}`), &decoded); err == nil {
		t.Error("expected unmarshal error for invalid room ID")
	}
}
