// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nftgate-foundation/nftgate/lib/gate"
)

func TestRoomSettings_JSONShape(t *testing.T) {
	settings := RoomSettings{
		ConditionTree: gate.Node{
			Type: gate.KindGroup, Operator: gate.OpAnd,
			Children: []gate.Node{
				{Type: gate.KindLock, Issuer: "rISSUER", Taxon: "7", NFTCount: 2},
			},
		},
		KickMessage: "holders only",
	}

	data, err := json.Marshal(settings)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, want := range []string{`"conditionTree"`, `"kickMessage"`, `"type":"lock"`, `"nftCount":2`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("serialized settings missing %s: %s", want, data)
		}
	}

	var decoded RoomSettings
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !gate.Equal(settings.ConditionTree, decoded.ConditionTree) {
		t.Error("condition tree changed across round trip")
	}
	if decoded.KickMessage != "holders only" {
		t.Errorf("kick message changed: %q", decoded.KickMessage)
	}
}

func TestDefaultRoomSettings_AdmitsEveryone(t *testing.T) {
	settings := DefaultRoomSettings()
	if err := settings.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	if !gate.Evaluate(settings.ConditionTree, nil) {
		t.Error("default policy must admit a user with no holdings")
	}
	if settings.KickMessage == "" {
		t.Error("default kick message must not be empty")
	}
}

func TestRoomSettings_ValidateRejectsMalformedTree(t *testing.T) {
	settings := RoomSettings{
		ConditionTree: gate.Node{Type: "mystery"},
	}
	if err := settings.Validate(); err == nil {
		t.Error("expected validation error for unknown node type")
	}
}
