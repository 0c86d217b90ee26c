// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package policyfile provides parsing and serialization for room gate
// policies authored on disk.
//
// The canonical policy format is the JSON stored in the
// m.nftgate.room_settings state event. On disk, policies are authored
// as JSONC (JSON extended with // line comments, /* block comments */,
// and trailing commas), so operators can annotate condition trees:
//
//	{
//	    "conditionTree": {
//	        "type": "group",
//	        "operator": "OR",
//	        "children": [
//	            // founders collection
//	            {"type": "lock", "issuer": "rIssuer...", "taxon": "7"},
//	        ],
//	    },
//	    "kickMessage": "Holders only.",
//	}
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → schema.RoomSettings
//  2. The result is validated; malformed trees never load
//  3. settings.Store.SaveSettings publishes it to the room
package policyfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/nftgate-foundation/nftgate/lib/schema"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals and validates the result as room gate settings.
func Parse(data []byte) (schema.RoomSettings, error) {
	stripped := jsonc.ToJSON(data)

	var settings schema.RoomSettings
	if err := json.Unmarshal(stripped, &settings); err != nil {
		return schema.RoomSettings{}, fmt.Errorf("parsing policy: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return schema.RoomSettings{}, fmt.Errorf("invalid policy: %w", err)
	}
	return settings, nil
}

// ReadFile reads a JSONC policy file from disk and parses it.
func ReadFile(path string) (schema.RoomSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.RoomSettings{}, fmt.Errorf("reading %s: %w", path, err)
	}

	settings, err := Parse(data)
	if err != nil {
		return schema.RoomSettings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// Format renders settings as indented JSON suitable for writing back
// to a policy file. Comments from the source file are not preserved.
func Format(settings schema.RoomSettings) ([]byte, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to format invalid policy: %w", err)
	}
	encoded, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("formatting policy: %w", err)
	}
	return append(encoded, '\n'), nil
}
