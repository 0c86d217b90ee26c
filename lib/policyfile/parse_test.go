// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package policyfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nftgate-foundation/nftgate/lib/gate"
)

const annotatedPolicy = `{
	// Admit founders or anyone with two common passes.
	"conditionTree": {
		"type": "group",
		"operator": "OR",
		"children": [
			{"type": "lock", "issuer": "rFounders", "taxon": "1"},
			/* quantity conditions count across all matching tokens */
			{"type": "quantity", "issuer": "rCommon", "taxon": "7", "nftCount": 2},
		],
	},
	"kickMessage": "Holders only.",
}`

func TestParse_StripsCommentsAndTrailingCommas(t *testing.T) {
	settings, err := Parse([]byte(annotatedPolicy))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tree := settings.ConditionTree
	if tree.Operator != gate.OpOr || len(tree.Children) != 2 {
		t.Fatalf("unexpected tree shape: %+v", tree)
	}
	if tree.Children[1].NFTCount != 2 {
		t.Errorf("nftCount lost: %+v", tree.Children[1])
	}
	if settings.KickMessage != "Holders only." {
		t.Errorf("unexpected kick message: %q", settings.KickMessage)
	}

	founders := gate.Holdings{{Issuer: "rFounders", Taxon: "1", Count: 1}}
	if !gate.Evaluate(tree, founders) {
		t.Error("founder holding must satisfy the parsed policy")
	}
}

func TestParse_RejectsUnknownConditionType(t *testing.T) {
	_, err := Parse([]byte(`{"conditionTree": {"type": "mystery"}}`))
	if err == nil {
		t.Fatal("expected validation error for unknown condition type")
	}
}

func TestParse_RejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"conditionTree": `))
	if err == nil {
		t.Fatal("expected error for truncated input")
	}
}

func TestReadFile_RoundTripThroughFormat(t *testing.T) {
	settings, err := Parse([]byte(annotatedPolicy))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	formatted, err := Format(settings)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "policy.jsonc")
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	reread, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !gate.Equal(reread.ConditionTree, settings.ConditionTree) {
		t.Error("condition tree changed across format round trip")
	}
}

func TestReadFile_MissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.jsonc"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
