// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/nftgate-foundation/nftgate/lib/codec"
)

// Fingerprint returns a stable content hash of the tree: BLAKE3 over
// the tree's deterministic CBOR encoding. Two trees have equal
// fingerprints iff they are the same value, so the editing session
// uses fingerprints to detect unsaved changes.
func Fingerprint(tree Node) (string, error) {
	encoded, err := codec.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("gate: encoding tree for fingerprint: %w", err)
	}
	sum := blake3.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// Equal reports whether two trees are the same value. Trait maps
// compare by contents, children by order.
func Equal(a, b Node) bool {
	if a.Type != b.Type || a.Issuer != b.Issuer || a.Taxon != b.Taxon ||
		a.NFTCount != b.NFTCount || a.NFTImageURL != b.NFTImageURL ||
		a.Operator != b.Operator {
		return false
	}
	if len(a.Traits) != len(b.Traits) || len(a.Children) != len(b.Children) {
		return false
	}
	for key, value := range a.Traits {
		if other, ok := b.Traits[key]; !ok || other != value {
			return false
		}
	}
	for index := range a.Children {
		if !Equal(a.Children[index], b.Children[index]) {
			return false
		}
	}
	return true
}
