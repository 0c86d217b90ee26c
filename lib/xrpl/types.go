// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package xrpl

import (
	"encoding/json"
	"strings"
)

// NFT is a single token as reported by the Bithomp
// /api/v2/nfts?owner=... endpoint. Only the fields NFTGate consumes
// are decoded; the response carries many more.
type NFT struct {
	// NFTokenID is the 64-character token identifier.
	NFTokenID string `json:"nftokenID"`

	// Issuer is the classic address of the minting account.
	Issuer string `json:"issuer"`

	// NFTokenTaxon is the collection taxon. Bithomp sends it as a
	// JSON number; NFTGate compares taxons as strings, so json.Number
	// keeps the decimal rendering exact.
	NFTokenTaxon json.Number `json:"nftokenTaxon"`

	// Collection is the marketplace collection name, when known.
	Collection string `json:"collection"`

	// Metadata is the decoded token metadata (XLS-20 style), when
	// Bithomp resolved it. Absent for tokens with unreachable URIs.
	Metadata *NFTMetadata `json:"metadata"`
}

// NFTMetadata is the subset of XLS-20 token metadata NFTGate reads.
type NFTMetadata struct {
	Name       string              `json:"name"`
	Image      string              `json:"image"`
	Attributes []MetadataAttribute `json:"attributes"`
}

// MetadataAttribute is one trait on a token. Values can be strings,
// numbers, or booleans in the wild; Normalized renders them all as
// strings so trait conditions compare by exact text.
type MetadataAttribute struct {
	TraitType string          `json:"trait_type"`
	Value     json.RawMessage `json:"value"`
}

// Normalized returns the attribute value as a comparison string.
// JSON strings are unquoted; numbers and booleans keep their JSON
// text. Null and malformed values normalize to "".
func (a MetadataAttribute) Normalized() string {
	var asString string
	if err := json.Unmarshal(a.Value, &asString); err == nil {
		return asString
	}
	text := strings.TrimSpace(string(a.Value))
	if text == "null" {
		return ""
	}
	return text
}

// Taxon returns the collection taxon as the string the condition tree
// stores.
func (n NFT) Taxon() string { return n.NFTokenTaxon.String() }

// ImageURL returns the token's image with IPFS URIs rewritten to the
// public ipfs.io gateway. Fragments are percent-encoded because some
// collections put '#<serial>' in the image path.
func (n NFT) ImageURL() string {
	if n.Metadata == nil || n.Metadata.Image == "" {
		return ""
	}
	image := strings.Replace(n.Metadata.Image, "ipfs://", "https://ipfs.io/ipfs/", 1)
	return strings.ReplaceAll(image, "#", "%23")
}

// nftsResponse is the envelope Bithomp wraps token lists in.
type nftsResponse struct {
	Owner string `json:"owner"`
	NFTs  []NFT  `json:"nfts"`
}
