// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package gate implements the condition-tree access policy model: a
// boolean expression tree over NFT-ownership predicates, combined with
// AND/OR groups, evaluated against a user's token holdings to produce
// an admit/deny decision.
//
// Trees are immutable values. Every mutation operation (AddCondition,
// AddSubgroup, ReplaceCategory) returns a new tree and leaves its
// input untouched, so callers can diff old against new by fingerprint
// to detect unsaved changes.
package gate

import (
	"errors"
	"fmt"
)

// Kind discriminates the node variants of a condition tree.
type Kind string

const (
	// KindLock is the basic ownership predicate: own at least
	// NFTCount tokens from an issuer/taxon pair.
	KindLock Kind = "lock"

	// KindQuantity is structurally identical to KindLock but edited
	// as a separate category. It expresses the deliberate intent
	// "owns at least N of collection X" rather than a default
	// single-token check.
	KindQuantity Kind = "quantity"

	// KindTraits requires owning a token from an issuer/taxon pair
	// whose metadata matches every listed trait exactly.
	KindTraits Kind = "traits"

	// KindGroup combines child nodes with an AND or OR operator.
	KindGroup Kind = "group"
)

// Operator is the boolean combinator of a group node.
type Operator string

const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// Node is one node of a condition tree: either a leaf predicate
// (lock, quantity, traits) or a group. The zero Node is an
// unconfigured lock leaf that never grants access.
//
// The wire shape is the persisted room-settings JSON: leaves carry
// issuer/taxon plus variant fields, groups carry operator/children.
type Node struct {
	Type Kind `json:"type"`

	// Leaf fields. A leaf with an empty Issuer or Taxon is a
	// placeholder: it always evaluates false and is rendered as
	// "(unconfigured)". Trait values are normalized to strings;
	// numeric metadata is compared by its decimal rendering.
	Issuer      string            `json:"issuer,omitempty"`
	Taxon       string            `json:"taxon,omitempty"`
	NFTCount    int               `json:"nftCount,omitempty"`
	NFTImageURL string            `json:"nftImageUrl,omitempty"`
	Traits      map[string]string `json:"traits,omitempty"`

	// Group fields.
	Operator Operator `json:"operator,omitempty"`
	Children []Node   `json:"children,omitempty"`
}

// Path addresses a group node as the sequence of child indices from
// the root. The empty path addresses the root itself.
type Path []int

// ErrBadPath reports a path that does not resolve to a group node.
// Mutations fail without modifying the tree.
var ErrBadPath = errors.New("gate: path does not resolve to a group")

// IsGroup reports whether the node is an AND/OR group rather than a
// leaf predicate.
func (n Node) IsGroup() bool { return n.Type == KindGroup }

// IsPlaceholder reports whether a leaf is missing its issuer or
// taxon. Placeholder leaves never grant access.
func (n Node) IsPlaceholder() bool {
	return !n.IsGroup() && (n.Issuer == "" || n.Taxon == "")
}

// NewLeaf returns a default placeholder leaf of the given kind, ready
// for the admin to fill in. Lock and quantity leaves start with a
// count of one; traits leaves start with an empty trait map.
func NewLeaf(kind Kind) Node {
	switch kind {
	case KindTraits:
		return Node{Type: KindTraits, Traits: map[string]string{}}
	default:
		return Node{Type: kind, NFTCount: 1}
	}
}

// NewGroup returns an empty group with the given operator.
func NewGroup(operator Operator) Node {
	return Node{Type: KindGroup, Operator: operator}
}

// AddCondition returns a new tree with leaf appended to the children
// of the group at path. The input tree is not modified. Returns
// ErrBadPath if path does not resolve to a group.
func AddCondition(tree Node, path Path, leaf Node) (Node, error) {
	return appendChild(tree, path, leaf)
}

// AddSubgroup returns a new tree with an empty group of the given
// operator appended to the children of the group at path. The input
// tree is not modified. Returns ErrBadPath if path does not resolve
// to a group.
func AddSubgroup(tree Node, path Path, operator Operator) (Node, error) {
	return appendChild(tree, path, NewGroup(operator))
}

func appendChild(tree Node, path Path, child Node) (Node, error) {
	updated := tree.Clone()
	target := &updated
	for _, index := range path {
		if !target.IsGroup() || index < 0 || index >= len(target.Children) {
			return Node{}, fmt.Errorf("%w: index %d at depth in path %v", ErrBadPath, index, path)
		}
		target = &target.Children[index]
	}
	if !target.IsGroup() {
		return Node{}, fmt.Errorf("%w: node at %v is a %s leaf", ErrBadPath, path, target.Type)
	}
	target.Children = append(target.Children, child.Clone())
	return updated, nil
}

// Clone returns a deep copy of the node. Mutating the copy never
// affects the original.
func (n Node) Clone() Node {
	clone := n
	if n.Traits != nil {
		clone.Traits = make(map[string]string, len(n.Traits))
		for key, value := range n.Traits {
			clone.Traits[key] = value
		}
	}
	if n.Children != nil {
		clone.Children = make([]Node, len(n.Children))
		for index, child := range n.Children {
			clone.Children[index] = child.Clone()
		}
	}
	return clone
}

// Validate checks the tree for structural problems: unknown type
// tags, groups with an operator other than AND/OR, or leaves carrying
// group fields. Placeholder leaves are valid; they simply never
// match. Returns the first problem found.
func (n Node) Validate() error {
	switch n.Type {
	case KindGroup:
		if n.Operator != OpAnd && n.Operator != OpOr {
			return fmt.Errorf("gate: group has invalid operator %q", n.Operator)
		}
		for index, child := range n.Children {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("child %d: %w", index, err)
			}
		}
		return nil
	case KindLock, KindQuantity:
		if n.NFTCount < 0 {
			return fmt.Errorf("gate: %s leaf has negative count %d", n.Type, n.NFTCount)
		}
		if len(n.Children) > 0 {
			return fmt.Errorf("gate: %s leaf has children", n.Type)
		}
		return nil
	case KindTraits:
		if len(n.Children) > 0 {
			return fmt.Errorf("gate: traits leaf has children")
		}
		return nil
	default:
		return fmt.Errorf("gate: unknown node type %q", n.Type)
	}
}
