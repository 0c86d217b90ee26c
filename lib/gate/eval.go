// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package gate

// Holding is one aggregated owned-NFT descriptor: the number of
// tokens a user owns from an issuer/taxon pair, with the metadata
// traits of one representative token. A user's full portfolio is an
// ordered sequence of holdings, one entry per distinct token.
type Holding struct {
	Issuer string            `json:"issuer"`
	Taxon  string            `json:"taxon"`
	Count  int               `json:"count"`
	Traits map[string]string `json:"traits,omitempty"`
}

// Holdings is a user's owned-NFT snapshot as reported by the holdings
// provider.
type Holdings []Holding

// Evaluate decides whether the holdings satisfy the condition tree.
//
// The evaluation fails closed: a placeholder leaf (empty issuer or
// taxon) is false, an unknown node type is false, an empty AND group
// is vacuously true, and an empty OR group is vacuously false.
// Evaluation is pure and deterministic; the same tree and holdings
// always produce the same decision.
func Evaluate(tree Node, holdings Holdings) bool {
	return evalNode(tree, holdings, nil)
}

// LeafResult records the outcome of a single configured leaf during
// evaluation, for explaining a decision to the user.
type LeafResult struct {
	// Condition is the leaf that was checked.
	Condition Node

	// Satisfied reports whether the holdings met the leaf.
	Satisfied bool
}

// Result is the outcome of EvaluateDetailed: the overall decision
// plus the per-leaf trace in tree order. Placeholder leaves appear in
// the trace with Satisfied false.
type Result struct {
	Granted bool
	Leaves  []LeafResult
}

// EvaluateDetailed evaluates the tree and records the outcome of
// every leaf visited, in tree order. Unlike Evaluate it does not
// short-circuit, so the trace covers the whole tree.
func EvaluateDetailed(tree Node, holdings Holdings) Result {
	var result Result
	result.Granted = evalNode(tree, holdings, &result.Leaves)
	return result
}

// evalNode evaluates one node. When trace is non-nil every leaf
// outcome is appended to it and group evaluation visits all children;
// when nil, groups short-circuit.
func evalNode(node Node, holdings Holdings, trace *[]LeafResult) bool {
	if node.Type != KindGroup {
		satisfied := evalLeaf(node, holdings)
		if trace != nil {
			*trace = append(*trace, LeafResult{Condition: node, Satisfied: satisfied})
		}
		return satisfied
	}

	switch node.Operator {
	case OpAnd:
		// Vacuous truth for an empty AND group.
		all := true
		for _, child := range node.Children {
			if !evalNode(child, holdings, trace) {
				all = false
				if trace == nil {
					return false
				}
			}
		}
		return all
	case OpOr:
		// Vacuous falsity for an empty OR group.
		any := false
		for _, child := range node.Children {
			if evalNode(child, holdings, trace) {
				any = true
				if trace == nil {
					return true
				}
			}
		}
		return any
	default:
		// Malformed operator fails closed.
		return false
	}
}

func evalLeaf(leaf Node, holdings Holdings) bool {
	if leaf.IsPlaceholder() {
		return false
	}

	switch leaf.Type {
	case KindLock, KindQuantity:
		required := leaf.NFTCount
		if required < 1 {
			required = 1
		}
		owned := 0
		for _, holding := range holdings {
			if holding.Issuer == leaf.Issuer && holding.Taxon == leaf.Taxon {
				owned += holding.Count
			}
		}
		return owned >= required
	case KindTraits:
		for _, holding := range holdings {
			if holding.Issuer != leaf.Issuer || holding.Taxon != leaf.Taxon {
				continue
			}
			if holding.Count < 1 {
				continue
			}
			if traitsMatch(leaf.Traits, holding.Traits) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// traitsMatch reports whether the holding's traits contain every
// required key with an exactly equal value. No partial or fuzzy
// matching.
func traitsMatch(required, actual map[string]string) bool {
	for key, expected := range required {
		value, ok := actual[key]
		if !ok || value != expected {
			return false
		}
	}
	return true
}
