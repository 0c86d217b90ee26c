// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import "testing"

func lockLeaf(issuer, taxon string, count int) Node {
	return Node{Type: KindLock, Issuer: issuer, Taxon: taxon, NFTCount: count}
}

func TestEvaluate_EmptyGroups(t *testing.T) {
	if !Evaluate(NewGroup(OpAnd), nil) {
		t.Error("empty AND group must evaluate true (vacuous truth)")
	}
	if Evaluate(NewGroup(OpOr), nil) {
		t.Error("empty OR group must evaluate false (vacuous falsity)")
	}
}

func TestEvaluate_PlaceholderLeafFailsClosed(t *testing.T) {
	holdings := Holdings{{Issuer: "rIssuer", Taxon: "7", Count: 5}}

	tests := []struct {
		name string
		leaf Node
	}{
		{"empty issuer", Node{Type: KindLock, Taxon: "7", NFTCount: 1}},
		{"empty taxon", Node{Type: KindLock, Issuer: "rIssuer", NFTCount: 1}},
		{"default leaf", NewLeaf(KindLock)},
		{"traits placeholder", NewLeaf(KindTraits)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if Evaluate(test.leaf, holdings) {
				t.Error("placeholder leaf must evaluate false regardless of holdings")
			}
		})
	}
}

func TestEvaluate_QuantityThreshold(t *testing.T) {
	tree := NewGroup(OpAnd)
	tree.Children = append(tree.Children, lockLeaf("rISSUER", "7", 2))

	holdings := Holdings{{Issuer: "rISSUER", Taxon: "7", Count: 2}}
	if !Evaluate(tree, holdings) {
		t.Error("owning exactly the required count must satisfy the leaf")
	}

	holdings = Holdings{{Issuer: "rISSUER", Taxon: "7", Count: 1}}
	if Evaluate(tree, holdings) {
		t.Error("owning fewer than the required count must not satisfy the leaf")
	}
}

func TestEvaluate_CountsAggregateAcrossHoldings(t *testing.T) {
	leaf := lockLeaf("rISSUER", "7", 3)
	holdings := Holdings{
		{Issuer: "rISSUER", Taxon: "7", Count: 1},
		{Issuer: "rOther", Taxon: "7", Count: 5},
		{Issuer: "rISSUER", Taxon: "7", Count: 2},
	}
	if !Evaluate(leaf, holdings) {
		t.Error("matching counts must aggregate across holdings entries")
	}
}

func TestEvaluate_OrGroup(t *testing.T) {
	tree := NewGroup(OpOr)
	tree.Children = append(tree.Children,
		lockLeaf("A", "1", 1),
		lockLeaf("B", "2", 1),
	)

	holdings := Holdings{{Issuer: "B", Taxon: "2", Count: 1}}
	if !Evaluate(tree, holdings) {
		t.Error("OR group must be satisfied by the second branch alone")
	}

	if Evaluate(tree, Holdings{{Issuer: "C", Taxon: "3", Count: 1}}) {
		t.Error("OR group with no satisfied branch must evaluate false")
	}
}

func TestEvaluate_TraitsExactMatch(t *testing.T) {
	leaf := Node{
		Type:   KindTraits,
		Issuer: "A",
		Taxon:  "1",
		Traits: map[string]string{"color": "red"},
	}

	blue := Holdings{{Issuer: "A", Taxon: "1", Count: 1, Traits: map[string]string{"color": "blue"}}}
	if Evaluate(leaf, blue) {
		t.Error("trait value mismatch must not satisfy the leaf")
	}

	red := Holdings{{Issuer: "A", Taxon: "1", Count: 1, Traits: map[string]string{"color": "red", "size": "L"}}}
	if !Evaluate(leaf, red) {
		t.Error("holding with all required traits (plus extras) must satisfy the leaf")
	}

	missing := Holdings{{Issuer: "A", Taxon: "1", Count: 1}}
	if Evaluate(leaf, missing) {
		t.Error("holding without the required trait must not satisfy the leaf")
	}
}

func TestEvaluate_TraitsRequireMatchingCollection(t *testing.T) {
	leaf := Node{
		Type:   KindTraits,
		Issuer: "A",
		Taxon:  "1",
		Traits: map[string]string{"color": "red"},
	}
	holdings := Holdings{{Issuer: "B", Taxon: "1", Count: 1, Traits: map[string]string{"color": "red"}}}
	if Evaluate(leaf, holdings) {
		t.Error("trait match on a different issuer must not satisfy the leaf")
	}
}

func TestEvaluate_NestedGroups(t *testing.T) {
	// AND(lock A/1, OR(lock B/2, traits C/3 color=red))
	inner := NewGroup(OpOr)
	inner.Children = append(inner.Children,
		lockLeaf("B", "2", 1),
		Node{Type: KindTraits, Issuer: "C", Taxon: "3", Traits: map[string]string{"color": "red"}},
	)
	tree := NewGroup(OpAnd)
	tree.Children = append(tree.Children, lockLeaf("A", "1", 1), inner)

	holdings := Holdings{
		{Issuer: "A", Taxon: "1", Count: 1},
		{Issuer: "C", Taxon: "3", Count: 1, Traits: map[string]string{"color": "red"}},
	}
	if !Evaluate(tree, holdings) {
		t.Error("nested tree must be satisfied via the traits branch")
	}

	if Evaluate(tree, Holdings{{Issuer: "A", Taxon: "1", Count: 1}}) {
		t.Error("inner OR unsatisfied must fail the outer AND")
	}
}

func TestEvaluate_UnknownTypeFailsClosed(t *testing.T) {
	tree := Node{Type: "mystery", Issuer: "A", Taxon: "1"}
	if Evaluate(tree, Holdings{{Issuer: "A", Taxon: "1", Count: 1}}) {
		t.Error("unknown node type must evaluate false")
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	tree := NewGroup(OpOr)
	tree.Children = append(tree.Children,
		lockLeaf("A", "1", 2),
		Node{Type: KindTraits, Issuer: "B", Taxon: "2", Traits: map[string]string{"tier": "gold"}},
	)
	holdings := Holdings{
		{Issuer: "B", Taxon: "2", Count: 1, Traits: map[string]string{"tier": "gold"}},
	}

	first := Evaluate(tree, holdings)
	for i := 0; i < 100; i++ {
		if Evaluate(tree, holdings) != first {
			t.Fatal("evaluation must be deterministic across repeated calls")
		}
	}
}

func TestEvaluateDetailed_TracesEveryLeaf(t *testing.T) {
	tree := NewGroup(OpAnd)
	tree.Children = append(tree.Children,
		lockLeaf("A", "1", 1),
		lockLeaf("B", "2", 1),
		NewLeaf(KindLock),
	)
	holdings := Holdings{{Issuer: "A", Taxon: "1", Count: 1}}

	result := EvaluateDetailed(tree, holdings)
	if result.Granted {
		t.Error("tree with unsatisfied leaves must deny")
	}
	if len(result.Leaves) != 3 {
		t.Fatalf("expected 3 leaf results, got %d", len(result.Leaves))
	}
	if !result.Leaves[0].Satisfied {
		t.Error("first leaf should be satisfied")
	}
	if result.Leaves[1].Satisfied {
		t.Error("second leaf should be unsatisfied")
	}
	if result.Leaves[2].Satisfied {
		t.Error("placeholder leaf should be unsatisfied")
	}
}

func TestEvaluate_DefaultCountIsOne(t *testing.T) {
	leaf := Node{Type: KindLock, Issuer: "A", Taxon: "1"}
	if !Evaluate(leaf, Holdings{{Issuer: "A", Taxon: "1", Count: 1}}) {
		t.Error("leaf without an explicit count must default to requiring one")
	}
	if Evaluate(leaf, nil) {
		t.Error("leaf must not be satisfied by empty holdings")
	}
}
