// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package gate

// Category is one of the three admin editing tabs. Each category owns
// one subtree of the canonical policy: the canonical tree's root is
// an AND group whose direct children each belong to one category.
type Category string

const (
	CategoryBasic    Category = "basic"
	CategoryQuantity Category = "quantity"
	CategoryTraits   Category = "traits"
)

// Categories lists the editing categories in display order.
var Categories = []Category{CategoryBasic, CategoryQuantity, CategoryTraits}

// LeafCategory maps a leaf kind to its editing category. Group nodes
// have no category of their own; see SubtreeCategory.
func LeafCategory(kind Kind) (Category, bool) {
	switch kind {
	case KindLock:
		return CategoryBasic, true
	case KindQuantity:
		return CategoryQuantity, true
	case KindTraits:
		return CategoryTraits, true
	default:
		return "", false
	}
}

// SubtreeCategory reports which editing category a subtree belongs
// to: the category of the first leaf found in tree order. Returns
// false for subtrees with no leaves (an empty group belongs to no
// category until it gains a condition).
func SubtreeCategory(node Node) (Category, bool) {
	if node.Type != KindGroup {
		return LeafCategory(node.Type)
	}
	for _, child := range node.Children {
		if category, ok := SubtreeCategory(child); ok {
			return category, true
		}
	}
	return "", false
}

// CategorySubtree extracts the subtree for a category from the
// canonical tree. If the root is an AND group, the first direct child
// belonging to the category is returned; otherwise the root itself is
// returned when it belongs to the category. The returned subtree is a
// copy; editing it does not affect the canonical tree.
func CategorySubtree(tree Node, category Category) (Node, bool) {
	if tree.Type == KindGroup && tree.Operator == OpAnd {
		for _, child := range tree.Children {
			if subtreeCategoryIs(child, category) {
				return child.Clone(), true
			}
		}
		return Node{}, false
	}
	if subtreeCategoryIs(tree, category) {
		return tree.Clone(), true
	}
	return Node{}, false
}

// ReplaceCategory returns a new canonical tree in which the
// category's subtree is wholly replaced by subtree. If the canonical
// root is not an AND group it is first wrapped in one, so every
// category keeps its own slot. A category with no existing slot gains
// one at the end. The input tree is not modified.
func ReplaceCategory(tree Node, category Category, subtree Node) Node {
	root := tree.Clone()
	if root.Type != KindGroup || root.Operator != OpAnd {
		wrapped := NewGroup(OpAnd)
		if root.Type != "" && !isEmptyGroup(root) {
			wrapped.Children = append(wrapped.Children, root)
		}
		root = wrapped
	}
	for index, child := range root.Children {
		if subtreeCategoryIs(child, category) {
			root.Children[index] = subtree.Clone()
			return root
		}
	}
	root.Children = append(root.Children, subtree.Clone())
	return root
}

func subtreeCategoryIs(node Node, category Category) bool {
	found, ok := SubtreeCategory(node)
	return ok && found == category
}

func isEmptyGroup(node Node) bool {
	return node.Type == KindGroup && len(node.Children) == 0
}
