// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"fmt"
	"sort"
	"strings"
)

// Describe renders the tree as a stable, human-readable sentence.
// Groups render as their children joined by the operator inside
// parentheses; leaves render from fixed templates. Placeholder leaves
// render as "(unconfigured)" so admins can see incomplete rules.
//
// The output depends only on the tree value: children render in
// order, and trait keys are sorted before rendering.
func Describe(tree Node) string {
	var builder strings.Builder
	describeNode(&builder, tree)
	return builder.String()
}

func describeNode(builder *strings.Builder, node Node) {
	if node.Type == KindGroup {
		separator := " " + string(node.Operator) + " "
		builder.WriteString("(")
		for index, child := range node.Children {
			if index > 0 {
				builder.WriteString(separator)
			}
			describeNode(builder, child)
		}
		builder.WriteString(")")
		return
	}

	if node.IsPlaceholder() {
		builder.WriteString("(unconfigured)")
		return
	}

	switch node.Type {
	case KindLock, KindQuantity:
		count := node.NFTCount
		if count < 1 {
			count = 1
		}
		fmt.Fprintf(builder, "own at least %d NFT(s) from issuer %s taxon %s",
			count, node.Issuer, node.Taxon)
	case KindTraits:
		fmt.Fprintf(builder, "own an NFT from issuer %s taxon %s",
			node.Issuer, node.Taxon)
		keys := make([]string, 0, len(node.Traits))
		for key := range node.Traits {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for index, key := range keys {
			if index == 0 {
				builder.WriteString(" with trait ")
			} else {
				builder.WriteString(" and ")
			}
			fmt.Fprintf(builder, "%s=%s", key, node.Traits[key])
		}
	default:
		builder.WriteString("(unconfigured)")
	}
}
