// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// The nftgate command is the operator CLI for NFTGate: it inspects
// and edits room gate policies, describes condition trees, and checks
// accounts against policies without touching a room.
package main

import (
	"fmt"
	"os"

	"github.com/nftgate-foundation/nftgate/cmd/nftgate/cli"
	"github.com/nftgate-foundation/nftgate/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cli.Command{
		Name:    "nftgate",
		Summary: "Manage NFT-gated Matrix rooms",
		Description: `nftgate manages NFT-gated Matrix rooms: rooms whose membership is
restricted to holders of specific XRPL NFTs. Policies are condition
trees combining lock, quantity, and trait conditions with AND/OR
groups; the nftgate-keeper daemon enforces them.`,
		Subcommands: []*cli.Command{
			describeCommand(),
			checkCommand(),
			policyCommand(),
			statusCommand(),
			versionCommand(),
		},
	}
	return root.Execute(os.Args[1:])
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			version.Print("nftgate")
			return nil
		},
	}
}
