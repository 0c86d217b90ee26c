// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/nftgate-foundation/nftgate/cmd/nftgate/cli"
	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/policyfile"
)

// describeCommand returns the "describe" subcommand: render a policy
// file as the human-readable requirement sentence.
func describeCommand() *cli.Command {
	var showFingerprint bool

	return &cli.Command{
		Name:    "describe",
		Summary: "Render a policy file as a human-readable requirement",
		Description: `Parse a JSONC policy file and print the requirement it encodes, in
the same wording the settings editor shows to admins.`,
		Usage: "nftgate describe [flags] <policy-file>",
		Examples: []cli.Example{
			{
				Description: "Describe a policy",
				Command:     "nftgate describe founders.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("describe", pflag.ContinueOnError)
			flags.BoolVar(&showFingerprint, "fingerprint", false, "also print the policy fingerprint")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 argument, got %d\n\nusage: nftgate describe [flags] <policy-file>", len(args))
			}

			settings, err := policyfile.ReadFile(args[0])
			if err != nil {
				return err
			}

			fmt.Println(gate.Describe(settings.ConditionTree))
			if settings.KickMessage != "" {
				fmt.Printf("kick message: %s\n", settings.KickMessage)
			}
			if showFingerprint {
				fingerprint, err := gate.Fingerprint(settings.ConditionTree)
				if err != nil {
					return err
				}
				fmt.Printf("fingerprint: %s\n", fingerprint)
			}
			return nil
		},
	}
}
