// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/nftgate-foundation/nftgate/cmd/nftgate/cli"
	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/policyfile"
	"github.com/nftgate-foundation/nftgate/lib/ref"
)

// checkCommand returns the "check" subcommand: evaluate an XRPL
// account against a policy file without touching any room.
func checkCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "check",
		Summary: "Check an XRPL account against a policy file",
		Description: `Fetch an account's NFT holdings and evaluate them against a policy
file. Exits 0 if the account passes, 1 if it fails. With --verbose,
prints the outcome of every leaf condition.`,
		Usage: "nftgate check [flags] <policy-file> <xrpl-account>",
		Examples: []cli.Example{
			{
				Description: "Check a wallet against a policy",
				Command:     "nftgate check founders.jsonc rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to nftgate.yaml (default: $NFTGATE_CONFIG)")
			flags.BoolVarP(&verbose, "verbose", "v", false, "print per-condition results")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 arguments, got %d\n\nusage: nftgate check [flags] <policy-file> <xrpl-account>", len(args))
			}

			settings, err := policyfile.ReadFile(args[0])
			if err != nil {
				return err
			}
			account, err := ref.ParseXRPLAccount(args[1])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			provider, cleanup, err := newHoldingsProvider(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			holdings, err := provider.Holdings(context.Background(), account)
			if err != nil {
				return fmt.Errorf("fetching holdings for %s: %w", account, err)
			}

			result := gate.EvaluateDetailed(settings.ConditionTree, holdings)
			if verbose {
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				for _, leaf := range result.Leaves {
					outcome := "FAIL"
					if leaf.Satisfied {
						outcome = "PASS"
					}
					fmt.Fprintf(tw, "%s\t%s\n", outcome, gate.Describe(leaf.Condition))
				}
				tw.Flush()
			}

			if !result.Granted {
				fmt.Printf("%s fails: %s\n", account, gate.Describe(settings.ConditionTree))
				os.Exit(1)
			}
			fmt.Printf("%s passes: %s\n", account, gate.Describe(settings.ConditionTree))
			return nil
		},
	}
}
