// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/nftgate-foundation/nftgate/cmd/nftgate/cli"
	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/policyfile"
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/settings"
)

// policyCommand returns the "policy" subcommand group for reading and
// writing room policies.
func policyCommand() *cli.Command {
	return &cli.Command{
		Name:    "policy",
		Summary: "Read and write room gate policies",
		Subcommands: []*cli.Command{
			policyGetCommand(),
			policySetCommand(),
		},
	}
}

func policyGetCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "get",
		Summary: "Print a room's current gate policy",
		Description: `Fetch the room's m.nftgate.room_settings state event and print it as
policy-file JSON. A room with no policy prints the default (admit
everyone).`,
		Usage: "nftgate policy get [flags] <room-id>",
		Examples: []cli.Example{
			{
				Description: "Save a room's policy to a file",
				Command:     "nftgate policy get '!gated:example.org' > policy.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to nftgate.yaml (default: $NFTGATE_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 argument, got %d\n\nusage: nftgate policy get [flags] <room-id>", len(args))
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			session, err := connectMatrix(ctx, cfg)
			if err != nil {
				return err
			}
			defer session.Close()

			store := settings.NewStore(session, cliLogger())
			roomSettings, err := store.FetchSettings(ctx, roomID)
			if err != nil {
				return err
			}

			formatted, err := policyfile.Format(roomSettings)
			if err != nil {
				return err
			}
			os.Stdout.Write(formatted)
			fmt.Fprintf(os.Stderr, "# %s\n", gate.Describe(roomSettings.ConditionTree))
			return nil
		},
	}
}

func policySetCommand() *cli.Command {
	var configPath string
	var dryRun bool

	return &cli.Command{
		Name:    "set",
		Summary: "Publish a policy file to a room",
		Description: `Parse a JSONC policy file and publish it as the room's
m.nftgate.room_settings state event. The gatekeeper re-sweeps the
room's members as soon as the event lands.`,
		Usage: "nftgate policy set [flags] <room-id> <policy-file>",
		Examples: []cli.Example{
			{
				Description: "Gate a room on a founders NFT",
				Command:     "nftgate policy set '!gated:example.org' founders.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("set", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to nftgate.yaml (default: $NFTGATE_CONFIG)")
			flags.BoolVar(&dryRun, "dry-run", false, "validate and describe without publishing")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 arguments, got %d\n\nusage: nftgate policy set [flags] <room-id> <policy-file>", len(args))
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}
			roomSettings, err := policyfile.ReadFile(args[1])
			if err != nil {
				return err
			}

			fmt.Printf("policy: %s\n", gate.Describe(roomSettings.ConditionTree))
			if dryRun {
				fmt.Println("dry run, not publishing")
				return nil
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			session, err := connectMatrix(ctx, cfg)
			if err != nil {
				return err
			}
			defer session.Close()

			store := settings.NewStore(session, cliLogger())
			if err := store.SaveSettings(ctx, roomID, roomSettings); err != nil {
				return err
			}
			fmt.Printf("published to %s\n", roomID)
			return nil
		},
	}
}
