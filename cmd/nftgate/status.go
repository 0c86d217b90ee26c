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
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/schema"
	"github.com/nftgate-foundation/nftgate/lib/settings"
	"github.com/nftgate-foundation/nftgate/lib/xrpl"
)

// statusCommand returns the "status" subcommand: a dry-run sweep that
// reports which members would pass or fail the room's current policy.
func statusCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "status",
		Summary: "Report each room member's standing against the policy",
		Description: `List every joined member of a room with their standing: PASS, FAIL,
ADMIN (exempt), or UNKNOWN (holdings unavailable or no XRPL identity).
Nothing is kicked; this is the read-only view of what the keeper
would enforce.`,
		Usage: "nftgate status [flags] <room-id>",
		Examples: []cli.Example{
			{
				Description: "Audit a gated room",
				Command:     "nftgate status '!gated:example.org'",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to nftgate.yaml (default: $NFTGATE_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 argument, got %d\n\nusage: nftgate status [flags] <room-id>", len(args))
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

			provider, cleanup, err := newHoldingsProvider(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			store := settings.NewStore(session, cliLogger())
			roomSettings, err := store.FetchSettings(ctx, roomID)
			if err != nil {
				return err
			}
			members, err := session.GetRoomMembers(ctx, roomID)
			if err != nil {
				return err
			}

			fmt.Printf("policy: %s\n\n", gate.Describe(roomSettings.ConditionTree))
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			for _, member := range members {
				if member.Membership != schema.MembershipJoin {
					continue
				}
				standing := memberStanding(ctx, session, provider, roomID, member.UserID, roomSettings.ConditionTree)
				fmt.Fprintf(tw, "%s\t%s\n", standing, member.UserID)
			}
			return tw.Flush()
		},
	}
}

func memberStanding(ctx context.Context, session schema.StateSession, provider xrpl.HoldingsProvider, roomID ref.RoomID, userID ref.UserID, tree gate.Node) string {
	access, _ := schema.CheckAdminAccess(ctx, session, roomID, userID)
	if access == schema.AccessGranted {
		return "ADMIN"
	}
	account, err := ref.XRPLAccountFromUserID(userID)
	if err != nil {
		return "UNKNOWN"
	}
	holdings, err := provider.Holdings(ctx, account)
	if err != nil {
		return "UNKNOWN"
	}
	if gate.Evaluate(tree, holdings) {
		return "PASS"
	}
	return "FAIL"
}
