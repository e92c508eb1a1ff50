// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"os"
	"strconv"

	"github.com/blinklabs-io/nftbridge/event"
	"github.com/spf13/cobra"
)

func tokenCommand() *cobra.Command {
	var (
		flags   clientFlags
		after   uint64
		limit   int
		holders bool
	)
	cmd := &cobra.Command{
		Use:   "token [universal-token-id]",
		Short: "Show a bridged token, or list tokens when no ID is given",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustConfig(cmd)
			commonRun(os.Stderr)
			client, err := flags.client(cfg, false)
			exitOnError(err)
			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			if len(args) == 0 {
				tokens, err := client.Tokens(ctx, after, limit)
				exitOnError(err)
				exitOnError(printJSON(cmd.OutOrStdout(), tokens))
				return
			}
			universalTokenId, err := strconv.ParseUint(args[0], 10, 64)
			exitOnError(err)
			if holders {
				ret, err := client.Holders(ctx, universalTokenId)
				exitOnError(err)
				exitOnError(printJSON(cmd.OutOrStdout(), ret))
				return
			}
			token, err := client.Token(ctx, universalTokenId)
			exitOnError(err)
			exitOnError(printJSON(cmd.OutOrStdout(), token))
		},
	}
	flags.register(cmd, false)
	cmd.Flags().Uint64Var(&after, "after", 0, "list tokens with an ID greater than this")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tokens to list")
	cmd.Flags().BoolVar(&holders, "holders", false, "show the unit supply and balances instead of the record")
	return cmd
}

func eventsCommand() *cobra.Command {
	var (
		flags  clientFlags
		after  uint64
		limit  int
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List outbound burn events",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustConfig(cmd)
			logger := commonRun(os.Stderr)
			client, err := flags.client(cfg, false)
			exitOnError(err)
			if !follow {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				events, err := client.Events(ctx, after, limit)
				exitOnError(err)
				exitOnError(printJSON(cmd.OutOrStdout(), events))
				return
			}
			ctx, cancel := followContext(cmd.Context())
			defer cancel()
			logger.Info(
				"following outbound events",
				"component", programName,
				"after", after,
			)
			err = client.Follow(ctx, after, func(evt event.BurnToOriginEvent) error {
				return printJSON(cmd.OutOrStdout(), evt)
			})
			if errors.Is(err, ctx.Err()) {
				err = nil
			}
			exitOnError(err)
		},
	}
	flags.register(cmd, false)
	cmd.Flags().Uint64Var(&after, "after", 0, "only show events with a sequence number greater than this")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events to list")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream new events as they are committed")
	return cmd
}

func stateCommand() *cobra.Command {
	var flags clientFlags
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the bridge configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustConfig(cmd)
			commonRun(os.Stderr)
			client, err := flags.client(cfg, false)
			exitOnError(err)
			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			state, err := client.State(ctx)
			exitOnError(err)
			exitOnError(printJSON(cmd.OutOrStdout(), state))
		},
	}
	flags.register(cmd, false)
	return cmd
}

func statsCommand() *cobra.Command {
	var flags clientFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show bridge activity statistics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustConfig(cmd)
			commonRun(os.Stderr)
			client, err := flags.client(cfg, false)
			exitOnError(err)
			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			snapshot, err := client.Stats(ctx)
			exitOnError(err)
			exitOnError(printJSON(cmd.OutOrStdout(), snapshot))
		},
	}
	flags.register(cmd, false)
	return cmd
}
