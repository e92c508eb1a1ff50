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
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/spf13/cobra"
)

func callCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Submit a relayer instruction to the gateway",
	}
	cmd.AddCommand(callMintCommand())
	cmd.AddCommand(callUpdateCommand())
	cmd.AddCommand(callRawCommand())
	return cmd
}

func callMintCommand() *cobra.Command {
	var (
		flags     clientFlags
		payload   codec.MintFromOriginPayload
		recipient string
		creator   string
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a token bridged from its origin chain",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var err error
			payload.Recipient, err = address.Parse(recipient)
			exitOnError(err)
			payload.Creator, err = hex.DecodeString(creator)
			exitOnError(err)
			submitPayload(cmd, &flags, payload)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().Uint64Var(&payload.UniversalTokenId, "id", 0, "universal token ID")
	cmd.Flags().StringVar(&recipient, "recipient", "", "recipient identity (hex)")
	cmd.Flags().StringVar(&payload.Uri, "uri", "", "metadata URI")
	cmd.Flags().StringVar(&payload.Name, "name", "", "token name")
	cmd.Flags().StringVar(&payload.Symbol, "symbol", "", "token symbol")
	cmd.Flags().StringVar(&creator, "creator", "", "creator identity on the origin chain (hex)")
	cmd.Flags().Uint16Var(&payload.RoyaltyBps, "royalty-bps", 0, "royalty in basis points")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}

func callUpdateCommand() *cobra.Command {
	var (
		flags   clientFlags
		payload codec.UpdateMetadataPayload
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the metadata of a bridged token",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			submitPayload(cmd, &flags, payload)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().Uint64Var(&payload.UniversalTokenId, "id", 0, "universal token ID")
	cmd.Flags().StringVar(&payload.NewUri, "uri", "", "new metadata URI")
	cmd.Flags().StringVar(&payload.NewName, "name", "", "new token name")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func callRawCommand() *cobra.Command {
	var flags clientFlags
	cmd := &cobra.Command{
		Use:   "raw <envelope-hex>",
		Short: "Submit a pre-encoded instruction envelope",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			envelope, err := hex.DecodeString(args[0])
			exitOnError(err)
			// Catch obvious mistakes before signing
			_, err = codec.DecodeInstruction(envelope)
			exitOnError(err)
			submitEnvelope(cmd, &flags, envelope)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func submitPayload(cmd *cobra.Command, flags *clientFlags, payload codec.Payload) {
	submitEnvelope(cmd, flags, codec.NewInstruction(payload).Encode())
}

func submitEnvelope(cmd *cobra.Command, flags *clientFlags, envelope []byte) {
	cfg := mustConfig(cmd)
	commonRun(os.Stderr)
	client, err := flags.client(cfg, true)
	exitOnError(err)
	ctx, cancel := requestContext(cmd.Context())
	defer cancel()
	resp, err := client.Call(ctx, envelope)
	exitOnError(err)
	exitOnError(printJSON(cmd.OutOrStdout(), resp))
}

func burnCommand() *cobra.Command {
	var (
		flags            clientFlags
		universalTokenId uint64
		destChain        string
		receiver         string
	)
	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Return a token to its origin chain",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustConfig(cmd)
			commonRun(os.Stderr)
			if destChain == "" {
				exitOnError(errors.New("a destination chain is required"))
			}
			receiverBytes, err := hex.DecodeString(receiver)
			exitOnError(err)
			client, err := flags.client(cfg, true)
			exitOnError(err)
			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			evt, err := client.Burn(
				ctx,
				universalTokenId,
				[]byte(destChain),
				receiverBytes,
			)
			exitOnError(err)
			fmt.Fprintf(
				os.Stderr,
				"token %d burned, outbound sequence %d\n",
				evt.Payload.UniversalTokenId,
				evt.Sequence,
			)
			exitOnError(printJSON(cmd.OutOrStdout(), evt))
		},
	}
	flags.register(cmd, true)
	cmd.Flags().Uint64Var(&universalTokenId, "id", 0, "universal token ID")
	cmd.Flags().StringVar(&destChain, "chain", "", "destination chain identifier")
	cmd.Flags().StringVar(&receiver, "receiver", "", "receiver on the destination chain (hex)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("receiver")
	return cmd
}
