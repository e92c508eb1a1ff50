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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/blinklabs-io/nftbridge"
	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/internal/node"
	"github.com/blinklabs-io/nftbridge/keystore"
	"github.com/spf13/cobra"
)

// collectionManifest describes the collection a bridge is initialized with.
// The relayer is given either as a hex identity or as a verification key file.
type collectionManifest struct {
	Name            string `toml:"name"`
	Symbol          string `toml:"symbol"`
	Uri             string `toml:"uri"`
	Relayer         string `toml:"relayer"`
	RelayerKeyFile  string `toml:"relayer_vkey"`
	relayerIdentity address.Address
}

func loadManifest(path string) (*collectionManifest, error) {
	var ret collectionManifest
	md, err := toml.DecodeFile(path, &ret)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown manifest key: %s", undecoded[0].String())
	}
	switch {
	case ret.Relayer != "" && ret.RelayerKeyFile != "":
		return nil, errors.New("manifest must set only one of relayer and relayer_vkey")
	case ret.Relayer != "":
		ret.relayerIdentity, err = address.Parse(ret.Relayer)
		if err != nil {
			return nil, fmt.Errorf("invalid relayer: %w", err)
		}
	case ret.RelayerKeyFile != "":
		ret.relayerIdentity, err = keystore.LoadVerificationKey(ret.RelayerKeyFile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("manifest must set relayer or relayer_vkey")
	}
	return &ret, nil
}

func initCommand() *cobra.Command {
	var (
		manifestFile string
		keyFile      string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the bridge with a collection manifest",
		Long: "Initialize the bridge with a collection manifest. This opens the " +
			"local database directly, so the bridge must not be running.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustConfig(cmd)
			logger := commonRun(os.Stderr)
			manifest, err := loadManifest(manifestFile)
			exitOnError(err)
			if keyFile == "" {
				keyFile = cfg.SigningKeyFile
			}
			if keyFile == "" {
				exitOnError(errors.New("an authority signing key file is required"))
			}
			key, err := keystore.LoadKey(keyFile)
			exitOnError(err)
			opts, err := node.Options(cfg, logger, false)
			exitOnError(err)
			n, err := nftbridge.New(nftbridge.NewConfig(opts...))
			exitOnError(err)
			exitOnError(n.Open())
			state, err := n.Bridge().Initialize(
				context.Background(),
				key.Address(),
				manifest.Name,
				manifest.Symbol,
				manifest.Uri,
				manifest.relayerIdentity,
			)
			if stopErr := n.Stop(); stopErr != nil {
				slog.Error("failed to close database", "error", stopErr)
			}
			exitOnError(err)
			exitOnError(printJSON(cmd.OutOrStdout(), state))
		},
	}
	cmd.Flags().StringVar(&manifestFile, "manifest", "collection.toml", "collection manifest file")
	cmd.Flags().StringVar(&keyFile, "key", "", "authority signing key file (defaults to the configured signing key file)")
	return cmd
}
