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
	"crypto/rand"
	"fmt"

	"github.com/blinklabs-io/nftbridge/keystore"
	"github.com/spf13/cobra"
)

func keygenCommand() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key pair",
		Long: "Generate a signing key pair as <prefix>.skey and <prefix>.vkey. " +
			"Existing files are never replaced.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			key, err := keystore.GenerateKey(rand.Reader)
			exitOnError(err)
			exitOnError(keystore.WriteKey(key, prefix+".skey", prefix+".vkey"))
			fmt.Fprintln(cmd.OutOrStdout(), key.Address().String())
		},
	}
	cmd.Flags().StringVar(&prefix, "out-file", "nftbridge", "output file prefix")
	return cmd
}
