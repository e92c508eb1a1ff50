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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/nftbridge/gateway"
	"github.com/blinklabs-io/nftbridge/internal/config"
	"github.com/blinklabs-io/nftbridge/keystore"
	"github.com/spf13/cobra"
)

const defaultClientTimeout = 30 * time.Second

type clientFlags struct {
	gatewayUrl string
	keyFile    string
}

func (f *clientFlags) register(cmd *cobra.Command, withKey bool) {
	cmd.Flags().
		StringVar(&f.gatewayUrl, "gateway", "", "gateway URL (defaults to the configured gateway URL)")
	if withKey {
		cmd.Flags().
			StringVar(&f.keyFile, "key", "", "signing key file (defaults to the configured signing key file)")
	}
}

func (f *clientFlags) client(cfg *config.Config, needKey bool) (*gateway.Client, error) {
	gatewayUrl := f.gatewayUrl
	if gatewayUrl == "" {
		gatewayUrl = cfg.GatewayUrl
	}
	var key *keystore.Key
	if needKey {
		keyFile := f.keyFile
		if keyFile == "" {
			keyFile = cfg.SigningKeyFile
		}
		if keyFile == "" {
			return nil, errors.New("a signing key file is required")
		}
		var err error
		key, err = keystore.LoadKey(keyFile)
		if err != nil {
			return nil, err
		}
	}
	return gateway.NewClient(gatewayUrl, key, nil)
}

// requestContext bounds a single gateway request and cancels on interrupt
func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stopSignals := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultClientTimeout)
	return ctx, func() {
		cancel()
		stopSignals()
	}
}

// followContext cancels on interrupt only
func followContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
