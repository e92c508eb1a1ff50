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

package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/blinklabs-io/nftbridge/address"
)

var (
	ErrInsecureFileMode = errors.New("insecure file permissions")
	ErrInvalidKey       = errors.New("invalid key")
)

// Key is an ed25519 signing identity. Its public key is the caller address
// used by the bridge.
type Key struct {
	private ed25519.PrivateKey
}

// NewKeyFromSeed builds a key from a 32-byte ed25519 seed
func NewKeyFromSeed(seed []byte) (*Key, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf(
			"%w: seed must be %d bytes, got %d",
			ErrInvalidKey,
			ed25519.SeedSize,
			len(seed),
		)
	}
	return &Key{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// GenerateKey creates a new key using entropy from r. A nil r uses crypto/rand.
func GenerateKey(r io.Reader) (*Key, error) {
	if r == nil {
		r = rand.Reader
	}
	_, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &Key{private: priv}, nil
}

func (k *Key) Seed() []byte {
	return k.private.Seed()
}

func (k *Key) PublicKey() ed25519.PublicKey {
	return k.private.Public().(ed25519.PublicKey)
}

// Address returns the bridge identity of the key
func (k *Key) Address() address.Address {
	var ret address.Address
	copy(ret[:], k.PublicKey())
	return ret
}

func (k *Key) Sign(message []byte) []byte {
	return ed25519.Sign(k.private, message)
}

// Verify checks an ed25519 signature made by the identity addr
func Verify(addr address.Address, message []byte, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(addr[:]), message, sig)
}
