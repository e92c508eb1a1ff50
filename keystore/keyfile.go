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
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/nftbridge/address"
)

const (
	SigningKeyType             = "BridgeSigningKey_ed25519"
	VerificationKeyType        = "BridgeVerificationKey_ed25519"
	signingKeyDescription      = "Bridge Signing Key"
	verificationKeyDescription = "Bridge Verification Key"

	// Valid key files are well under this size
	maxKeyFileSize = 1 << 20
)

// keyFileEnvelope is the JSON structure of a cardano-cli style key file
type keyFileEnvelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CborHex     string `json:"cborHex"`
}

// LoadKey loads a signing key file. Files with group or other access are
// rejected with ErrInsecureFileMode.
func LoadKey(path string) (*Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file %q: %w", path, err)
	}
	defer f.Close()
	if err := checkOpenFilePermissions(f); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	keyBytes, err := parseKeyEnvelope(data, SigningKeyType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %q: %w", path, err)
	}
	return NewKeyFromSeed(keyBytes)
}

// LoadVerificationKey loads the identity from a verification key file.
// Verification keys are public, so permissions are not checked.
func LoadVerificationKey(path string) (address.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return address.Zero, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	keyBytes, err := parseKeyEnvelope(data, VerificationKeyType)
	if err != nil {
		return address.Zero, fmt.Errorf("failed to parse key file %q: %w", path, err)
	}
	return address.FromBytes(keyBytes)
}

func parseKeyEnvelope(fileBytes []byte, expectedType string) ([]byte, error) {
	var env keyFileEnvelope
	if err := json.Unmarshal(fileBytes, &env); err != nil {
		return nil, fmt.Errorf("could not parse key file envelope: %w", err)
	}
	if env.Type != expectedType {
		return nil, fmt.Errorf(
			"%w: expected type %s, got %s",
			ErrInvalidKey,
			expectedType,
			env.Type,
		)
	}
	cborData, err := hex.DecodeString(env.CborHex)
	if err != nil {
		return nil, fmt.Errorf("could not decode key from hex: %w", err)
	}
	var keyBytes []byte
	if _, err := cbor.Decode(cborData, &keyBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key CBOR: %w", err)
	}
	if len(keyBytes) != address.Size {
		return nil, fmt.Errorf(
			"%w: expected %d key bytes, got %d",
			ErrInvalidKey,
			address.Size,
			len(keyBytes),
		)
	}
	return keyBytes, nil
}

func encodeKeyEnvelope(keyType, description string, keyBytes []byte) ([]byte, error) {
	cborData, err := cbor.Encode(keyBytes)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(
		keyFileEnvelope{
			Type:        keyType,
			Description: description,
			CborHex:     hex.EncodeToString(cborData),
		},
		"",
		"    ",
	)
}

// WriteKey writes the signing key to skeyPath with mode 0600 and, if vkeyPath
// is not empty, the matching verification key. Existing files are not replaced.
func WriteKey(key *Key, skeyPath string, vkeyPath string) error {
	if key == nil {
		return errors.New("nil key")
	}
	skey, err := encodeKeyEnvelope(SigningKeyType, signingKeyDescription, key.Seed())
	if err != nil {
		return err
	}
	if err := writeNewFile(skeyPath, skey, 0o600); err != nil {
		return err
	}
	if vkeyPath == "" {
		return nil
	}
	vkey, err := encodeKeyEnvelope(
		VerificationKeyType,
		verificationKeyDescription,
		key.PublicKey(),
	)
	if err != nil {
		return err
	}
	return writeNewFile(vkeyPath, vkey, 0o644)
}

func writeNewFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create key file %q: %w", path, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to write key file %q: %w", path, err)
	}
	return f.Close()
}
