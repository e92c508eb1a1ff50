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

package bridge

import (
	"crypto/subtle"

	"github.com/blinklabs-io/nftbridge/address"
)

// Authorize checks that caller is the relayer configured in state
func Authorize(caller address.Address, state *ProgramState) error {
	if state == nil {
		return ErrNotInitialized
	}
	if subtle.ConstantTimeCompare(caller[:], state.RelayerIdentity[:]) != 1 {
		return ErrUnauthorizedGateway
	}
	return nil
}
