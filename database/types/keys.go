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

package types

import (
	"encoding/binary"
	"slices"
)

const (
	ProgramStateBlobKeyPrefix = "ps"
	TokenStateBlobKeyPrefix   = "ts"
	TokenIndexBlobKeyPrefix   = "ti"
)

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

func ProgramStateBlobKey(location []byte) []byte {
	return slices.Concat([]byte(ProgramStateBlobKeyPrefix), location)
}

func TokenStateBlobKey(location []byte) []byte {
	return slices.Concat([]byte(TokenStateBlobKeyPrefix), location)
}

// TokenIndexBlobKey maps a token ID to its record location. Big-endian keeps
// the index ordered by ID.
func TokenIndexBlobKey(tokenId uint64) []byte {
	return slices.Concat(
		[]byte(TokenIndexBlobKeyPrefix),
		Uint64ToBytes(tokenId),
	)
}
