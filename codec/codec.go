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

// Package codec implements the flat little-endian wire layout used for
// cross-chain instructions and their payloads.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/blinklabs-io/nftbridge/address"
)

var (
	// ErrInvalidPayload is returned when bytes do not match the layout of
	// the selected payload variant
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInvalidInstructionData is returned for an unknown or disallowed
	// instruction type
	ErrInvalidInstructionData = errors.New("invalid instruction data")
)

// Field bounds. Every decoded payload fits within the stored records.
const (
	MaxUriLength      = 512
	MaxNameLength     = 64
	MaxSymbolLength   = 16
	MaxCreatorLength  = 32
	MaxOwnerLength    = 32
	MaxChainLength    = 32
	MaxReceiverLength = 32
	MaxRoyaltyBps     = 10000
)

type reader struct {
	data []byte
	pos  int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.data)-r.pos < n {
		return nil, fmt.Errorf(
			"%w: need %d bytes at offset %d, have %d",
			ErrInvalidPayload,
			n,
			r.pos,
			len(r.data)-r.pos,
		)
	}
	ret := r.data[r.pos : r.pos+n]
	r.pos += n
	return ret, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) identity() (address.Address, error) {
	var ret address.Address
	b, err := r.take(address.Size)
	if err != nil {
		return ret, err
	}
	copy(ret[:], b)
	return ret, nil
}

func (r *reader) bytes(field string, maxLen int) ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(maxLen) {
		return nil, fmt.Errorf(
			"%w: %s length %d exceeds %d",
			ErrInvalidPayload,
			field,
			n,
			maxLen,
		)
	}
	// Empty fields decode as nil so they compare equal to unset fields
	if n == 0 {
		return nil, nil
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	ret := make([]byte, len(b))
	copy(ret, b)
	return ret, nil
}

func (r *reader) string(field string, maxLen int) (string, error) {
	b, err := r.bytes(field, maxLen)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidPayload, field)
	}
	return string(b), nil
}

func (r *reader) finish() error {
	if r.pos != len(r.data) {
		return fmt.Errorf(
			"%w: %d trailing bytes",
			ErrInvalidPayload,
			len(r.data)-r.pos,
		)
	}
	return nil
}

type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *writer) identity(v address.Address) {
	w.buf = append(w.buf, v[:]...)
}

func (w *writer) bytes(v []byte) {
	// #nosec G115 -- field lengths are bounded well below 2^32
	w.u32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *writer) string(v string) {
	w.bytes([]byte(v))
}
