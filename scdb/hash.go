// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// Hash160Size is the size, in bytes, of a Hash160.
const Hash160Size = 20

// Hash160 is a 160-bit content hash, used for a proposal's optional
// commit-hash identity field. Unlike chainhash.Hash (256 bits, produced by
// the base chain's own hashing), a Hash160 here is always a caller-supplied
// value; SCDB never computes one itself, since no suitable 160-bit value
// type ships among the library's dependencies and none is needed — SCDB
// does not itself perform RIPEMD160 digests.
type Hash160 [Hash160Size]byte

// String returns the Hash160 as the hexadecimal string of the bytes in
// big-endian order, matching chainhash.Hash's display convention.
func (h Hash160) String() string {
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the all-zero value.
func (h Hash160) IsZero() bool {
	return h == Hash160{}
}

// NewHash160FromStr parses a hex-encoded, big-endian Hash160 string, the way
// chainhash.NewHashFromStr does for 256-bit hashes.
func NewHash160FromStr(s string) (Hash160, error) {
	var h Hash160
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("scdb: invalid hash160 string: %w", err)
	}
	if len(decoded) != Hash160Size {
		return h, fmt.Errorf("scdb: invalid hash160 string length: got %d bytes, want %d", len(decoded), Hash160Size)
	}
	for i, j := 0, len(decoded)-1; i < j; i, j = i+1, j-1 {
		decoded[i], decoded[j] = decoded[j], decoded[i]
	}
	copy(h[:], decoded)
	return h, nil
}

// zeroHash is the null chainhash.Hash, used as the genesis cursor's
// predecessor.
var zeroHash chainhash.Hash
