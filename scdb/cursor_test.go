// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/drivenet/scdb/chaincfg"
)

// TestCursorRollbackToMidStack verifies rollback_to restores to an
// arbitrary earlier point on the chain, not just the immediate parent.
func TestCursorRollbackToMidStack(t *testing.T) {
	params := chaincfg.SimNetParams()
	genesis := chainhash.HashH([]byte("genesis"))
	db := New(params, genesis)

	var hashes []chainhash.Hash
	prev := genesis
	for i := 1; i <= 5; i++ {
		h := blockHashForTest(i)
		if err := db.Apply(uint32(i), h, prev, nil); err != nil {
			t.Fatalf("Apply(%d) should succeed, got %v", i, err)
		}
		hashes = append(hashes, h)
		prev = h
	}

	target := hashes[1] // block 2
	if err := db.RollbackTo(target); err != nil {
		t.Fatalf("RollbackTo(block 2) should succeed, got %v", err)
	}
	if db.GetHashBlockLastSeen() != target {
		t.Errorf("GetHashBlockLastSeen() = %s, want %s", db.GetHashBlockLastSeen(), target)
	}

	// Re-applying block 3 onward with the original prev-hash chain
	// should succeed again now that the stack has been truncated.
	if err := db.Apply(3, hashes[2], target, nil); err != nil {
		t.Errorf("re-applying block 3 after rollback should succeed, got %v", err)
	}
}
