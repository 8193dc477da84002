// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"github.com/decred/dcrd/chaincfg/chainhash"
)

// snapshot is one applied block's complete resulting state: the registry,
// activation engine, and per-sidechain withdrawal engines exactly as they
// stood after that block was connected, plus the block's own hash and
// its predecessor's. The snapshot stack this type builds is the
// in-memory analogue of the teacher's ConnectSKABurnsTx/
// DisconnectSKABurnsTx pair (internal/blockchain/ska_burn_state.go):
// there, each connect recorded enough of the prior bucket state under a
// mutex that a disconnect could restore it exactly; here, Apply pushes a
// snapshot and RollbackTo pops back to one, with no persistence layer
// since spec.md's Non-goals exclude durability.
type snapshot struct {
	blockHash chainhash.Hash
	prevHash  chainhash.Hash

	registry         *registry
	activationEngine *activationEngine
	withdrawals      map[uint8]*withdrawalEngine
	customVotes      map[customVoteKey]VoteKind
	hashesToActivate map[chainhash.Hash]bool

	hashBlockLastSeen chainhash.Hash
}

// cursor is the block-linked stack of snapshots backing Apply and
// RollbackTo. It always holds at least one entry (the genesis state,
// pushed by newCursor) so RollbackTo can always find a base to restore
// from.
type cursor struct {
	stack []*snapshot
}

func newCursor(genesisHash chainhash.Hash, reg *registry, act *activationEngine) *cursor {
	return &cursor{
		stack: []*snapshot{{
			blockHash:         genesisHash,
			prevHash:          zeroHash,
			registry:          reg,
			activationEngine:  act,
			withdrawals:       make(map[uint8]*withdrawalEngine),
			customVotes:       make(map[customVoteKey]VoteKind),
			hashesToActivate:  make(map[chainhash.Hash]bool),
			hashBlockLastSeen: genesisHash,
		}},
	}
}

// top returns the current (most recently applied) snapshot.
func (c *cursor) top() *snapshot {
	return c.stack[len(c.stack)-1]
}

// push records a new snapshot atop the stack after a block is applied.
func (c *cursor) push(s *snapshot) {
	c.stack = append(c.stack, s)
}

// findIndex returns the stack index whose blockHash equals hash, or -1.
func (c *cursor) findIndex(hash chainhash.Hash) int {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i].blockHash == hash {
			return i
		}
	}
	return -1
}

// rollbackTo truncates the stack so hash becomes the new top, returning
// the snapshot now current. Reports false if hash is not on the stack
// (ErrUnknownBlockHash territory, per spec.md §7).
func (c *cursor) rollbackTo(hash chainhash.Hash) (*snapshot, bool) {
	idx := c.findIndex(hash)
	if idx < 0 {
		return nil, false
	}
	c.stack = c.stack[:idx+1]
	return c.stack[idx], true
}

// cloneWithdrawals deep-copies a per-slot withdrawal-engine map for a new
// snapshot.
func cloneWithdrawals(m map[uint8]*withdrawalEngine) map[uint8]*withdrawalEngine {
	out := make(map[uint8]*withdrawalEngine, len(m))
	for slot, w := range m {
		out[slot] = w.clone()
	}
	return out
}

// cloneCustomVotes deep-copies the custom-vote cache for a new snapshot.
func cloneCustomVotes(m map[customVoteKey]VoteKind) map[customVoteKey]VoteKind {
	out := make(map[customVoteKey]VoteKind, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cloneHashesToActivate deep-copies the hash-to-activate cache for a new
// snapshot.
func cloneHashesToActivate(m map[chainhash.Hash]bool) map[chainhash.Hash]bool {
	out := make(map[chainhash.Hash]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
