// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import "github.com/decred/dcrd/chaincfg/chainhash"

// CustomVote is a user-supplied override for one withdrawal bundle,
// applied when this node next mines a block instead of
// chaincfg.Params.DefaultBundleVote (spec.md §6 cache_custom_votes).
type CustomVote struct {
	Slot   uint8
	Bundle chainhash.Hash
	Vote   VoteKind
}

// customVoteKey identifies one cached override. Bundle hashes are scoped
// to a Registry slot, not global, so the cache must key on both: two
// different sidechains can coincidentally vote on bundles that hash the
// same without their overrides colliding.
type customVoteKey struct {
	slot   uint8
	bundle chainhash.Hash
}
