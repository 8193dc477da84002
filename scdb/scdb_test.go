// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/wire"

	"github.com/drivenet/scdb/chaincfg"
)

func blockHashForTest(i int) chainhash.Hash {
	return chainhash.HashH([]byte{byte(i), byte(i >> 8)})
}

func proposalCommitOutput(t *testing.T, p Proposal) Output {
	t.Helper()
	script, err := EmitProposalCommit(p)
	if err != nil {
		t.Fatalf("EmitProposalCommit: %v", err)
	}
	return wire.TxOut{PkScript: script}
}

func ackOutput(t *testing.T, hash chainhash.Hash) Output {
	t.Helper()
	script, err := EmitActivationAck(hash)
	if err != nil {
		t.Fatalf("EmitActivationAck: %v", err)
	}
	return wire.TxOut{PkScript: script}
}

// TestApplyRejectsStaleAncestor verifies spec.md §4.5/§7's StaleAncestor
// rule: apply() with a mismatched expected previous hash fails without
// mutation.
func TestApplyRejectsStaleAncestor(t *testing.T) {
	genesis := chainhash.HashH([]byte("genesis"))
	db := New(chaincfg.SimNetParams(), genesis)

	wrongPrev := chainhash.HashH([]byte("not-genesis"))
	if err := db.Apply(1, blockHashForTest(1), wrongPrev, nil); err != ErrStaleAncestor {
		t.Fatalf("Apply should reject a mismatched expected previous hash, got err = %v", err)
	}
	if db.GetHashBlockLastSeen() != genesis {
		t.Error("a rejected Apply must not mutate the cursor")
	}
}

// TestApplyRollbackApplyIsIdempotent verifies spec.md §8's
// rollback(apply(S, b)) = S property.
func TestApplyRollbackApplyIsIdempotent(t *testing.T) {
	genesis := chainhash.HashH([]byte("genesis"))
	db := New(chaincfg.SimNetParams(), genesis)

	b1 := blockHashForTest(1)
	p := seedProposal(0, "test")
	outputs := []Output{proposalCommitOutput(t, p)}

	if err := db.Apply(1, b1, genesis, outputs); err != nil {
		t.Fatalf("Apply(1) should succeed, got %v", err)
	}
	statusAfterFirst := db.GetActivationStatus()

	if err := db.RollbackTo(genesis); err != nil {
		t.Fatalf("RollbackTo(genesis) should succeed, got %v", err)
	}
	if len(db.GetActivationStatus()) != 0 {
		t.Fatal("rollback to genesis should clear the pending proposal")
	}

	if err := db.Apply(1, b1, genesis, outputs); err != nil {
		t.Fatalf("re-Apply(1) should succeed, got %v", err)
	}
	statusAfterReplay := db.GetActivationStatus()

	if len(statusAfterFirst) != len(statusAfterReplay) {
		t.Fatalf("replay produced a different number of pending proposals: %d vs %d",
			len(statusAfterFirst), len(statusAfterReplay))
	}
	if statusAfterFirst[0].Proposal.Hash() != statusAfterReplay[0].Proposal.Hash() {
		t.Error("replay should reproduce an identical pending proposal")
	}
}

// TestRollbackToUnknownHashFails verifies rollback to a hash not on the
// cursor stack reports failure.
func TestRollbackToUnknownHashFails(t *testing.T) {
	genesis := chainhash.HashH([]byte("genesis"))
	db := New(chaincfg.SimNetParams(), genesis)
	unknown := chainhash.HashH([]byte("never-applied"))
	if err := db.RollbackTo(unknown); err != ErrUnknownBlockHash {
		t.Errorf("RollbackTo an unapplied hash should fail with ErrUnknownBlockHash, got %v", err)
	}
}

// TestFullActivationThroughSCDB drives a proposal to activation entirely
// through the public SCDB surface, exercising intake, tally, and
// promotion together.
func TestFullActivationThroughSCDB(t *testing.T) {
	params := chaincfg.SimNetParams()
	genesis := chainhash.HashH([]byte("genesis"))
	db := New(params, genesis)

	p := seedProposal(0, "test")
	prev := genesis
	height := uint32(1)

	block := blockHashForTest(int(height))
	if err := db.Apply(height, block, prev, []Output{proposalCommitOutput(t, p)}); err != nil {
		t.Fatalf("proposal intake block should apply, got %v", err)
	}
	prev = block
	height++

	for i := uint32(0); i < params.ActivationPeriod; i++ {
		block = blockHashForTest(int(height))
		if err := db.Apply(height, block, prev, []Output{ackOutput(t, p.Hash())}); err != nil {
			t.Fatalf("ack block %d should apply, got %v", height, err)
		}
		prev = block
		height++
	}

	if db.ActiveSidechainCount() != 1 {
		t.Fatalf("ActiveSidechainCount() = %d, want 1", db.ActiveSidechainCount())
	}
	active := db.GetActiveSidechains()
	if len(active) != 1 || active[0].Proposal.Title != "test" {
		t.Fatalf("unexpected active sidechains: %+v", active)
	}
	if db.GetHashBlockLastSeen() != prev {
		t.Errorf("GetHashBlockLastSeen() = %s, want %s", db.GetHashBlockLastSeen(), prev)
	}
}

// TestNextStateScriptReflectsCustomVotes verifies NextStateScript applies
// a CustomVote override ahead of the default bundle-vote policy.
func TestNextStateScriptReflectsCustomVotes(t *testing.T) {
	params := chaincfg.SimNetParams()
	params.DefaultBundleVote = chaincfg.VoteDownvote
	genesis := chainhash.HashH([]byte("genesis"))
	db := New(params, genesis)

	p := seedProposal(0, "test")
	prev := genesis
	height := uint32(1)
	block := blockHashForTest(int(height))
	db.Apply(height, block, prev, []Output{proposalCommitOutput(t, p)})
	prev, height = block, height+1

	for i := uint32(0); i < params.ActivationPeriod; i++ {
		block = blockHashForTest(int(height))
		db.Apply(height, block, prev, []Output{ackOutput(t, p.Hash())})
		prev, height = block, height+1
	}

	bundle := chainhash.HashH([]byte("bundle"))
	block = blockHashForTest(int(height))
	voteScript, err := EmitBundleVote(0, bundle, VoteUpvoteKind)
	if err != nil {
		t.Fatalf("EmitBundleVote: %v", err)
	}
	db.Apply(height, block, prev, []Output{wire.TxOut{PkScript: voteScript}})

	db.CacheCustomVotes([]CustomVote{{Slot: 0, Bundle: bundle, Vote: VoteUpvoteKind}})

	script, err := db.NextStateScript()
	if err != nil {
		t.Fatalf("NextStateScript: %v", err)
	}
	c := ParseCommitment(script)
	if c.Kind != KindStateScript {
		t.Fatalf("expected KindStateScript, got %v", c.Kind)
	}
	if len(c.StateVotes) != 1 || len(c.StateVotes[0].Votes) != 1 || c.StateVotes[0].Votes[0] != VoteUpvoteKind {
		t.Fatalf("expected custom-vote override to emit VERIFY, got %+v", c.StateVotes)
	}

	cached := db.GetCustomVoteCache()
	if len(cached) != 1 || cached[0].Slot != 0 || cached[0].Bundle != bundle || cached[0].Vote != VoteUpvoteKind {
		t.Fatalf("GetCustomVoteCache() = %+v, want a single {Slot:0, Bundle:%s, Vote:VoteUpvoteKind}", cached, bundle)
	}
}

// TestCustomVoteCacheScopedBySlot verifies cache_custom_votes/
// get_custom_vote_cache key overrides by (slot, bundle), not bundle hash
// alone: two sidechains voting on coincidentally equal bundle hashes must
// not clobber each other's override.
func TestCustomVoteCacheScopedBySlot(t *testing.T) {
	genesis := chainhash.HashH([]byte("genesis"))
	db := New(chaincfg.SimNetParams(), genesis)

	bundle := chainhash.HashH([]byte("shared-bundle-hash"))
	db.CacheCustomVotes([]CustomVote{
		{Slot: 0, Bundle: bundle, Vote: VoteUpvoteKind},
		{Slot: 1, Bundle: bundle, Vote: VoteDownvoteKind},
	})

	cached := db.GetCustomVoteCache()
	if len(cached) != 2 {
		t.Fatalf("expected 2 distinct cached overrides, got %d: %+v", len(cached), cached)
	}
	byVote := map[VoteKind]int{}
	for _, cv := range cached {
		if cv.Bundle != bundle {
			t.Fatalf("unexpected bundle in cache: %+v", cv)
		}
		byVote[cv.Vote]++
	}
	if byVote[VoteUpvoteKind] != 1 || byVote[VoteDownvoteKind] != 1 {
		t.Fatalf("expected one upvote and one downvote override, got %+v", byVote)
	}
}
