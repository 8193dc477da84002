// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/drivenet/scdb/chaincfg"
)

func testWithdrawalParams() *chaincfg.Params {
	p := chaincfg.SimNetParams()
	p.MinWorkScore = 100
	p.MaxWorkScore = 200
	p.MaxBundlesPerSidechain = 3
	p.Tau = 10
	return p
}

// TestWithdrawalUpvoteAppendsAndIncrements verifies spec.md §4.4's UPVOTE
// rule: unknown bundles are appended at score 1, known bundles increment.
func TestWithdrawalUpvoteAppendsAndIncrements(t *testing.T) {
	w := newWithdrawalEngine(testWithdrawalParams())
	hash := chainhash.HashH([]byte("bundle-1"))

	w.applyVote(hash, VoteUpvoteKind)
	if got := w.find(hash).WorkScore; got != 1 {
		t.Fatalf("first upvote: work score = %d, want 1", got)
	}

	w.applyVote(hash, VoteUpvoteKind)
	if got := w.find(hash).WorkScore; got != 2 {
		t.Fatalf("second upvote: work score = %d, want 2", got)
	}
}

// TestWithdrawalDownvoteFloorsAtZero verifies DOWNVOTE never drives a
// known bundle's score below zero.
func TestWithdrawalDownvoteFloorsAtZero(t *testing.T) {
	w := newWithdrawalEngine(testWithdrawalParams())
	hash := chainhash.HashH([]byte("bundle-1"))
	w.applyVote(hash, VoteUpvoteKind)
	w.applyVote(hash, VoteDownvoteKind)
	w.applyVote(hash, VoteDownvoteKind)
	if got := w.find(hash).WorkScore; got != 0 {
		t.Fatalf("work score = %d, want 0", got)
	}
}

// TestWithdrawalWorkScoreGating mirrors seed scenario 6.
func TestWithdrawalWorkScoreGating(t *testing.T) {
	params := testWithdrawalParams()
	w := newWithdrawalEngine(params)
	approved := chainhash.HashH([]byte("approved"))
	pending := chainhash.HashH([]byte("pending"))

	for i := 0; i < 100; i++ {
		w.applyVote(approved, VoteUpvoteKind)
	}
	for i := 0; i < 50; i++ {
		w.applyVote(pending, VoteUpvoteKind)
	}
	w.ageAndApprove()

	if !w.checkWorkScore(approved) {
		t.Error("bundle at MinWorkScore should check true")
	}
	if w.checkWorkScore(pending) {
		t.Error("bundle below MinWorkScore should check false")
	}
}

// TestWithdrawalApprovalRemovesFromList verifies an approved bundle is
// consumed (removed) from the pending list.
func TestWithdrawalApprovalRemovesFromList(t *testing.T) {
	params := testWithdrawalParams()
	w := newWithdrawalEngine(params)
	hash := chainhash.HashH([]byte("bundle"))
	for i := int32(0); i < params.MinWorkScore; i++ {
		w.applyVote(hash, VoteUpvoteKind)
	}
	w.ageAndApprove()

	if w.find(hash) != nil {
		t.Error("approved bundle should be removed from the pending list")
	}
	state := w.state()
	if len(state) != 1 || state[0].Status != BundleApproved {
		t.Fatalf("expected one APPROVED record this block, got %+v", state)
	}
}

// TestWithdrawalBundleListBounded verifies MaxBundlesPerSidechain is
// enforced at insertion.
func TestWithdrawalBundleListBounded(t *testing.T) {
	params := testWithdrawalParams()
	w := newWithdrawalEngine(params)
	for i := 0; i < params.MaxBundlesPerSidechain+2; i++ {
		hash := chainhash.HashH([]byte{byte(i)})
		w.applyVote(hash, VoteUpvoteKind)
	}
	if len(w.bundles) != params.MaxBundlesPerSidechain {
		t.Errorf("bundle list length = %d, want %d", len(w.bundles), params.MaxBundlesPerSidechain)
	}
}

// TestWithdrawalTauResetClearsUnapproved mirrors
// original_source/src/test/sidechaindb_tests.cpp's
// sidechaindb_MultipleTauPeriods: unapproved bundles are cleared once
// every Tau blocks.
func TestWithdrawalTauResetClearsUnapproved(t *testing.T) {
	params := testWithdrawalParams()
	w := newWithdrawalEngine(params)
	hash := chainhash.HashH([]byte("never-approved"))
	w.applyVote(hash, VoteUpvoteKind)

	for i := uint32(0); i < params.Tau; i++ {
		w.ageAndApprove()
		w.tauReset()
	}

	if w.find(hash) != nil {
		t.Error("unapproved bundle should be cleared after a tau period elapses")
	}
}
