// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/drivenet/scdb/chaincfg"
)

// BundleStatus is a withdrawal bundle's disposition within its sidechain's
// bundle list.
type BundleStatus uint8

// Bundle statuses.
const (
	BundlePending BundleStatus = iota
	BundleApproved
	BundleRejected
)

// BundleState is one withdrawal bundle's public view: its hash, its
// current work score, its age in blocks since first seen, and its status.
type BundleState struct {
	Hash      chainhash.Hash
	WorkScore int32
	Age       uint32
	Status    BundleStatus
}

// VoteKind is the per-block commitment a miner casts for one withdrawal
// bundle.
type VoteKind uint8

// Vote kinds.
const (
	VoteAbstainKind VoteKind = iota
	VoteUpvoteKind
	VoteDownvoteKind
)

// withdrawalEngine tracks the bounded, ordered bundle list for one active
// sidechain and advances it block by block per spec.md §4.4.
type withdrawalEngine struct {
	params  *chaincfg.Params
	bundles []*BundleState

	// approvedThisBlock carries bundles that just crossed MinWorkScore on
	// the block just applied, for one block only: spec.md §4.4 says
	// "Approved bundles carry forward as APPROVED records for the block in
	// which they approved, then drop off."
	approvedThisBlock []BundleState

	blocksSinceTau uint32
}

func newWithdrawalEngine(params *chaincfg.Params) *withdrawalEngine {
	return &withdrawalEngine{params: params}
}

func (w *withdrawalEngine) find(hash chainhash.Hash) *BundleState {
	for _, b := range w.bundles {
		if b.Hash == hash {
			return b
		}
	}
	return nil
}

// applyVote applies one block's BundleVote commitment (or its absence, kind
// == VoteAbstainKind with a zero hash is a no-op) to this sidechain's
// bundle list, per spec.md §4.4's UPVOTE/DOWNVOTE/ABSTAIN rules. Approval
// is not decided here: ageAndApprove removes bundles that reached
// MinWorkScore and records them in approvedThisBlock.
func (w *withdrawalEngine) applyVote(hash chainhash.Hash, kind VoteKind) {
	switch kind {
	case VoteUpvoteKind:
		if b := w.find(hash); b != nil {
			if b.WorkScore < w.params.MaxWorkScore {
				b.WorkScore++
			}
		} else if len(w.bundles) < w.params.MaxBundlesPerSidechain {
			w.bundles = append(w.bundles, &BundleState{Hash: hash, WorkScore: 1})
		} else {
			log.Debugf("scdb: bundle list full, dropping new bundle %s", hash)
		}
	case VoteDownvoteKind:
		if b := w.find(hash); b != nil {
			if b.WorkScore > 0 {
				b.WorkScore--
			}
		}
	case VoteAbstainKind:
		// No-op: absence of a commit and an explicit ABSTAIN are
		// indistinguishable at the state-machine level.
	}
}

// ageAndApprove increments every bundle's age and removes any that have
// reached MinWorkScore, recording them as this block's approvals.
func (w *withdrawalEngine) ageAndApprove() {
	w.approvedThisBlock = w.approvedThisBlock[:0]
	kept := w.bundles[:0]
	for _, b := range w.bundles {
		b.Age++
		if b.WorkScore >= w.params.MinWorkScore {
			approved := *b
			approved.Status = BundleApproved
			w.approvedThisBlock = append(w.approvedThisBlock, approved)
			log.Debugf("scdb: bundle %s approved with work score %d", b.Hash, b.WorkScore)
			continue
		}
		kept = append(kept, b)
	}
	w.bundles = kept
}

// tauReset clears every bundle that has not yet reached approval, once
// every params.Tau blocks, matching the source's "Update(tau, ...)" reset
// path.
func (w *withdrawalEngine) tauReset() {
	w.blocksSinceTau++
	if w.blocksSinceTau < w.params.Tau {
		return
	}
	w.blocksSinceTau = 0
	if len(w.bundles) > 0 {
		log.Debugf("scdb: tau period elapsed, clearing %d unapproved bundles", len(w.bundles))
	}
	w.bundles = nil
}

// state returns a snapshot combining this block's approvals with the
// remaining pending bundles, for the query surface (GetState).
func (w *withdrawalEngine) state() []BundleState {
	out := make([]BundleState, 0, len(w.bundles)+len(w.approvedThisBlock))
	out = append(out, w.approvedThisBlock...)
	for _, b := range w.bundles {
		out = append(out, *b)
	}
	return out
}

// checkWorkScore reports whether the named bundle currently meets or
// exceeds MinWorkScore (spec.md §6 check_work_score).
func (w *withdrawalEngine) checkWorkScore(hash chainhash.Hash) bool {
	if b := w.find(hash); b != nil {
		return b.WorkScore >= w.params.MinWorkScore
	}
	for _, a := range w.approvedThisBlock {
		if a.Hash == hash {
			return true
		}
	}
	return false
}

func (w *withdrawalEngine) clone() *withdrawalEngine {
	cp := &withdrawalEngine{params: w.params, blocksSinceTau: w.blocksSinceTau}
	cp.bundles = make([]*BundleState, len(w.bundles))
	for i, b := range w.bundles {
		dup := *b
		cp.bundles[i] = &dup
	}
	cp.approvedThisBlock = append([]BundleState(nil), w.approvedThisBlock...)
	return cp
}
