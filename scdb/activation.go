// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/drivenet/scdb/chaincfg"
)

// ActivationStatus is the per-pending-proposal tally exposed by the query
// surface: the proposal itself, its cumulative ACK count, its age in
// blocks, and its current consecutive-failure streak.
type ActivationStatus struct {
	Proposal     Proposal
	AckCount     uint32
	Age          uint32
	FailureCount uint32

	// ReplacementAcks counts the consecutive approving blocks accumulated
	// while the proposal's target slot is occupied by an incumbent. It is
	// reset to 0 by any missed block and is meaningless once the slot is
	// empty or the proposal has activated.
	ReplacementAcks uint32
}

// pendingProposal is the cache's internal record: an ActivationStatus plus
// its monotonic insertion sequence number. Same-block promotion ties are
// broken by the insertion order of the pending slice that tally walks, not
// by reading seq (spec.md §4.2 "Ordering and tie-breaks").
type pendingProposal struct {
	status ActivationStatus
	seq    uint64
}

// activationEngine owns the Proposal Cache and the tally/promotion/pruning
// logic that advances it each block. It never touches the Registry
// directly; promotion and replacement decisions are returned to the caller
// (the SCDB) as promotions, which applies them to the registry so that both
// components stay independently testable.
type activationEngine struct {
	params  *chaincfg.Params
	pending []*pendingProposal
	nextSeq uint64
}

func newActivationEngine(params *chaincfg.Params) *activationEngine {
	return &activationEngine{params: params}
}

// findPending returns the cached entry whose proposal hash equals hash, or
// nil.
func (e *activationEngine) findPending(hash chainhash.Hash) *pendingProposal {
	for _, p := range e.pending {
		if p.status.Proposal.Hash() == hash {
			return p
		}
	}
	return nil
}

// insert adds a new proposal to the cache, applying spec.md §4.2's intake
// rule: dropped if the cache is full, the proposal fails structural
// validation, or a structurally identical pending proposal already exists.
// Reports whether the proposal was inserted.
func (e *activationEngine) insert(p Proposal) bool {
	if !p.Valid(e.params.SidechainVersionMax) {
		log.Debugf("scdb: dropping invalid proposal for slot %d", p.Slot)
		return false
	}
	if len(e.pending) >= e.params.MaxPendingProposals {
		log.Debugf("scdb: proposal cache full, dropping proposal for slot %d", p.Slot)
		return false
	}
	for _, existing := range e.pending {
		if existing.status.Proposal.Equal(&p) {
			log.Debugf("scdb: duplicate pending proposal for slot %d, dropping", p.Slot)
			return false
		}
	}
	e.pending = append(e.pending, &pendingProposal{
		status: ActivationStatus{Proposal: p},
		seq:    e.nextSeq,
	})
	e.nextSeq++
	log.Debugf("scdb: cached proposal %q for slot %d", p.Title, p.Slot)
	return true
}

// promotion describes one proposal crossing the activation or replacement
// threshold on the block just tallied.
type promotion struct {
	proposal    Proposal
	slot        uint8
	replacement bool
}

// tally advances every pending proposal by one block: every proposal ages
// by one; ACKed proposals gain an ack and reset their failure streak (and,
// if their slot is occupied, extend their replacement streak); un-ACKed
// proposals accumulate a failure and lose any replacement streak. Proposals that cross
// ACTIVATION_PERIOD are returned as promotions (in insertion order, so the
// caller's same-block, same-slot tie-break naturally favors the earlier
// entry); proposals that exceed ACTIVATION_MAX_FAILURES, that collide with
// an Active Sidechain's identity (spec.md §3 invariant 2), or that lose a
// same-block activation race for an empty slot are pruned in-place (spec.md
// §4.2 "Ordering and tie-breaks"). reg is consulted read-only to know which
// slots are occupied.
func (e *activationEngine) tally(acked map[chainhash.Hash]bool, reg *registry) []promotion {
	var promotions []promotion
	kept := e.pending[:0]

	// claimed shadows slot occupancy for THIS tally only, so that when two
	// pending proposals both cross their threshold on the same block and
	// target the same slot, the earlier-inserted one (processed first,
	// since e.pending is insertion-ordered) claims the slot and the later
	// one sees it as occupied instead of empty.
	claimed := make(map[uint8]bool)

	for _, p := range e.pending {
		p.status.Age++
		hash := p.status.Proposal.Hash()
		slot := p.status.Proposal.Slot
		preOccupied := reg.isActive(slot)
		occupied := preOccupied || claimed[slot]

		if acked[hash] {
			p.status.AckCount++
			p.status.FailureCount = 0
			if occupied {
				p.status.ReplacementAcks++
			}
		} else {
			p.status.FailureCount++
			p.status.ReplacementAcks = 0
		}

		if p.status.FailureCount > e.params.ActivationMaxFailures {
			log.Debugf("scdb: pruning proposal %q for slot %d after %d consecutive misses",
				p.status.Proposal.Title, slot, p.status.FailureCount)
			continue
		}

		if p.status.AckCount >= e.params.ActivationPeriod {
			if reg.hasDuplicateIdentity(&p.status.Proposal, slot) {
				log.Debugf("scdb: pruning proposal %q for slot %d: duplicate identity with an active sidechain",
					p.status.Proposal.Title, slot)
				continue
			}
			switch {
			case !preOccupied && !claimed[slot]:
				promotions = append(promotions, promotion{proposal: p.status.Proposal, slot: slot})
				claimed[slot] = true
				continue
			case !preOccupied && claimed[slot]:
				// Lost the same-block race for an empty slot to an
				// earlier-inserted proposal; pruned outright rather than
				// carried forward to try again next block.
				log.Debugf("scdb: pruning proposal %q for slot %d: lost same-block activation race",
					p.status.Proposal.Title, slot)
				continue
			case preOccupied && p.status.ReplacementAcks >= e.params.ReplacementPeriod && !claimed[slot]:
				promotions = append(promotions, promotion{proposal: p.status.Proposal, slot: slot, replacement: true})
				claimed[slot] = true
				continue
			}
		}

		kept = append(kept, p)
	}

	e.pending = kept
	return promotions
}

// remove drops the pending entry for hash, if any, without regard to its
// tally — used when a promotion (or a competing, earlier-inserted
// promotion to the same slot) consumes it.
func (e *activationEngine) remove(hash chainhash.Hash) {
	for i, p := range e.pending {
		if p.status.Proposal.Hash() == hash {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// statuses returns a snapshot of every pending proposal's tally, in
// insertion order, for the query surface (GetActivationStatus).
func (e *activationEngine) statuses() []ActivationStatus {
	out := make([]ActivationStatus, len(e.pending))
	for i, p := range e.pending {
		out[i] = p.status
	}
	return out
}

// clone returns a deep copy for the cursor snapshot stack.
func (e *activationEngine) clone() *activationEngine {
	cp := &activationEngine{params: e.params, nextSeq: e.nextSeq}
	cp.pending = make([]*pendingProposal, len(e.pending))
	for i, p := range e.pending {
		dup := *p
		cp.pending[i] = &dup
	}
	return cp
}
