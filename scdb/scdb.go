// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package scdb implements the Sidechain Database: a deterministic,
// replayable state machine advanced block by block by miner-committed
// signals, governing sidechain proposal, activation, and withdrawal-bundle
// voting.
package scdb

import (
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/wire"

	"github.com/drivenet/scdb/chaincfg"
)

// Output is one coinbase transaction output, the unit SCDB inspects for
// commitments each block. It is a thin alias over wire.TxOut so callers
// already holding parsed transactions need no conversion.
type Output = wire.TxOut

// SCDB is the top-level state handle: one instance owns the Registry, the
// Activation Engine, every active sidechain's Withdrawal Vote Engine, the
// Custom Vote cache, and the block-linked cursor stack. All mutating
// methods assume the caller serializes access the way the base chain's
// block-processing thread would (spec.md §5); SCDB itself holds no lock.
type SCDB struct {
	params *chaincfg.Params
	cur    *cursor
}

// New constructs an SCDB anchored at genesisHash with no active
// sidechains, no pending proposals, and an empty custom-vote cache.
func New(params *chaincfg.Params, genesisHash chainhash.Hash) *SCDB {
	reg := newRegistry(params.MaxActiveSidechains)
	act := newActivationEngine(params)
	return &SCDB{
		params: params,
		cur:    newCursor(genesisHash, reg, act),
	}
}

// Apply advances the state machine by one block. It fails with
// ErrStaleAncestor (no mutation) if expectedPrevHash disagrees with the
// cursor's current block hash, matching spec.md §4.5's apply() contract
// and §7's StaleAncestor taxonomy.
func (s *SCDB) Apply(height uint32, blockHash, expectedPrevHash chainhash.Hash, outputs []Output) error {
	top := s.cur.top()
	if expectedPrevHash != top.blockHash {
		log.Debugf("scdb: apply(%d, %s) rejected: expected prev %s, have %s",
			height, blockHash, expectedPrevHash, top.blockHash)
		return ErrStaleAncestor
	}

	reg := top.registry.clone()
	act := top.activationEngine.clone()
	withdrawals := cloneWithdrawals(top.withdrawals)
	customVotes := cloneCustomVotes(top.customVotes)
	hashesToActivate := cloneHashesToActivate(top.hashesToActivate)

	proposals, acks, votes := classifyCommitments(outputs)

	// Proposals first (spec.md §5 ordering guarantee).
	if len(proposals) == 1 {
		act.insert(proposals[0])
	} else if len(proposals) > 1 {
		log.Debugf("scdb: block %s carries %d proposal commits, dropping all", blockHash, len(proposals))
	}

	// Activation acks second.
	acked := make(map[chainhash.Hash]bool, len(acks))
	for _, h := range acks {
		acked[h] = true
	}
	for _, p := range act.tally(acked, reg) {
		if p.replacement {
			log.Infof("scdb: sidechain %q replaces incumbent at slot %d", p.proposal.Title, p.slot)
		} else {
			log.Infof("scdb: sidechain %q activates at slot %d", p.proposal.Title, p.slot)
		}
		reg.set(p.slot, &ActiveSidechain{Proposal: p.proposal})
		act.remove(p.proposal.Hash())
		if _, ok := withdrawals[p.slot]; !ok {
			withdrawals[p.slot] = newWithdrawalEngine(s.params)
		}
	}

	// Bundle votes third.
	for _, v := range votes {
		w, ok := withdrawals[v.slot]
		if !ok || !reg.isActive(v.slot) {
			continue
		}
		w.applyVote(v.hash, v.kind)
	}
	for slot, w := range withdrawals {
		if !reg.isActive(slot) {
			continue
		}
		w.ageAndApprove()
	}

	// Tau-reset last.
	for slot, w := range withdrawals {
		if !reg.isActive(slot) {
			continue
		}
		w.tauReset()
	}

	s.cur.push(&snapshot{
		blockHash:         blockHash,
		prevHash:          expectedPrevHash,
		registry:          reg,
		activationEngine:  act,
		withdrawals:       withdrawals,
		customVotes:       customVotes,
		hashesToActivate:  hashesToActivate,
		hashBlockLastSeen: blockHash,
	})
	return nil
}

// RollbackTo restores the state to the cursor whose last-applied block
// hash equals hash. Returns ErrUnknownBlockHash if hash is not on the
// current stack.
func (s *SCDB) RollbackTo(hash chainhash.Hash) error {
	if _, ok := s.cur.rollbackTo(hash); !ok {
		return ErrUnknownBlockHash
	}
	return nil
}

// commitVote is one parsed BundleVote, used internally by Apply to defer
// application until after acks are tallied.
type commitVote struct {
	slot uint8
	hash chainhash.Hash
	kind VoteKind
}

// classifyCommitments parses every output's script and buckets the
// commitments it recognizes by kind, discarding anything else (including
// StateScript and BlindMerkleCommit payloads, which this component only
// emits/parses for the mining and miner-validation paths, not for its own
// block-application bookkeeping).
func classifyCommitments(outputs []Output) (proposals []Proposal, acks []chainhash.Hash, votes []commitVote) {
	for _, out := range outputs {
		c := ParseCommitment(out.PkScript)
		switch c.Kind {
		case KindProposalCommit:
			proposals = append(proposals, c.Proposal)
		case KindActivationAck:
			acks = append(acks, c.AckHash)
		case KindBundleVote:
			votes = append(votes, commitVote{slot: c.VoteSlot, hash: c.VoteHash, kind: c.VoteKind})
		}
	}
	return proposals, acks, votes
}

// NextStateScript returns the coinbase output bytes this node should
// include when it mines the next block: the canonical state script for
// every active sidechain's current bundle vote list, positional by slot
// order, decided by the Custom Vote cache and the default bundle-vote
// policy (spec.md §4.4 "Policy consumption").
func (s *SCDB) NextStateScript() ([]byte, error) {
	top := s.cur.top()
	var blocks []SCStateBlock
	for slot, active := range top.registry.slots {
		if active == nil {
			continue
		}
		w, ok := top.withdrawals[uint8(slot)]
		if !ok {
			blocks = append(blocks, SCStateBlock{})
			continue
		}
		var block SCStateBlock
		for _, b := range w.state() {
			block.Votes = append(block.Votes, s.decideVote(uint8(slot), b.Hash, top.customVotes))
		}
		blocks = append(blocks, block)
	}
	return EmitStateScript(blocks)
}

func (s *SCDB) decideVote(slot uint8, bundle chainhash.Hash, customVotes map[customVoteKey]VoteKind) VoteKind {
	if v, ok := customVotes[customVoteKey{slot: slot, bundle: bundle}]; ok {
		return v
	}
	switch s.params.DefaultBundleVote {
	case chaincfg.VoteUpvote:
		return VoteUpvoteKind
	case chaincfg.VoteDownvote:
		return VoteDownvoteKind
	default:
		return VoteAbstainKind
	}
}

// GenerateActivationCommit returns the OP_RETURN script acknowledging
// proposalHash, for inclusion in the node's next mined coinbase.
func (s *SCDB) GenerateActivationCommit(proposalHash chainhash.Hash) ([]byte, error) {
	return EmitActivationAck(proposalHash)
}

// CacheProposal returns the ProposalCommit script for p, for the node's own
// next proposal commit (spec.md §6 cache_proposal). SCDB keeps no copy of p
// and does not itself broadcast it; it is the caller's responsibility to
// embed the returned commitment in the next block template.
func (s *SCDB) CacheProposal(p Proposal) ([]byte, error) {
	return EmitProposalCommit(p)
}

// CacheHashToActivate records hash in the hash-to-activate cache until
// RemoveHashToActivate is called. No SCDB method reads the cache back, and
// NextStateScript does not emit ActivationAck commitments for its entries.
func (s *SCDB) CacheHashToActivate(hash chainhash.Hash) {
	top := s.cur.top()
	top.hashesToActivate[hash] = true
}

// RemoveHashToActivate cancels a prior CacheHashToActivate.
func (s *SCDB) RemoveHashToActivate(hash chainhash.Hash) {
	top := s.cur.top()
	delete(top.hashesToActivate, hash)
}

// CacheCustomVotes stages caller-supplied overrides for specific
// (slot, bundle) pairs, consulted by NextStateScript ahead of the default
// policy.
func (s *SCDB) CacheCustomVotes(votes []CustomVote) {
	top := s.cur.top()
	for _, v := range votes {
		top.customVotes[customVoteKey{slot: v.Slot, bundle: v.Bundle}] = v.Vote
	}
}

// GetCustomVoteCache returns every staged vote override, snapshotted at
// call time.
func (s *SCDB) GetCustomVoteCache() []CustomVote {
	top := s.cur.top()
	out := make([]CustomVote, 0, len(top.customVotes))
	for k, v := range top.customVotes {
		out = append(out, CustomVote{Slot: k.slot, Bundle: k.bundle, Vote: v})
	}
	return out
}

// ActiveSidechainCount returns the number of occupied Registry slots.
func (s *SCDB) ActiveSidechainCount() int {
	return s.cur.top().registry.count()
}

// GetSidechains returns every Registry slot (0..MaxActiveSidechains-1)
// with its occupancy flag.
func (s *SCDB) GetSidechains() []SidechainInfo {
	return s.cur.top().registry.listAll()
}

// GetActiveSidechains returns only the occupied slots, in slot order.
func (s *SCDB) GetActiveSidechains() []SidechainInfo {
	all := s.cur.top().registry.listAll()
	out := all[:0]
	for _, info := range all {
		if info.Active {
			out = append(out, info)
		}
	}
	return out
}

// GetActivationStatus returns the tally of every pending proposal, in
// insertion order.
func (s *SCDB) GetActivationStatus() []ActivationStatus {
	return s.cur.top().activationEngine.statuses()
}

// GetState returns the bundle list (with scores, ages, and status) for
// the sidechain at slot, or nil if the slot is inactive or unknown.
func (s *SCDB) GetState(slot uint8) []BundleState {
	top := s.cur.top()
	if !top.registry.isActive(slot) {
		return nil
	}
	w, ok := top.withdrawals[slot]
	if !ok {
		return nil
	}
	return w.state()
}

// CheckWorkScore reports whether the named bundle on sidechain slot
// currently meets or exceeds MinWorkScore.
func (s *SCDB) CheckWorkScore(slot uint8, bundleHash chainhash.Hash) bool {
	top := s.cur.top()
	w, ok := top.withdrawals[slot]
	if !ok {
		return false
	}
	return w.checkWorkScore(bundleHash)
}

// GetHashBlockLastSeen returns the hash of the most recently applied
// block, or the genesis hash if none has been applied.
func (s *SCDB) GetHashBlockLastSeen() chainhash.Hash {
	return s.cur.top().hashBlockLastSeen
}
