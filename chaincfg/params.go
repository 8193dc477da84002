// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network-parameterized constants that govern
// the sidechain database (SCDB) state machine: activation timing, work-score
// thresholds, and the bounded table sizes enforced at insertion.
package chaincfg

// BundleVotePolicy is the default disposition the node applies to a
// withdrawal bundle it has no CustomVote for when it mines a block.
type BundleVotePolicy uint8

// Bundle vote policies.
const (
	// VoteUpvote casts UPVOTE for any bundle lacking an explicit custom vote.
	VoteUpvote BundleVotePolicy = iota
	// VoteAbstain leaves bundles lacking an explicit custom vote unchanged.
	// This is the default, matching the source's conservative default.
	VoteAbstain
	// VoteDownvote casts DOWNVOTE for any bundle lacking an explicit custom vote.
	VoteDownvote
)

// String returns the human-readable name of the policy.
func (p BundleVotePolicy) String() string {
	switch p {
	case VoteUpvote:
		return "upvote"
	case VoteDownvote:
		return "downvote"
	default:
		return "abstain"
	}
}

// Params holds the compile-time constants that parameterize one instance of
// the SCDB state machine. A node selects one Params value for the lifetime
// of its chain the way chaincfg.Params selects PoW and ticket parameters in
// the base chain.
type Params struct {
	// Name identifies the parameter set, e.g. "mainnet", "testnet", "simnet".
	Name string

	// MaxActiveSidechains bounds the Registry: at most this many slots
	// (numbered 0..MaxActiveSidechains-1) may be occupied at once.
	MaxActiveSidechains int

	// MaxPendingProposals bounds the Proposal Cache.
	MaxPendingProposals int

	// ActivationPeriod is the number of ACK commits (not necessarily
	// consecutive) a pending proposal must accumulate to activate.
	ActivationPeriod uint32

	// ActivationMaxFailures is the largest number of consecutive missed-ACK
	// blocks a pending proposal survives; one more miss prunes it (or fails
	// an in-progress replacement).
	ActivationMaxFailures uint32

	// ReplacementPeriod is the number of consecutive approving blocks a
	// proposal targeting an occupied slot must accumulate, beyond ordinary
	// activation, to displace the incumbent.
	ReplacementPeriod uint32

	// MinWorkScore is the work score at which a pending withdrawal bundle
	// is approved and removed from its sidechain's bundle list.
	MinWorkScore int32

	// MaxWorkScore bounds a bundle's work score from above; UPVOTE commits
	// never push it past this ceiling.
	MaxWorkScore int32

	// MaxBundlesPerSidechain bounds each sidechain's pending bundle list.
	MaxBundlesPerSidechain int

	// Tau is the block interval after which an active sidechain's
	// unapproved bundles are discarded and voting restarts from empty.
	Tau uint32

	// SidechainVersionMax is the highest proposal version this SCDB
	// instance will accept.
	SidechainVersionMax uint32

	// DefaultBundleVote is the policy applied to bundles with no
	// CustomVote entry when this node mines a block.
	DefaultBundleVote BundleVotePolicy
}

// MainNetParams returns the SCDB parameters for the DriveNet main network.
// The activation, replacement, and tau windows are roughly six months of
// blocks at a ten-minute target spacing, matching the source chain's
// production cadence.
func MainNetParams() *Params {
	return &Params{
		Name:                   "mainnet",
		MaxActiveSidechains:    256,
		MaxPendingProposals:    256,
		ActivationPeriod:       26300,
		ActivationMaxFailures:  13150,
		ReplacementPeriod:      26300,
		MinWorkScore:           13150,
		MaxWorkScore:           26300,
		MaxBundlesPerSidechain: 3,
		Tau:                    26300,
		SidechainVersionMax:    0,
		DefaultBundleVote:      VoteAbstain,
	}
}

// TestNetParams returns SCDB parameters for the DriveNet test network: the
// same ratios as mainnet, scaled down so activation and replacement
// complete in a testable number of blocks.
func TestNetParams() *Params {
	return &Params{
		Name:                   "testnet",
		MaxActiveSidechains:    256,
		MaxPendingProposals:    256,
		ActivationPeriod:       100,
		ActivationMaxFailures:  50,
		ReplacementPeriod:      100,
		MinWorkScore:           50,
		MaxWorkScore:           100,
		MaxBundlesPerSidechain: 3,
		Tau:                    100,
		SidechainVersionMax:    0,
		DefaultBundleVote:      VoteAbstain,
	}
}

// SimNetParams returns SCDB parameters tuned for fast, deterministic unit
// and simulation tests, the way the teacher's SimNetParams shrinks
// RuleChangeActivationInterval for the same reason.
func SimNetParams() *Params {
	return &Params{
		Name:                   "simnet",
		MaxActiveSidechains:    256,
		MaxPendingProposals:    256,
		ActivationPeriod:       5,
		ActivationMaxFailures:  3,
		ReplacementPeriod:      5,
		MinWorkScore:           100,
		MaxWorkScore:           200,
		MaxBundlesPerSidechain: 3,
		Tau:                    10,
		SidechainVersionMax:    0,
		DefaultBundleVote:      VoteAbstain,
	}
}
