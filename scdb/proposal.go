// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"bytes"
	"encoding/binary"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// Proposal is an immutable candidate sidechain, as submitted by a user and
// carried in a coinbase ProposalCommit output. Two proposals are equal iff
// every content field is equal; Hash is a deterministic digest over all of
// them, used as the proposal's identity both in the cache and in
// ActivationAck commitments.
type Proposal struct {
	// Slot is the target Registry slot, in [0, MaxActiveSidechains).
	Slot uint8

	// Version is the proposal format version; SCDB rejects (silently drops)
	// any proposal above chaincfg.Params.SidechainVersionMax.
	Version uint32

	// Title is a short human-readable name. Must be non-empty.
	Title string

	// Description is free-form sidechain documentation. Must be non-empty.
	Description string

	// DepositScript is the script sidechain deposits pay into on the main
	// chain.
	DepositScript []byte

	// KeyID identifies the public key authorizing withdrawals, opaque to
	// SCDB beyond byte-equality.
	KeyID []byte

	// HasHash1 and Hash1 carry an optional 256-bit release-hash identity.
	HasHash1 bool
	Hash1    chainhash.Hash

	// HasHash2 and Hash2 carry an optional 160-bit commit-hash identity.
	HasHash2 bool
	Hash2    Hash160
}

// Valid reports whether the proposal satisfies the structural requirements
// spec'd for intake: non-empty title and description, and a version within
// the configured ceiling.
func (p *Proposal) Valid(maxVersion uint32) bool {
	return p.Title != "" && p.Description != "" && p.Version <= maxVersion
}

// Equal reports whether two proposals have identical content fields. This
// is the "structurally identical pending proposal" test the intake rule in
// spec.md §4.2 uses to reject a duplicate re-submission.
func (p *Proposal) Equal(o *Proposal) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Slot == o.Slot &&
		p.Version == o.Version &&
		p.Title == o.Title &&
		p.Description == o.Description &&
		bytes.Equal(p.DepositScript, o.DepositScript) &&
		bytes.Equal(p.KeyID, o.KeyID) &&
		p.HasHash1 == o.HasHash1 &&
		p.Hash1 == o.Hash1 &&
		p.HasHash2 == o.HasHash2 &&
		p.Hash2 == o.Hash2
}

// DuplicateIdentity reports whether two proposals would collide under
// spec.md §3 invariant 2: identical deposit script, key ID, and both
// optional content hashes. Two proposals can satisfy this without being
// Equal (e.g. different slot, title, or description).
func (p *Proposal) DuplicateIdentity(o *Proposal) bool {
	if p == nil || o == nil {
		return false
	}
	return bytes.Equal(p.DepositScript, o.DepositScript) &&
		bytes.Equal(p.KeyID, o.KeyID) &&
		p.HasHash1 == o.HasHash1 &&
		p.Hash1 == o.Hash1 &&
		p.HasHash2 == o.HasHash2 &&
		p.Hash2 == o.Hash2
}

// Hash returns the proposal's deterministic identity digest, computed over
// every content field with length-prefixed framing so no field boundary is
// ambiguous.
func (p *Proposal) Hash() chainhash.Hash {
	var buf bytes.Buffer
	buf.WriteByte(p.Slot)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], p.Version)
	buf.Write(u32[:])

	writeLPString(&buf, p.Title)
	writeLPString(&buf, p.Description)
	writeLPBytes(&buf, p.DepositScript)
	writeLPBytes(&buf, p.KeyID)

	if p.HasHash1 {
		buf.WriteByte(1)
		buf.Write(p.Hash1[:])
	} else {
		buf.WriteByte(0)
	}
	if p.HasHash2 {
		buf.WriteByte(1)
		buf.Write(p.Hash2[:])
	} else {
		buf.WriteByte(0)
	}

	return chainhash.HashH(buf.Bytes())
}

func writeLPString(buf *bytes.Buffer, s string) {
	writeLPBytes(buf, []byte(s))
}

func writeLPBytes(buf *bytes.Buffer, b []byte) {
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(b)))
	buf.Write(u32[:])
	buf.Write(b)
}
