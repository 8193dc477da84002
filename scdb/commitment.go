// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/txscript/v4"
)

// CommitmentKind tags the variant a parsed Commitment holds.
type CommitmentKind uint8

// Commitment kinds, per spec.md §4.1.
const (
	// KindNone marks an output that carries no recognized commitment.
	KindNone CommitmentKind = iota
	KindProposalCommit
	KindActivationAck
	KindBundleVote
	KindStateScript
	KindBlindMerge
)

// scriptVersion is the consensus script version SCDB parses and emits
// commitments under; 0 is the only version either base chain's tokenizer
// understands today.
const scriptVersion = 0

// Commitment tag bytes. These mark the start of each OP_RETURN payload
// SCDB recognizes; a one-byte discriminant lets ParseCommitment dispatch
// without attempting every variant's field grammar in turn. The source's
// sidechain.h was not available to this implementation, so these values
// are this codec's own assignment rather than a literal carry-over.
const (
	tagProposalCommit byte = 0xD1
	tagActivationAck  byte = 0xD2
	tagBundleVote     byte = 0xD3
	tagStateVersion   byte = 0xD4
)

// State-script grammar bytes, spec.md §4.1's VDELIM/SC_DELIM/WT_DELIM and
// the VERIFY/REJECT vote bytes, grounded on
// original_source/src/test/sidechaindb_tests.cpp's SCOP_* constants.
const (
	scopVersionDelim byte = 0xD5
	scopVerify       byte = 0xD6
	scopReject       byte = 0xD7
	scopSCDelim      byte = 0xD8
	scopWTDelim      byte = 0xD9
)

// bmmPrefix is the literal 3-byte marker original_source's
// CCriticalData::IsBMMRequest checks for at the start of a BMM request
// script, before the push-length byte and the CScriptNum-encoded slot.
var bmmPrefix = []byte{0x00, 0xBF, 0x00}

// Commitment is a parsed OP_RETURN payload. Only the fields relevant to
// Kind are meaningful; the zero value is KindNone.
type Commitment struct {
	Kind CommitmentKind

	Proposal Proposal

	AckHash chainhash.Hash

	VoteSlot uint8
	VoteHash chainhash.Hash
	VoteKind VoteKind

	StateVotes []SCStateBlock

	BMMSlot      uint8
	BMMPrevBlock string
}

// SCStateBlock is one sidechain's worth of bundle votes within a
// StateScript commitment, positional by list order (spec.md §4.1).
type SCStateBlock struct {
	Votes []VoteKind
}

// ParseCommitment inspects a transaction output's public key script and
// returns the Commitment it encodes, or KindNone if script is not a
// recognized OP_RETURN payload. It never returns an error: an
// unrecognized or malformed script is simply KindNone, matching how a
// miner's block template silently drops commitments it does not
// understand.
func ParseCommitment(script []byte) Commitment {
	data, ok := opReturnPayload(script)
	if !ok {
		return Commitment{Kind: KindNone}
	}

	if isBMMRequest(data) {
		slot, prevBlock, ok := parseBMMRequest(data)
		if !ok {
			return Commitment{Kind: KindNone}
		}
		return Commitment{Kind: KindBlindMerge, BMMSlot: slot, BMMPrevBlock: prevBlock}
	}

	if len(data) == 0 {
		return Commitment{Kind: KindNone}
	}

	switch data[0] {
	case tagProposalCommit:
		p, ok := parseProposalCommit(data[1:])
		if !ok {
			return Commitment{Kind: KindNone}
		}
		return Commitment{Kind: KindProposalCommit, Proposal: p}
	case tagActivationAck:
		hash, ok := parseActivationAck(data[1:])
		if !ok {
			return Commitment{Kind: KindNone}
		}
		return Commitment{Kind: KindActivationAck, AckHash: hash}
	case tagBundleVote:
		slot, hash, kind, ok := parseBundleVote(data[1:])
		if !ok {
			return Commitment{Kind: KindNone}
		}
		return Commitment{Kind: KindBundleVote, VoteSlot: slot, VoteHash: hash, VoteKind: kind}
	case tagStateVersion:
		blocks, ok := parseStateScript(data[1:])
		if !ok {
			return Commitment{Kind: KindNone}
		}
		return Commitment{Kind: KindStateScript, StateVotes: blocks}
	default:
		return Commitment{Kind: KindNone}
	}
}

// opReturnPayload reports whether script is a standard OP_RETURN script
// and, if so, returns the single data push following OP_RETURN.
func opReturnPayload(script []byte) ([]byte, bool) {
	tokenizer := txscript.MakeScriptTokenizer(scriptVersion, script)
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_RETURN {
		return nil, false
	}
	if !tokenizer.Next() {
		return nil, false
	}
	data := tokenizer.Data()
	if tokenizer.Next() || tokenizer.Err() != nil {
		return nil, false
	}
	return data, true
}

// isBMMRequest reports whether data begins with the BMM request prefix,
// per original_source/src/primitives/transaction.cpp's
// CCriticalData::IsBMMRequest.
func isBMMRequest(data []byte) bool {
	return len(data) > len(bmmPrefix) && bytes.Equal(data[:len(bmmPrefix)], bmmPrefix)
}

// parseBMMRequest decodes the sidechain slot and previous-block reference
// following the BMM prefix. The push-length byte L selects how many
// bytes encode the CScriptNum slot (0, 1, or 2); the previous-block
// reference is always a 0x04-prefixed 4-byte big-endian-displayed
// fragment of the referenced block hash.
func parseBMMRequest(data []byte) (slot uint8, prevBlock string, ok bool) {
	rest := data[len(bmmPrefix):]
	if len(rest) < 1 {
		return 0, "", false
	}
	l := int(rest[0])
	rest = rest[1:]
	if l > 2 || len(rest) < l {
		return 0, "", false
	}
	num, err := txscript.MakeScriptNum(rest[:l], 2)
	if err != nil {
		return 0, "", false
	}
	slotVal := int64(num)
	if slotVal < 0 || slotVal > 255 {
		return 0, "", false
	}
	rest = rest[l:]

	if len(rest) < 5 || rest[0] != 0x04 {
		return 0, "", false
	}
	refBytes := rest[1:5]
	reversed := make([]byte, 4)
	for i, b := range refBytes {
		reversed[3-i] = b
	}
	return uint8(slotVal), hex.EncodeToString(reversed), true
}

// parseProposalCommit decodes a ProposalCommit payload using the same
// length-prefixed framing Proposal.Hash hashes over (scdb/proposal.go),
// so that a round trip through Emit and ParseCommitment reproduces an
// identical Proposal.Hash.
func parseProposalCommit(data []byte) (Proposal, bool) {
	var p Proposal
	r := bytes.NewReader(data)

	slotByte, err := r.ReadByte()
	if err != nil {
		return p, false
	}
	p.Slot = slotByte

	var u32 [4]byte
	if _, err := readFull(r, u32[:]); err != nil {
		return p, false
	}
	p.Version = binary.LittleEndian.Uint32(u32[:])

	title, ok := readLPString(r)
	if !ok {
		return p, false
	}
	p.Title = title

	desc, ok := readLPString(r)
	if !ok {
		return p, false
	}
	p.Description = desc

	depositScript, ok := readLPBytes(r)
	if !ok {
		return p, false
	}
	p.DepositScript = depositScript

	keyID, ok := readLPBytes(r)
	if !ok {
		return p, false
	}
	p.KeyID = keyID

	hasHash1, err := r.ReadByte()
	if err != nil {
		return p, false
	}
	if hasHash1 == 1 {
		var h [chainhash.HashSize]byte
		if _, err := readFull(r, h[:]); err != nil {
			return p, false
		}
		p.HasHash1 = true
		p.Hash1 = chainhash.Hash(h)
	}

	hasHash2, err := r.ReadByte()
	if err != nil {
		return p, false
	}
	if hasHash2 == 1 {
		var h [Hash160Size]byte
		if _, err := readFull(r, h[:]); err != nil {
			return p, false
		}
		p.HasHash2 = true
		p.Hash2 = Hash160(h)
	}

	return p, true
}

func parseActivationAck(data []byte) (chainhash.Hash, bool) {
	if len(data) != chainhash.HashSize {
		return chainhash.Hash{}, false
	}
	var h [chainhash.HashSize]byte
	copy(h[:], data)
	return chainhash.Hash(h), true
}

func parseBundleVote(data []byte) (slot uint8, hash chainhash.Hash, kind VoteKind, ok bool) {
	if len(data) != 1+chainhash.HashSize+1 {
		return 0, chainhash.Hash{}, 0, false
	}
	slot = data[0]
	var h [chainhash.HashSize]byte
	copy(h[:], data[1:1+chainhash.HashSize])
	kindByte := data[1+chainhash.HashSize]
	if kindByte > byte(VoteDownvoteKind) {
		return 0, chainhash.Hash{}, 0, false
	}
	return slot, chainhash.Hash(h), VoteKind(kindByte), true
}

// parseStateScript decodes spec.md §4.1's positional state-script
// grammar: VERSION VDELIM <sc-block>(SC_DELIM <sc-block>)* where each
// sc-block is VERIFY|REJECT(WT_DELIM VERIFY|REJECT)*.
func parseStateScript(data []byte) ([]SCStateBlock, bool) {
	if len(data) < 1 || data[0] != scopVersionDelim {
		return nil, false
	}
	data = data[1:]

	var blocks []SCStateBlock
	cur := SCStateBlock{}
	if len(data) == 0 {
		return nil, false
	}
	for _, b := range data {
		switch b {
		case scopVerify:
			cur.Votes = append(cur.Votes, VoteUpvoteKind)
		case scopReject:
			cur.Votes = append(cur.Votes, VoteDownvoteKind)
		case scopWTDelim:
			// separator within a block; no vote recorded
		case scopSCDelim:
			blocks = append(blocks, cur)
			cur = SCStateBlock{}
		default:
			return nil, false
		}
	}
	blocks = append(blocks, cur)
	return blocks, true
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, errors.New("scdb: short read")
		}
	}
	return n, nil
}

func readLPString(r *bytes.Reader) (string, bool) {
	b, ok := readLPBytes(r)
	if !ok {
		return "", false
	}
	return string(b), true
}

func readLPBytes(r *bytes.Reader) ([]byte, bool) {
	var u32 [4]byte
	if _, err := readFull(r, u32[:]); err != nil {
		return nil, false
	}
	n := binary.LittleEndian.Uint32(u32[:])
	if n > uint32(r.Len()) {
		return nil, false
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := readFull(r, buf); err != nil {
			return nil, false
		}
	}
	return buf, true
}

// EmitProposalCommit builds the OP_RETURN script for a ProposalCommit.
func EmitProposalCommit(p Proposal) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(tagProposalCommit)
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

	return buildOpReturn(buf.Bytes())
}

// EmitActivationAck builds the OP_RETURN script for an ActivationAck.
func EmitActivationAck(hash chainhash.Hash) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(tagActivationAck)
	buf.Write(hash[:])
	return buildOpReturn(buf.Bytes())
}

// EmitBundleVote builds the OP_RETURN script for one BundleVote.
func EmitBundleVote(slot uint8, hash chainhash.Hash, kind VoteKind) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(tagBundleVote)
	buf.WriteByte(slot)
	buf.Write(hash[:])
	buf.WriteByte(byte(kind))
	return buildOpReturn(buf.Bytes())
}

// EmitStateScript builds the OP_RETURN script encoding every active
// sidechain's current bundle vote list, positional by Registry slot
// order, per spec.md §4.1 and §6's next_state_script().
func EmitStateScript(blocks []SCStateBlock) ([]byte, error) {
	if len(blocks) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.WriteByte(tagStateVersion)
	buf.WriteByte(scopVersionDelim)
	for i, block := range blocks {
		if i > 0 {
			buf.WriteByte(scopSCDelim)
		}
		if len(block.Votes) == 0 {
			buf.WriteByte(scopReject)
			continue
		}
		for j, v := range block.Votes {
			if j > 0 {
				buf.WriteByte(scopWTDelim)
			}
			if v == VoteUpvoteKind {
				buf.WriteByte(scopVerify)
			} else {
				buf.WriteByte(scopReject)
			}
		}
	}
	return buildOpReturn(buf.Bytes())
}

func buildOpReturn(payload []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(payload).
		Script()
}
