// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

// ActiveSidechain is a Proposal that has been promoted into the Registry.
// It occupies exactly one slot until explicitly replaced.
type ActiveSidechain struct {
	Proposal Proposal
}

// SidechainInfo is a query-surface view of one Registry slot, returned by
// GetSidechains regardless of whether the slot is occupied.
type SidechainInfo struct {
	Slot     uint8
	Active   bool
	Proposal Proposal
}

// registry is the fixed-size, slot-indexed Active Sidechain table. A slot
// holds at most one Active Sidechain; mutation happens only through the
// Activation Engine's promotion and replacement paths.
type registry struct {
	slots [256]*ActiveSidechain
	cap   int
}

func newRegistry(maxActive int) *registry {
	return &registry{cap: maxActive}
}

// isActive reports whether slot holds an Active Sidechain.
func (r *registry) isActive(slot uint8) bool {
	if int(slot) >= len(r.slots) {
		return false
	}
	return r.slots[slot] != nil
}

// get returns the Active Sidechain at slot, or nil if the slot is empty or
// out of range. Never panics on an out-of-range query, per spec.md §7.
func (r *registry) get(slot uint8) *ActiveSidechain {
	if int(slot) >= len(r.slots) {
		return nil
	}
	return r.slots[slot]
}

// set installs sc at slot, evicting any incumbent. Callers are responsible
// for enforcing capacity and duplicate-identity invariants before calling.
func (r *registry) set(slot uint8, sc *ActiveSidechain) {
	if int(slot) >= len(r.slots) {
		return
	}
	r.slots[slot] = sc
}

// count returns the number of occupied slots.
func (r *registry) count() int {
	n := 0
	for _, s := range r.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// listAll returns every slot numbered 0..len(slots)-1 with its occupancy
// flag and (if active) the occupant's proposal, matching spec.md §4.3's
// list_all() query.
func (r *registry) listAll() []SidechainInfo {
	out := make([]SidechainInfo, len(r.slots))
	for i := range r.slots {
		out[i] = SidechainInfo{Slot: uint8(i)}
		if r.slots[i] != nil {
			out[i].Active = true
			out[i].Proposal = r.slots[i].Proposal
		}
	}
	return out
}

// hasDuplicateIdentity reports whether candidate would collide, under
// spec.md §3 invariant 2, with any Active Sidechain other than the one
// occupying excludeSlot (excludeSlot lets a replacement compare against
// every slot but its own target).
func (r *registry) hasDuplicateIdentity(candidate *Proposal, excludeSlot uint8) bool {
	for i, s := range r.slots {
		if s == nil || uint8(i) == excludeSlot {
			continue
		}
		if s.Proposal.DuplicateIdentity(candidate) {
			return true
		}
	}
	return false
}

// clone returns a deep copy, used by the cursor snapshot stack.
func (r *registry) clone() *registry {
	cp := &registry{cap: r.cap}
	for i, s := range r.slots {
		if s != nil {
			dup := *s
			cp.slots[i] = &dup
		}
	}
	return cp
}
