// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import "errors"

// ErrStaleAncestor is returned by (*SCDB).Apply when the caller's
// expectedPrevHash does not match the current cursor's last block hash.
// The caller must roll back to a matching ancestor before retrying.
var ErrStaleAncestor = errors.New("scdb: expected previous block hash does not match current cursor")

// ErrUnknownBlockHash is returned by (*SCDB).RollbackTo when no cursor in
// the replay chain has the requested block hash.
var ErrUnknownBlockHash = errors.New("scdb: no cursor found for requested block hash")
