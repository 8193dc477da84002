// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scdb

import "github.com/decred/slog"

// log is the package-level logger used throughout scdb. It defaults to a
// disabled backend so importers that never call UseLogger see no output.
var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}
