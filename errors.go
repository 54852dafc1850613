/*
 *  errors.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"github.com/pkg/errors"
)

// Error taxonomy of the pipeline. Fatal conditions (malformed tables) go
// through ErrorAbort before any stage runs; the sentinels below mark the
// recoverable conditions that are reported and skipped instead.
var (
	// ErrInputFormat marks a malformed input table
	ErrInputFormat = errors.New("malformed input table")
	// ErrOutOfRange marks a coordinate beyond its chromosome length
	ErrOutOfRange = errors.New("position out of chromosome range")
	// ErrInconsistentFragments marks a fragment table that is not
	// contiguous and sorted within a chromosome
	ErrInconsistentFragments = errors.New("inconsistent fragment table")
	// ErrUnassociatedProbe marks a probe with no containing fragment
	ErrUnassociatedProbe = errors.New("probe has no containing fragment")
	// ErrUnknownChrom marks a reference to a chromosome absent from the
	// coordinates table
	ErrUnknownChrom = errors.New("unknown chromosome")
)
