package model

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Failure taxonomy for a single user interaction. Store and pipeline errors
// are wrapped around one of these sentinels at the boundary where they occur;
// the CLI and HTTP layers map them to user-visible outcomes. Date parse
// failures are recovered per-row and never reach this level.
var (
	// ErrNotFound: the query succeeded but returned zero rows for the
	// requested key. Surfaced as an informational empty state, not an error.
	ErrNotFound = eris.New("not found")

	// ErrConnection: the data store was unreachable or the query failed.
	// The current view aborts; no retry.
	ErrConnection = eris.New("data store unreachable")

	// ErrSchemaMismatch: a required column could not be resolved in the
	// source schema. The view aborts before rendering derived sections.
	ErrSchemaMismatch = eris.New("required column not found")
)

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConnection reports whether err is (or wraps) ErrConnection.
func IsConnection(err error) bool { return errors.Is(err, ErrConnection) }

// IsSchemaMismatch reports whether err is (or wraps) ErrSchemaMismatch.
func IsSchemaMismatch(err error) bool { return errors.Is(err, ErrSchemaMismatch) }
