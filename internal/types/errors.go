package types

import "errors"

// Error taxonomy shared by the session manager, the watchlist synchronizer
// and the HTTP layer. Remote-call failures are caught at the component
// boundary, logged, and wrapped around one of these sentinels so callers can
// branch with errors.Is instead of string matching.
var (
	// ErrUnauthenticated marks an operation that requires a session when
	// there is none.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrAlreadyExists marks a duplicate add attempt.
	ErrAlreadyExists = errors.New("already exists")

	// ErrRemoteUnavailable marks a network or timeout failure talking to the
	// catalog or the data store.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")
)
