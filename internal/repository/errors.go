package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry indicates a unique constraint violation.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrTransitionNotAllowed indicates a conditional status update matched no
	// row: the room's current status was not in the allowed "from" set when
	// the update committed. The caller lost a transition race or requested an
	// invalid transition; either way nothing was written.
	ErrTransitionNotAllowed = errors.New("repository: status transition not allowed")
)

var (
	ErrRoomNotFound        = ErrNotFound
	ErrParticipantNotFound = ErrNotFound
)
