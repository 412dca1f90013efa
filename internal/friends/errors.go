package friends

import "errors"

// Conflict errors are expected outcomes, not faults; callers treat them as
// no-op signals. Only ErrTransient is retryable.
var (
	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrDuplicatePending = errors.New("friend request already sent")
	ErrNotFound         = errors.New("friend request not found")
	ErrAlreadyResolved  = errors.New("friend request already resolved")
	ErrTransient        = errors.New("directory unavailable")
)
