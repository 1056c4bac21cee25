package adapter

import "context"

// UserLocker serializes event handling per user. Lock blocks until the lock is
// held or ctx is done; the returned func releases it.
type UserLocker interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}
