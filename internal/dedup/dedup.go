// Package dedup provides best-effort duplicate suppression for webhook
// message ids. Webhook senders retry deliveries they believe were lost, so
// the same message id commonly arrives more than once; the guard keeps the
// relay from answering the same message twice.
package dedup

import "context"

// Guard decides whether a message id has already been handled. The check
// and the record are one atomic operation: a Fresh verdict means the id is
// recorded before the caller performs any irreversible side effect.
type Guard interface {
	// CheckAndRecord returns true when the id is fresh (now recorded) and
	// false when it is a duplicate.
	CheckAndRecord(ctx context.Context, messageID string) (bool, error)
}
