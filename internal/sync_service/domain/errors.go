package domain

import "errors"

var (
	// ErrSyncInProgress indicates a sync or commit is already running for
	// the tenant; at most one reconciliation is in flight per tenant.
	ErrSyncInProgress = errors.New("a sync is already in progress for this tenant")
	// ErrNoPendingSync indicates there is no classification awaiting review.
	ErrNoPendingSync = errors.New("no pending sync review for this tenant")
	// ErrRemoteTimeout indicates the remote directory call exceeded the
	// configured deadline.
	ErrRemoteTimeout = errors.New("remote directory call timed out")
	// ErrUnknownSelection indicates a selected line URI is not part of the
	// pending diff.
	ErrUnknownSelection = errors.New("selection contains a line URI not present in the pending diff")
)
