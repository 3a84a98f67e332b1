// pkg/mvcc/errors.go
package mvcc

import "errors"

var (
	// ErrKeyNotFound is raised by Delete when the key has no chain, or no
	// Record in its chain is visible to the writer. Get never raises it;
	// an absent value is simply (nil, nil).
	ErrKeyNotFound = errors.New("mvcc: key not found")

	// ErrTxnNotFound is raised when an explicit transaction id supplied
	// to an operation is not present in the Transaction Table.
	ErrTxnNotFound = errors.New("mvcc: transaction not found")

	// ErrTxnBadState is raised when an explicit transaction id refers to
	// a Transaction that is no longer ACTIVE.
	ErrTxnBadState = errors.New("mvcc: transaction is not active")
)
