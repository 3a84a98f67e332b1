// pkg/mvcc/table.go
package mvcc

import (
	"errors"
	"sync"
)

// ErrDuplicateTxnID is returned by Table.put when the Clock has produced
// an id already present in the table. This would only happen if the
// Clock were broken (non-monotonic or non-unique).
var ErrDuplicateTxnID = errors.New("mvcc: duplicate transaction id")

// Table is the Transaction Table: a mapping from transaction id to its
// Transaction entry. The sentinel id 0 is reserved: no Clock issues it,
// so it never becomes a key through the Engine. put itself does not
// check for it.
type Table struct {
	mu   sync.RWMutex
	txns map[TxnID]*Transaction
}

// NewTable creates an empty Transaction Table.
func NewTable() *Table {
	return &Table{txns: make(map[TxnID]*Transaction)}
}

// put inserts a fresh ACTIVE Transaction for id. It fails only on a
// duplicate id, which implies a Clock bug.
func (t *Table) put(id TxnID) (*Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.txns[id]; exists {
		return nil, ErrDuplicateTxnID
	}

	txn := newTransaction(id)
	t.txns[id] = txn
	return txn, nil
}

// Get looks up a Transaction by id. It returns nil if absent.
func (t *Table) Get(id TxnID) *Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.txns[id]
}

// setState mutates the state field of the Transaction keyed by id in
// place. It rejects transitions away from any terminal state, and
// reports ErrTxnNotFound if id is absent.
func (t *Table) setState(id TxnID, newState TxnState) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	txn, ok := t.txns[id]
	if !ok {
		return ErrTxnNotFound
	}
	if txn.state.terminal() {
		return ErrTxnBadState
	}

	txn.state = newState
	return nil
}
