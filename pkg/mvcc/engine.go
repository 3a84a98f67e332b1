// pkg/mvcc/engine.go
package mvcc

import (
	"sync"

	"mvccd/pkg/clock"
)

// Engine composes the Clock, Transaction Table and Version Store into the
// MVCC contract: Get, Put, Delete, Start, Commit, Rollback. Every entry
// point is serialized behind a single mutex, so the line-protocol server
// can drive it from one goroutine per connection without any finer-grained
// lock design.
type Engine struct {
	mu    sync.Mutex
	clock clock.Clock
	table *Table
	store *Store
}

// New creates an empty Engine backed by c. Production callers should pass
// clock.NewReal(); tests pass clock.NewDeterministic() for reproducible
// ids.
func New(c clock.Clock) *Engine {
	return &Engine{
		clock: c,
		table: NewTable(),
		store: NewStore(),
	}
}

// Start allocates a Clock timestamp, registers a fresh ACTIVE Transaction
// under it, and returns the id.
func (e *Engine) Start() (TxnID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start()
}

// start is Start's body, called both directly and by withTxn when no
// explicit transaction was supplied. Callers must hold e.mu.
func (e *Engine) start() (TxnID, error) {
	id := TxnID(e.clock.Now())
	if _, err := e.table.put(id); err != nil {
		return 0, err
	}
	return id, nil
}

// Commit transitions txn to COMMITTED. txn must be a present, ACTIVE id.
func (e *Engine) Commit(txn TxnID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.validate(txn); err != nil {
		return err
	}
	return e.table.setState(txn, StateCommitted)
}

// Rollback transitions txn to ABORTED. txn must be a present, ACTIVE id.
func (e *Engine) Rollback(txn TxnID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.validate(txn); err != nil {
		return err
	}
	return e.table.setState(txn, StateAborted)
}

// validate applies the pre-transaction rules for an explicit id: it must
// be present in the Transaction Table and ACTIVE. Callers must hold e.mu.
func (e *Engine) validate(txn TxnID) error {
	t := e.table.Get(txn)
	if t == nil {
		return ErrTxnNotFound
	}
	if t.State() != StateActive {
		return ErrTxnBadState
	}
	return nil
}

// withTxn is the single pipeline every mutating operation funnels through:
//
//  1. If txn is non-nil, validate it against the pre-transaction rules.
//  2. Otherwise allocate a fresh implicit transaction.
//  3. Run body with the effective id.
//  4. If body errors and txn was explicit, poison that transaction to
//     ABORTED_FAILED before returning the error.
//  5. If txn was implicit and body succeeded, commit the implicit
//     transaction.
//
// Callers must hold e.mu for the duration; withTxn never releases it,
// since body may need to observe state it read earlier in the same call.
func (e *Engine) withTxn(txn *TxnID, body func(effective TxnID) error) error {
	var (
		effective TxnID
		implicit  bool
	)

	if txn != nil {
		if err := e.validate(*txn); err != nil {
			return err
		}
		effective = *txn
	} else {
		id, err := e.start()
		if err != nil {
			return err
		}
		effective = id
		implicit = true
	}

	if err := body(effective); err != nil {
		if !implicit {
			// Poisoning: no Records written inside the failed call are
			// rolled back. The visibility predicate treats
			// ABORTED_FAILED identically to ABORTED, so they stay
			// invisible forever without needing to be undone.
			_ = e.table.setState(effective, StateAbortedFailed)
		}
		return err
	}

	if implicit {
		return e.table.setState(effective, StateCommitted)
	}
	return nil
}

// Get returns the value visible to txn for key, or nil if absent. txn may
// be nil, in which case Get runs (and commits) its own implicit
// transaction, wrapping even read operations in a fresh, auto-committed
// transaction.
func (e *Engine) Get(key string, txn *TxnID) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var value []byte
	err := e.withTxn(txn, func(effective TxnID) error {
		r, ok := selectVersion(e.store.chain(key), effective, e.table)
		if !ok {
			value = nil
			return nil
		}
		value = r.Value()
		return nil
	})
	return value, err
}

// Put stores value for key. If a Record is currently visible to the
// writer, Put first performs an internal delete(key, txn), appending a
// tombstoned copy of the prior Record carrying the writer's id in xmax,
// then appends a new live Record with xmin = writer id.
//
// The internal delete call would poison the transaction if the key
// turned out to be missing despite the prior visibility check having
// just succeeded, but under the engine's single-exclusive-section
// execution model that race is impossible: no other transaction can run
// between the check and the delete.
func (e *Engine) Put(key string, value []byte, txn *TxnID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.withTxn(txn, func(effective TxnID) error {
		if _, ok := selectVersion(e.store.chain(key), effective, e.table); ok {
			if err := e.deleteVisible(key, effective); err != nil {
				return err
			}
		}
		e.store.append(key, NewRecord(value, effective))
		return nil
	})
}

// Delete tombstones the Record currently visible to txn for key. It fails
// with ErrKeyNotFound if the key has no chain, or if no Record in its
// chain is visible to the writer.
func (e *Engine) Delete(key string, txn *TxnID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.withTxn(txn, func(effective TxnID) error {
		return e.deleteVisible(key, effective)
	})
}

// deleteVisible is Delete's body, shared with Put's update path. Callers
// must hold e.mu and must not have already committed/poisoned the
// effective transaction.
func (e *Engine) deleteVisible(key string, effective TxnID) error {
	if !e.store.hasAny(key) {
		return ErrKeyNotFound
	}
	r, ok := selectVersion(e.store.chain(key), effective, e.table)
	if !ok {
		return ErrKeyNotFound
	}
	e.store.append(key, r.withTombstone(effective))
	return nil
}
