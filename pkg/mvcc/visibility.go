// pkg/mvcc/visibility.go
package mvcc

// visible determines whether the reader T sees the writes of transaction
// X:
//
//   - X ABORTED or ABORTED_FAILED           -> not visible
//   - X.id == T                             -> visible (own writes)
//   - X COMMITTED and X.id < T               -> visible (snapshot-in-the-past)
//   - otherwise (ACTIVE peer, or committed
//     at or after T started)                -> not visible
//
// The comparison is strictly "<": a transaction that commits at the same
// instant T starts is not visible to T unless it IS T. Combined with a
// strictly monotonic Clock this makes the predicate well-defined.
func visible(x *Transaction, t TxnID) bool {
	if x == nil {
		return false
	}
	switch x.State() {
	case StateAborted, StateAbortedFailed:
		return false
	}
	if x.ID() == t {
		return true
	}
	return x.State() == StateCommitted && x.ID() < t
}

// selectVersion walks chain newest-first looking for the Record visible
// to reader t. It returns the zero Record and ok=false if no chain exists
// for the key, the chain is empty, or the walk exhausts without finding a
// visible, non-tombstoned Record.
//
// The walk is iterative and allocation-free: it reads the chain's records
// in place from the tail backwards. It is the engine's hot path.
func selectVersion(chain *Chain, t TxnID, table *Table) (Record, bool) {
	if chain == nil {
		return Record{}, false
	}

	for i := len(chain.records) - 1; i >= 0; i-- {
		r := chain.records[i]
		var del *Transaction
		if r.xmax != 0 {
			del = table.Get(r.xmax)
		}
		ins := table.Get(r.xmin)

		if del != nil && visible(del, t) {
			// The reader sees this Record's tombstone: the key is
			// deleted as of this reader's snapshot. Older Records in
			// the chain predate this delete, so stop here rather than
			// falling through to them.
			return Record{}, false
		}
		if !visible(ins, t) {
			continue
		}
		return r, true
	}

	return Record{}, false
}
