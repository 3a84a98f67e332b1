// pkg/mvcc/record.go
package mvcc

import "fmt"

// Record is a single immutable version of a key's value. Once appended to
// a Chain it is never mutated again: a delete is modeled by appending a
// new Record that copies the prior value and carries a non-zero xmax, not
// by rewriting the Record that preceded it.
type Record struct {
	value []byte
	xmin  TxnID // transaction that inserted this version; never zero
	xmax  TxnID // transaction that deleted this version; zero means "live"
}

// NewRecord is the insert factory: it produces a live Record (xmax == 0)
// carrying a copy of value so callers cannot mutate it out from under the
// store after the call returns.
func NewRecord(value []byte, xmin TxnID) Record {
	cp := make([]byte, len(value))
	copy(cp, value)
	return Record{value: cp, xmin: xmin, xmax: 0}
}

// withTombstone returns a new Record copying r's value and xmin, with
// xmax set to the deleting transaction. r itself is left untouched.
func (r Record) withTombstone(xmax TxnID) Record {
	return Record{value: r.value, xmin: r.xmin, xmax: xmax}
}

// Value returns a copy of the stored value.
func (r Record) Value() []byte {
	cp := make([]byte, len(r.value))
	copy(cp, r.value)
	return cp
}

// Xmin returns the id of the transaction that created this version.
func (r Record) Xmin() TxnID { return r.xmin }

// Xmax returns the id of the transaction that deleted this version, or 0
// if the version is still live.
func (r Record) Xmax() TxnID { return r.xmax }

// IsLive reports whether this version carries the live sentinel xmax.
func (r Record) IsLive() bool { return r.xmax == 0 }

func (r Record) String() string {
	return fmt.Sprintf("Record(value=%q, xmin=%d, xmax=%d)", r.value, r.xmin, r.xmax)
}

// Chain is the append-only, insertion-ordered sequence of Records for a
// single key. The newest Record is the last element; the scanner walks it
// newest-first.
type Chain struct {
	records []Record
}

// append adds r to the tail of the chain.
func (c *Chain) append(r Record) {
	c.records = append(c.records, r)
}

// newestFirst returns the chain's records ordered from newest to oldest.
// It returns a fresh slice; callers may not mutate the chain through it.
func (c *Chain) newestFirst() []Record {
	out := make([]Record, len(c.records))
	for i, r := range c.records {
		out[len(c.records)-1-i] = r
	}
	return out
}

func (c *Chain) length() int {
	return len(c.records)
}
