// Package table accumulates discovered pair records in a fixed-column,
// append-only table.
package table

import (
	"sync"
)

// Columns is the fixed column schema of every table.
var Columns = []string{
	"pair_address",
	"pair_name",
	"token0_address",
	"token0_name",
	"token1_address",
	"token1_name",
}

// PairRecord is one resolved pair. Fields that could not be resolved hold
// the NotFound sentinel.
type PairRecord struct {
	PairAddress   string `json:"pair_address"`
	PairName      string `json:"pair_name"`
	Token0Address string `json:"token0_address"`
	Token0Name    string `json:"token0_name"`
	Token1Address string `json:"token1_address"`
	Token1Name    string `json:"token1_name"`
}

// Values returns the record fields in column order.
func (r PairRecord) Values() []string {
	return []string{
		r.PairAddress,
		r.PairName,
		r.Token0Address,
		r.Token0Name,
		r.Token1Address,
		r.Token1Name,
	}
}

func recordFromValues(v []string) PairRecord {
	return PairRecord{
		PairAddress:   v[0],
		PairName:      v[1],
		Token0Address: v[2],
		Token0Name:    v[3],
		Token1Address: v[4],
		Token1Name:    v[5],
	}
}

// Table is an ordered, append-only sequence of PairRecords. It is safe for
// concurrent use.
type Table struct {
	mu   sync.RWMutex
	rows []PairRecord
}

// New creates an empty table.
func New() *Table {
	return &Table{}
}

// Append adds records at the end of the table.
func (t *Table) Append(records ...PairRecord) {
	if len(records) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, records...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Row returns the i-th row.
func (t *Table) Row(i int) (PairRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.rows) {
		return PairRecord{}, false
	}
	return t.rows[i], true
}

// Rows returns a copy of all rows in insertion order.
func (t *Table) Rows() []PairRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]PairRecord, len(t.rows))
	copy(out, t.rows)
	return out
}
