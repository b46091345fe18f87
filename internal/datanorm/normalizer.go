// Package datanorm turns tabular performance exports (CSV, spreadsheet rows,
// SQL result sets) into engine records.
package datanorm

import (
	"log"

	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/engine"
)

// Result is the outcome of normalizing one table.
type Result struct {
	Records []engine.PerformanceRecord
	Rows    int
	Dropped map[DropReason]int
}

// DroppedTotal sums every drop reason.
func (r *Result) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// Normalize maps the header and converts every data row. Blank rows are
// skipped without counting as dropped.
func Normalize(header []string, rows [][]string) (*Result, error) {
	mapping, err := MapColumns(header)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Records: make([]engine.PerformanceRecord, 0, len(rows)),
		Dropped: make(map[DropReason]int),
	}
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		res.Rows++
		rec, reason, ok := NormalizeRecord(row, mapping)
		if !ok {
			res.Dropped[reason]++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	if dropped := res.DroppedTotal(); dropped > 0 {
		log.Printf("[datanorm] dropped %d of %d rows: %v", dropped, res.Rows, res.Dropped)
	}
	return res, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// Snapshot is one analysis input: normalized performance rows plus the
// blacklist shipped alongside them, if any.
type Snapshot struct {
	Performance *Result
	// Blacklist is nil when the source carries no blacklist.
	Blacklist *blacklist.Set
	// Origin names where the snapshot was loaded from.
	Origin string
}
