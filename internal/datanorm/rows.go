package datanorm

import (
	"database/sql"
	"fmt"

	"github.com/ignite/offer-monitor/internal/blacklist"
)

// ScanTable drains a SQL result set into a header and string rows. NULL
// cells become empty strings.
func ScanTable(rows *sql.Rows) ([]string, [][]string, error) {
	header, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}

	var out [][]string
	cells := make([]sql.NullString, len(header))
	dest := make([]interface{}, len(header))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("scan row %d: %w", len(out)+1, err)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return header, out, nil
}

// ScanRows normalizes a performance result set.
func ScanRows(rows *sql.Rows) (*Result, error) {
	header, data, err := ScanTable(rows)
	if err != nil {
		return nil, err
	}
	return Normalize(header, data)
}

// ScanBlacklist reads an advertiser/affiliate result set.
func ScanBlacklist(rows *sql.Rows) (*blacklist.Set, error) {
	header, data, err := ScanTable(rows)
	if err != nil {
		return nil, err
	}
	return blacklist.FromRows(header, data)
}
