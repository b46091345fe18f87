package datanorm

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/offer-monitor/internal/blacklist"
)

// ReadTable reads a CSV stream into a header and data rows.
func ReadTable(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// ReadCSV reads and normalizes a performance CSV.
func ReadCSV(r io.Reader) (*Result, error) {
	header, rows, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	return Normalize(header, rows)
}

// ReadBlacklistCSV reads a two-column Advertiser/Affiliate CSV.
func ReadBlacklistCSV(r io.Reader) (*blacklist.Set, error) {
	header, rows, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	return blacklist.FromRows(header, rows)
}

func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil || n < 3 {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
