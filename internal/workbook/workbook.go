// Package workbook reads performance spreadsheets and writes analysis
// reports as .xlsx files.
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/datanorm"
	"github.com/ignite/offer-monitor/internal/engine"
)

// Sheet names of the input template and the report.
const (
	SheetData      = "1-all data"
	SheetBlacklist = "blacklist"
	SheetOffers    = "Offer Analysis"
	SheetActions   = "Action Items"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// ErrUnsupportedFormat is returned for inputs that are neither CSV nor xlsx.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Read parses the performance sheet (the data sheet, or the first sheet when
// it is absent) and the optional blacklist sheet.
func Read(r io.Reader) (*datanorm.Snapshot, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	dataSheet := sheets[0]
	hasBlacklist := false
	for _, s := range sheets {
		switch s {
		case SheetData:
			dataSheet = s
		case SheetBlacklist:
			hasBlacklist = true
		}
	}

	header, rows, err := readSheet(f, dataSheet)
	if err != nil {
		return nil, err
	}
	perf, err := datanorm.Normalize(header, rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", dataSheet, err)
	}

	in := &datanorm.Snapshot{Performance: perf, Origin: "xlsx"}
	if hasBlacklist {
		header, rows, err := readSheet(f, SheetBlacklist)
		if err != nil {
			return nil, err
		}
		in.Blacklist, err = blacklist.FromRows(header, rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", SheetBlacklist, err)
		}
	}
	return in, nil
}

func readSheet(f *excelize.File, sheet string) ([]string, [][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

// Decode reads a snapshot from a named stream, choosing CSV or workbook
// parsing by file extension.
func Decode(name string, r io.Reader) (*datanorm.Snapshot, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		perf, err := datanorm.ReadCSV(r)
		if err != nil {
			return nil, err
		}
		return &datanorm.Snapshot{Performance: perf, Origin: name}, nil
	case ".xlsx", ".xlsm":
		snap, err := Read(r)
		if err != nil {
			return nil, err
		}
		snap.Origin = name
		return snap, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ReadFile decodes a snapshot from disk.
func ReadFile(path string) (*datanorm.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(path, f)
}

// Write renders the report into a two-sheet workbook.
func Write(w io.Writer, rep *engine.Report) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := fill(f, rep); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes renders the report into an in-memory workbook.
func Bytes(rep *engine.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, rep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fill lays the report out on a fresh workbook; the caller owns f.
func fill(f *excelize.File, rep *engine.Report) error {
	if err := f.SetSheetName(f.GetSheetName(0), SheetOffers); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetActions); err != nil {
		return err
	}

	latest, second := rep.LatestLabel(), rep.SecondLabel()

	offers := [][]interface{}{offerHeader(latest, second)}
	for _, o := range rep.Offers {
		offers = append(offers, offerCells(o))
	}
	if err := writeRows(f, SheetOffers, offers); err != nil {
		return err
	}

	actions := [][]interface{}{actionHeader(latest, second)}
	for _, a := range rep.Actions {
		actions = append(actions, actionCells(a))
	}
	if err := writeRows(f, SheetActions, actions); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func metricHeaders(label string) []interface{} {
	return []interface{}{
		engine.MetricColumn(label, "clicks"),
		engine.MetricColumn(label, "conversions"),
		engine.MetricColumn(label, "revenue"),
		engine.MetricColumn(label, "profit"),
	}
}

func offerHeader(latest, second string) []interface{} {
	h := []interface{}{
		"Offer ID", "Advertiser", "App ID", "GEO",
		"Total Clicks", "Total Conversions", "Total Revenue", "Total Profit",
		"Total Caps", "Status", "Affiliate Revenue Share",
	}
	h = append(h, metricHeaders(latest)...)
	h = append(h, metricHeaders(second)...)
	return append(h, "Latest Affiliate Revenue Share", "Influence Affiliate", "Advertiser Rank")
}

func offerCells(o engine.OfferRow) []interface{} {
	return []interface{}{
		o.OfferID, o.Advertiser, o.AppID, o.GEO,
		o.Clicks, o.Conversions, o.Revenue, o.Profit,
		capCell(o.Cap), o.Status, o.ShareNarrative,
		o.Latest.Clicks, o.Latest.Conversions, o.Latest.Revenue, o.Latest.Profit,
		o.Second.Clicks, o.Second.Conversions, o.Second.Revenue, o.Second.Profit,
		o.LatestShareNarrative, o.InfluenceNarrative, rankCell(o.Rank),
	}
}

func actionHeader(latest, second string) []interface{} {
	return []interface{}{
		"Offer ID", "Advertiser", "App ID", "GEO", "Affiliate", "Action Text",
		"Budget Headroom", "Rule", "Total Caps", "Status", "Total Revenue",
		engine.MetricColumn(latest, "revenue"), engine.MetricColumn(second, "revenue"),
		"Affiliate Revenue Share", "Latest Affiliate Revenue Share", "Influence Affiliate",
		"Advertiser Rank",
	}
}

func actionCells(a engine.ActionRow) []interface{} {
	return []interface{}{
		a.OfferID, a.Advertiser, a.AppID, a.GEO, a.Affiliate, a.ActionText,
		a.BudgetHeadroom, a.Rule, capCell(a.Cap), a.Status, a.TrailingRevenue,
		a.Latest.Revenue, a.Second.Revenue,
		a.ShareNarrative, a.LatestShareNarrative, a.InfluenceNarrative,
		rankCell(a.Rank),
	}
}

func capCell(c *int64) interface{} {
	if c == nil {
		return nil
	}
	return *c
}

func rankCell(r int) interface{} {
	if r == 0 {
		return nil
	}
	return r
}
