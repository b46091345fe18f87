package workbook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/directory"
	"github.com/ignite/offer-monitor/internal/engine"
)

var inputHeader = []interface{}{
	"Time", "Offer ID", "Advertiser", "Affiliate", "App ID", "GEO",
	"Total Clicks", "Total Conversions", "Total Revenue", "Total Profit", "Total Caps", "Status",
}

func newInput(t *testing.T, withBlacklist bool, blacklistHeader []interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", SheetData))
	rows := [][]interface{}{
		inputHeader,
		{time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC), 100, "[1]Adv", "[7]X", "com.app", "US", 100, 2, 20.0, 5.0, 50, "ACTIVE"},
		{"2024-01-25", 100, "[1]Adv", "[7]X", "com.app", "US", 100, 2, 0, 0, nil, "ACTIVE"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(SheetData, cell, &row))
	}

	if withBlacklist {
		_, err := f.NewSheet(SheetBlacklist)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(SheetBlacklist, "A1", &blacklistHeader))
		require.NoError(t, f.SetSheetRow(SheetBlacklist, "A2", &[]interface{}{"", "[7]X"}))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestRead(t *testing.T) {
	in, err := Read(newInput(t, true, []interface{}{"Advertiser", "Affiliate"}))
	require.NoError(t, err)

	require.Len(t, in.Performance.Records, 2)
	first := in.Performance.Records[0]
	assert.Equal(t, time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, int64(100), first.OfferID)
	assert.Equal(t, 20.0, first.Revenue)
	require.NotNil(t, first.Cap)
	assert.Equal(t, int64(50), *first.Cap)
	assert.Nil(t, in.Performance.Records[1].Cap)

	require.NotNil(t, in.Blacklist)
	assert.True(t, in.Blacklist.IsBlacklisted("[1]Adv", "[7]X"))
}

func TestRead_WithoutBlacklistSheet(t *testing.T) {
	in, err := Read(newInput(t, false, nil))
	require.NoError(t, err)
	assert.Nil(t, in.Blacklist)
}

func TestRead_MalformedBlacklistIsFatal(t *testing.T) {
	_, err := Read(newInput(t, true, []interface{}{"Advertiser", "Partner"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, blacklist.ErrMissingColumns))
}

func TestRead_NotAWorkbook(t *testing.T) {
	_, err := Read(bytes.NewBufferString("Time,Offer ID\n"))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	records := []engine.PerformanceRecord{
		{Date: time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC), OfferID: 100, Advertiser: "[1]Adv", Affiliate: "[7]X", Revenue: 20, Status: "ACTIVE"},
		{Date: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC), OfferID: 100, Advertiser: "[1]Adv", Affiliate: "[7]X", Revenue: 0, Status: "ACTIVE"},
	}
	opts := engine.DefaultOptions()
	opts.Directory = directory.New(nil, nil)
	rep, err := engine.Run(records, opts)
	require.NoError(t, err)

	data, err := Bytes(rep)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetOffers, SheetActions}, f.GetSheetList())

	offers, err := f.GetRows(SheetOffers)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "Offer ID", offers[0][0])
	assert.Contains(t, offers[0], "2024/01/25_total_revenue")
	assert.Contains(t, offers[0], "2024/01/24_total_revenue")
	assert.Equal(t, "100", offers[1][0])

	actions, err := f.GetRows(SheetActions)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "Action Text", actions[0][5])
	assert.Equal(t, "Budget Headroom", actions[0][6])
	assert.Contains(t, actions[1][5], "sudden stop")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_WriterError(t *testing.T) {
	rep := &engine.Report{LatestDate: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)}
	rep.SecondDate = rep.LatestDate

	err := Write(failingWriter{}, rep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDecode(t *testing.T) {
	snap, err := Decode("upload.CSV", bytes.NewBufferString("Time,Offer ID,Total Revenue\n2024-01-25,100,12\n"))
	require.NoError(t, err)
	require.Len(t, snap.Performance.Records, 1)
	assert.Nil(t, snap.Blacklist)
	assert.Equal(t, "upload.CSV", snap.Origin)

	snap, err = Decode("in.xlsx", newInput(t, false, nil))
	require.NoError(t, err)
	assert.Len(t, snap.Performance.Records, 2)

	_, err = Decode("in.json", bytes.NewBufferString("{}"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.csv")
	require.NoError(t, os.WriteFile(path, []byte("Time,Offer ID\n2024-01-25,100\n"), 0644))

	snap, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, snap.Performance.Records, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.csv")
	require.NoError(t, os.WriteFile(path, []byte("Time,Offer ID\n2024-01-25,100\n"), 0644))
	src := NewFileSource(path)

	snap, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Performance.Records, 1)

	require.NoError(t, os.WriteFile(path, []byte("Time,Offer ID\n2024-01-25,100\n2024-01-26,100\n"), 0644))
	snap, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Performance.Records, 2, "file is re-read")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewFileSource("").Load(context.Background())
	assert.Error(t, err)
}
