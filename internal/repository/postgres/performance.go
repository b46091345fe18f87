package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/datanorm"
)

// PerformanceRepo loads performance snapshots from PostgreSQL.
type PerformanceRepo struct {
	db             *sql.DB
	table          string
	blacklistTable string
	lookbackDays   int
	now            func() time.Time
}

// NewPerformanceRepo creates a Postgres-backed snapshot source. An empty
// blacklist table skips blacklist loading.
func NewPerformanceRepo(db *sql.DB, table, blacklistTable string, lookbackDays int) *PerformanceRepo {
	return &PerformanceRepo{
		db:             db,
		table:          table,
		blacklistTable: blacklistTable,
		lookbackDays:   lookbackDays,
		now:            time.Now,
	}
}

// Load reads the trailing lookback window plus the blacklist table.
func (r *PerformanceRepo) Load(ctx context.Context) (*datanorm.Snapshot, error) {
	since := r.now().UTC().AddDate(0, 0, -r.lookbackDays).Format("2006-01-02")

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT stat_date, offer_id, advertiser, affiliate, app_id, geo,
		       clicks, conversions, revenue, profit, cap, status
		FROM %s
		WHERE stat_date >= $1
		ORDER BY stat_date, offer_id
	`, pq.QuoteIdentifier(r.table)), since)
	if err != nil {
		return nil, fmt.Errorf("query performance: %w", err)
	}
	defer rows.Close()

	perf, err := datanorm.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan performance: %w", err)
	}

	snap := &datanorm.Snapshot{Performance: perf, Origin: "postgres:" + r.table}
	if r.blacklistTable != "" {
		snap.Blacklist, err = r.loadBlacklist(ctx)
		if err != nil {
			return nil, err
		}
	}
	log.Printf("[postgres] loaded %d records since %s from %s", len(perf.Records), since, r.table)
	return snap, nil
}

func (r *PerformanceRepo) loadBlacklist(ctx context.Context) (*blacklist.Set, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT COALESCE(advertiser,'') AS "Advertiser", COALESCE(affiliate,'') AS "Affiliate"
		FROM %s
		WHERE active
	`, pq.QuoteIdentifier(r.blacklistTable)))
	if err != nil {
		return nil, fmt.Errorf("query blacklist: %w", err)
	}
	defer rows.Close()

	set, err := datanorm.ScanBlacklist(rows)
	if err != nil {
		return nil, fmt.Errorf("scan blacklist: %w", err)
	}
	return set, nil
}
