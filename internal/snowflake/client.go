// Package snowflake loads offer performance snapshots from a Snowflake
// warehouse.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/ignite/offer-monitor/internal/config"
	"github.com/ignite/offer-monitor/internal/datanorm"
)

// Client provides access to Snowflake database
type Client struct {
	config Config
	db     *sql.DB
}

// FromConfig converts the application config section. A semicolon-style
// connection string takes precedence over the individual fields.
func FromConfig(cfg config.SnowflakeConfig, lookbackDays int) Config {
	out := Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
	}
	if strings.Contains(cfg.ConnectionString, ";") {
		out = ParseConnectionString(cfg.ConnectionString)
		if out.Warehouse == "" {
			out.Warehouse = cfg.Warehouse
		}
	}
	out.Table = cfg.Table
	out.LookbackDays = lookbackDays
	return out
}

// DSN builds the driver connection string.
func (c Config) DSN() (string, error) {
	return gosnowflake.DSN(&gosnowflake.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Database:  c.Database,
		Schema:    c.Schema,
		Warehouse: c.Warehouse,
	})
}

// NewClient creates a new Snowflake client
func NewClient(cfg Config) (*Client, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("build snowflake dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return NewClientWithDB(db, cfg), nil
}

// NewClientWithDB wraps an existing connection.
func NewClientWithDB(db *sql.DB, cfg Config) *Client {
	if cfg.Table == "" {
		cfg.Table = "OFFER_DAILY_PERFORMANCE"
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	return &Client{config: cfg, db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Load reads the trailing lookback window of daily performance rows.
func (c *Client) Load(ctx context.Context) (*datanorm.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT STAT_DATE, OFFER_ID, ADVERTISER, AFFILIATE, APP_ID, GEO,
		       CLICKS, CONVERSIONS, REVENUE, PROFIT, CAP, STATUS
		FROM %s
		WHERE STAT_DATE >= DATEADD(day, ?, CURRENT_DATE())
		ORDER BY STAT_DATE, OFFER_ID
	`, c.config.Table)

	rows, err := c.db.QueryContext(ctx, query, -c.config.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance: %w", err)
	}
	defer rows.Close()

	perf, err := datanorm.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan performance: %w", err)
	}
	log.Printf("[snowflake] loaded %d records from %s (%d dropped)", len(perf.Records), c.config.Table, perf.DroppedTotal())
	return &datanorm.Snapshot{Performance: perf, Origin: "snowflake:" + c.config.Table}, nil
}
