// Package storage archives analysis reports on local disk or S3 and loads
// performance snapshots from S3 objects.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/ignite/offer-monitor/internal/config"
	"github.com/ignite/offer-monitor/internal/engine"
)

// maxIndexed bounds the in-memory report index.
const maxIndexed = 200

const indexKey = "index.json"

// ErrReportNotFound is returned for unknown run ids.
var ErrReportNotFound = errors.New("report not found")

// ReportMeta describes one archived report.
type ReportMeta struct {
	RunID      string    `json:"run_id"`
	RuleSet    string    `json:"rule_set"`
	LatestDate time.Time `json:"latest_date"`
	FileName   string    `json:"file_name"`
	Location   string    `json:"location"`
	Offers     int       `json:"offers"`
	Actions    int       `json:"actions"`
	SavedAt    time.Time `json:"saved_at"`
}

// Storage provides persistent storage for analysis reports
type Storage struct {
	config config.StorageConfig
	mu     sync.RWMutex

	// AWS storage (optional)
	aws *AWSStorage

	// Newest first
	index []ReportMeta
	now   func() time.Time
}

// New creates a new Storage instance
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	s := &Storage{config: cfg, now: time.Now}

	switch cfg.Type {
	case "aws":
		awsStorage, err := NewAWSStorage(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing AWS storage: %w", err)
		}
		s.aws = awsStorage

		// Load the report index from S3; a fresh bucket has none.
		var index []ReportMeta
		if err := awsStorage.GetFromS3(ctx, indexKey, &index); err == nil {
			s.index = index
		}

	case "local":
		if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		if err := s.loadFromDisk(); err != nil {
			// Not fatal - just log and continue
			fmt.Printf("Warning: could not load report index: %v\n", err)
		}

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	return s, nil
}

func reportDir(rep *engine.Report) string {
	return path.Join(rep.LatestDate.Format("2006/01/02"), rep.RunID)
}

// SaveReport archives the rendered workbook and the JSON report under
// <latest date>/<run id>/.
func (s *Storage) SaveReport(ctx context.Context, rep *engine.Report, workbook []byte) (ReportMeta, error) {
	if rep.RunID == "" {
		return ReportMeta{}, errors.New("report has no run id")
	}
	dir := reportDir(rep)
	meta := ReportMeta{
		RunID:      rep.RunID,
		RuleSet:    rep.RuleSet,
		LatestDate: rep.LatestDate,
		FileName:   rep.FileName(),
		Offers:     len(rep.Offers),
		Actions:    len(rep.Actions),
		SavedAt:    s.now().UTC(),
	}

	if s.aws != nil {
		if err := s.aws.PutBytes(ctx, path.Join(dir, meta.FileName), ContentTypeXLSX, workbook); err != nil {
			return ReportMeta{}, err
		}
		if err := s.aws.SaveToS3(ctx, path.Join(dir, "report.json"), rep); err != nil {
			return ReportMeta{}, err
		}
		meta.Location = fmt.Sprintf("s3://%s/%s", s.aws.Bucket(), s.aws.key(path.Join(dir, meta.FileName)))
	} else {
		local := filepath.Join(s.config.LocalPath, filepath.FromSlash(dir))
		if err := os.MkdirAll(local, 0755); err != nil {
			return ReportMeta{}, fmt.Errorf("creating report directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(local, meta.FileName), workbook, 0644); err != nil {
			return ReportMeta{}, fmt.Errorf("writing workbook: %w", err)
		}
		if err := s.saveToFile(filepath.Join(local, "report.json"), rep); err != nil {
			return ReportMeta{}, err
		}
		meta.Location = filepath.Join(local, meta.FileName)
	}

	s.mu.Lock()
	s.index = append([]ReportMeta{meta}, s.index...)
	if len(s.index) > maxIndexed {
		s.index = s.index[:maxIndexed]
	}
	index := append([]ReportMeta(nil), s.index...)
	s.mu.Unlock()

	if err := s.persistIndex(ctx, index); err != nil {
		return meta, err
	}
	return meta, nil
}

// RecentReports returns up to limit archived reports, newest first.
func (s *Storage) RecentReports(limit int) []ReportMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.index) {
		limit = len(s.index)
	}
	return append([]ReportMeta(nil), s.index[:limit]...)
}

// GetReport loads an archived report by run id.
func (s *Storage) GetReport(ctx context.Context, runID string) (*engine.Report, error) {
	meta, ok := s.lookup(runID)
	if !ok {
		return nil, ErrReportNotFound
	}
	rep := &engine.Report{}
	key := path.Join(meta.LatestDate.Format("2006/01/02"), meta.RunID, "report.json")
	if s.aws != nil {
		if err := s.aws.GetFromS3(ctx, key, rep); err != nil {
			return nil, err
		}
		return rep, nil
	}
	if err := s.loadFromFile(filepath.Join(s.config.LocalPath, filepath.FromSlash(key)), rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Storage) lookup(runID string) (ReportMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.index {
		if m.RunID == runID {
			return m, true
		}
	}
	return ReportMeta{}, false
}

func (s *Storage) persistIndex(ctx context.Context, index []ReportMeta) error {
	if s.aws != nil {
		return s.aws.SaveToS3(ctx, indexKey, index)
	}
	return s.saveToFile(filepath.Join(s.config.LocalPath, indexKey), index)
}

func (s *Storage) saveToFile(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (s *Storage) loadFromFile(path string, data interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, data)
}

// loadFromDisk loads the report index from disk
func (s *Storage) loadFromDisk() error {
	var index []ReportMeta
	err := s.loadFromFile(filepath.Join(s.config.LocalPath, indexKey), &index)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	s.index = index
	return nil
}
