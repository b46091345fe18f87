package analysis

import (
	"context"
	"time"

	"github.com/ignite/offer-monitor/internal/datanorm"
	"github.com/ignite/offer-monitor/internal/engine"
	"github.com/ignite/offer-monitor/internal/storage"
)

// Source loads a performance snapshot.
type Source interface {
	Load(ctx context.Context) (*datanorm.Snapshot, error)
}

// ReportStore archives a finished report and its workbook.
type ReportStore interface {
	SaveReport(ctx context.Context, rep *engine.Report, workbook []byte) (storage.ReportMeta, error)
}

// Notifier delivers a finished report.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, rep *engine.Report) error
}

// Observer is told about every run, successful or not. rep is nil on
// failure.
type Observer interface {
	ObserveRun(rep *engine.Report, elapsed time.Duration, err error)
}

// Locker is a cross-process lock; see internal/pkg/distlock.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}
