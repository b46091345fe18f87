package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/datanorm"
	"github.com/ignite/offer-monitor/internal/engine"
	"github.com/ignite/offer-monitor/internal/pkg/logger"
	"github.com/ignite/offer-monitor/internal/storage"
	"github.com/ignite/offer-monitor/internal/workbook"
)

// Deps are the optional collaborators of a Service.
type Deps struct {
	Source    Source
	Store     ReportStore
	Notifiers []Notifier
	Observer  Observer
	// ScheduleLock, when set, lets only one replica run each scheduled
	// tick.
	ScheduleLock Locker
}

// Request describes one run. With neither Snapshot nor Records set the
// configured source is loaded.
type Request struct {
	Snapshot *datanorm.Snapshot
	Records  []engine.PerformanceRecord
	// Blacklist adds rules on top of the configured ones and any shipped
	// with the snapshot.
	Blacklist *blacklist.Set
	// RuleSet overrides the configured rule set version.
	RuleSet string
	// Workbook renders the report workbook into the result.
	Workbook bool
	Store    bool
	Notify   bool
}

// Result is the outcome of a run.
type Result struct {
	Report   *engine.Report
	Workbook []byte
	Archive  *storage.ReportMeta
	// Dropped counts input rows rejected during normalization.
	Dropped int
}

// Service runs analyses. It is safe for concurrent use when its
// collaborators are.
type Service struct {
	base  engine.Options
	deps  Deps
	newID func() string
	now   func() time.Time
}

// NewService creates a service with the given base engine options.
func NewService(base engine.Options, deps Deps) *Service {
	return &Service{
		base:  base,
		deps:  deps,
		newID: func() string { return uuid.New().String() },
		now:   time.Now,
	}
}

// HasSource reports whether runs without input can load a snapshot.
func (s *Service) HasSource() bool { return s.deps.Source != nil }

// Analyze executes one run. When only delivery fails the result is returned
// together with an error wrapping ErrDelivery.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	res, err := s.analyze(ctx, req)
	if s.deps.Observer != nil {
		var rep *engine.Report
		if res != nil {
			rep = res.Report
		}
		s.deps.Observer.ObserveRun(rep, s.now().Sub(start), err)
	}
	return res, err
}

func (s *Service) analyze(ctx context.Context, req Request) (*Result, error) {
	snap, err := s.snapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	opts, err := s.options(req, snap)
	if err != nil {
		return nil, err
	}

	rep, err := engine.Run(snap.Performance.Records, opts)
	if err != nil {
		return nil, err
	}
	rep.RunID = s.newID()
	log := logger.With("run_id", rep.RunID, "origin", snap.Origin)
	log.Info("analysis complete",
		"records", len(snap.Performance.Records),
		"dropped", snap.Performance.DroppedTotal(),
		"offers", len(rep.Offers),
		"actions", len(rep.Actions),
		"latest", rep.LatestLabel(),
		"rule_set", rep.RuleSet,
	)

	res := &Result{Report: rep, Dropped: snap.Performance.DroppedTotal()}
	if req.Workbook || (req.Store && s.deps.Store != nil) {
		if res.Workbook, err = workbook.Bytes(rep); err != nil {
			return nil, fmt.Errorf("render workbook: %w", err)
		}
	}

	var failures []error
	if req.Store && s.deps.Store != nil {
		meta, err := s.deps.Store.SaveReport(ctx, rep, res.Workbook)
		if err != nil {
			log.Error("archive failed", "error", err)
			failures = append(failures, fmt.Errorf("store: %w", err))
		} else {
			res.Archive = &meta
		}
	}
	if req.Notify {
		for _, n := range s.deps.Notifiers {
			if err := n.Notify(ctx, rep); err != nil {
				log.Error("notify failed", "sink", n.Name(), "error", err)
				failures = append(failures, fmt.Errorf("%s: %w", n.Name(), err))
			}
		}
	}
	if len(failures) > 0 {
		return res, errors.Join(append([]error{ErrDelivery}, failures...)...)
	}
	return res, nil
}

func (s *Service) snapshot(ctx context.Context, req Request) (*datanorm.Snapshot, error) {
	switch {
	case req.Snapshot != nil:
		if req.Snapshot.Performance == nil {
			return nil, ErrEmptySnapshot
		}
		return req.Snapshot, nil
	case req.Records != nil:
		return &datanorm.Snapshot{
			Performance: &datanorm.Result{Records: req.Records, Rows: len(req.Records)},
			Origin:      "request",
		}, nil
	case s.deps.Source != nil:
		snap, err := s.deps.Source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if snap == nil || snap.Performance == nil {
			return nil, ErrEmptySnapshot
		}
		return snap, nil
	}
	return nil, ErrNoSource
}

func (s *Service) options(req Request, snap *datanorm.Snapshot) (engine.Options, error) {
	opts := s.base
	if req.RuleSet != "" {
		rs, err := engine.RuleSetByVersion(req.RuleSet)
		if err != nil {
			return engine.Options{}, err
		}
		opts.RuleSet = rs
	}

	extra := blacklist.Merge(snap.Blacklist, req.Blacklist)
	if s.base.Blacklist == nil {
		opts.Blacklist = extra
	} else {
		opts.Blacklist = layered{s.base.Blacklist, extra}
	}
	return opts, nil
}

// layered matches when any layer does.
type layered []engine.Blacklist

func (l layered) IsBlacklisted(advertiser, affiliate string) bool {
	for _, b := range l {
		if b.IsBlacklisted(advertiser, affiliate) {
			return true
		}
	}
	return false
}

// Schedule runs the analysis from the configured source every interval
// until ctx is cancelled, archiving and notifying each report.
func (s *Service) Schedule(ctx context.Context, interval time.Duration) {
	if s.deps.Source == nil || interval <= 0 {
		return
	}
	logger.Info("analysis schedule started", "interval", interval.String())

	run := func() {
		if lock := s.deps.ScheduleLock; lock != nil {
			ok, err := lock.TryLock(ctx)
			if err != nil {
				logger.Error("schedule lock failed", "error", err)
				return
			}
			if !ok {
				logger.Debug("scheduled analysis skipped; another instance holds the lock")
				return
			}
			defer func() {
				if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("schedule unlock failed", "error", err)
				}
			}()
		}
		if _, err := s.Analyze(ctx, Request{Store: true, Notify: true}); err != nil {
			logger.Error("scheduled analysis failed", "error", err)
		}
	}
	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
