// Package jobs runs the periodic production housekeeping: KPI snapshots for
// dashboards and repair of orders left without operations.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"prodflow/aggregate"
	"prodflow/config"
	"prodflow/metrics"
)

// Aggregates is the aggregator surface the jobs drive.
type Aggregates interface {
	BroadcastKPI(ctx context.Context, roomID *int64) (*aggregate.KPIOverview, error)
	RepairOrphaned(ctx context.Context) ([]int64, error)
}

const jobTimeout = time.Minute

type Scheduler struct {
	cfg   config.JobsConfig
	agg   Aggregates
	cron  *cron.Cron
	logFn func(format string, args ...any)
}

// New creates a scheduler using six-field specs (seconds first).
func New(cfg config.JobsConfig, agg Aggregates) *Scheduler {
	return &Scheduler{
		cfg:   cfg,
		agg:   agg,
		cron:  cron.New(cron.WithSeconds()),
		logFn: log.Printf,
	}
}

func (s *Scheduler) SetLogFunc(fn func(format string, args ...any)) { s.logFn = fn }

// Start registers every job with a schedule and starts the cron runner.
// An empty schedule disables its job.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		fn   func(context.Context) error
	}{
		{"kpi_broadcast", s.cfg.KPISchedule, s.broadcastKPI},
		{"orphan_repair", s.cfg.OrphanRepairSchedule, s.repairOrphaned},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		name, fn := j.name, j.fn
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(name, fn) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", name, j.spec, err)
		}
		s.logFn("jobs: %s scheduled (%s)", name, j.spec)
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logFn("jobs: stopped")
}

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		metrics.JobRunsTotal.WithLabelValues(name, "error").Inc()
		s.logFn("jobs: %s: %v", name, err)
		return
	}
	metrics.JobRunsTotal.WithLabelValues(name, "ok").Inc()
}

func (s *Scheduler) broadcastKPI(ctx context.Context) error {
	_, err := s.agg.BroadcastKPI(ctx, nil)
	return err
}

func (s *Scheduler) repairOrphaned(ctx context.Context) error {
	ids, err := s.agg.RepairOrphaned(ctx)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		s.logFn("jobs: reset %d orphaned production orders %v", len(ids), ids)
	}
	return nil
}
