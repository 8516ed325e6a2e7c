// Package scheduler runs the periodic maintenance jobs of both services on
// robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/practice-app/utils"
)

// JobFunc does one pass of a job and reports how many records it touched.
type JobFunc func(ctx context.Context) (int, error)

type job struct {
	name    string
	timeout time.Duration
	run     JobFunc
}

// Scheduler wraps a cron instance. A job never overlaps with itself.
type Scheduler struct {
	cron *cron.Cron
	jobs []job
	mu   sync.Mutex
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Add registers run under spec ("@hourly", "*/5 * * * *", ...). Each pass
// gets its own context bounded by timeout.
func (s *Scheduler) Add(name, spec string, timeout time.Duration, run JobFunc) error {
	j := job{name: name, timeout: timeout, run: run}
	if _, err := s.cron.AddFunc(spec, func() { s.execute(j) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, j)
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) execute(j job) {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := j.run(ctx)
	fields := logrus.Fields{
		"job":      j.name,
		"affected": n,
		"duration": time.Since(start),
	}
	if err != nil {
		utils.ErrorLogger.WithFields(fields).WithError(err).Error("Scheduled job failed")
		return
	}
	utils.InfoLogger.WithFields(fields).Info("Scheduled job finished")
}

// RunNow executes every registered job once, synchronously.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	jobs := append([]job(nil), s.jobs...)
	s.mu.Unlock()

	for _, j := range jobs {
		s.execute(j)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	utils.InfoLogger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	utils.InfoLogger.Info("Scheduler stopped")
}
