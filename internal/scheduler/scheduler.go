package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
)

// Scanner is the part of the scan service the scheduler drives
type Scanner interface {
	Scan(ctx context.Context, req service.ScanRequest) (*service.ScanResult, error)
	BuildSlips(ctx context.Context, req service.SlipRequest) (*service.SlipResult, error)
	SaveVersion(ctx context.Context, version *models.ScanVersion) error
}

// Scheduler manages scheduled scan jobs
type Scheduler struct {
	cron            *cron.Cron
	scanner         Scanner
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	scanTimeout     time.Duration
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler. Every scheduled scan runs under scanTimeout.
func NewScheduler(scanner Scanner, scanTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	if scanTimeout <= 0 {
		scanTimeout = time.Minute
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		scanner:         scanner,
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		scanTimeout:     scanTimeout,
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleScan runs req on the cron schedule. When save is set each result is stored as a
// scan version together with the slips built from it.
func (s *Scheduler) ScheduleScan(cronExpression string, req service.ScanRequest, save bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		if err := s.runScan(req, save); err != nil {
			s.logger.WithError(err).WithField("sport", req.Sport).Error("Scheduled scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"cron":  cronExpression,
		"sport": req.Sport,
		"scope": req.Scope,
		"save":  save,
	}).Info("Scheduled scan job")

	return nil
}

// runScan executes one scheduled scan under the scan timeout
func (s *Scheduler) runScan(req service.ScanRequest, save bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.scanTimeout)
	defer cancel()

	result, err := s.scanner.Scan(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to run scan: %w", err)
	}
	if !save {
		return nil
	}

	var legs []models.Leg
	for _, o := range result.Opportunities {
		if o.EligibleForSlip {
			legs = append(legs, o.Leg)
		}
	}

	var slips []models.RankedSlip
	if len(legs) > 0 {
		built, err := s.scanner.BuildSlips(ctx, service.SlipRequest{Legs: legs, Sport: result.Sport})
		if err != nil {
			s.logger.WithError(err).Warn("Slip build for scheduled scan failed")
		} else {
			slips = built.Slips
		}
	}

	if err := s.scanner.SaveVersion(ctx, service.NewScanVersion(result, slips, nil)); err != nil {
		return fmt.Errorf("failed to save scheduled scan: %w", err)
	}
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler, waiting up to the graceful timeout for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.logger.WithField("job_id", jobID).Info("Removed job")

	return nil
}
