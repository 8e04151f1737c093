// Package scheduler runs the periodic overdue loan sweep.
package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"locallibrary/internal/database/instances"
)

// OverdueSweeper periodically counts on-loan copies past their due date and
// logs the result so operators can chase returns.
type OverdueSweeper struct {
	instances *instances.Repository
	schedule  string

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

func NewOverdueSweeper(repo *instances.Repository, schedule string) *OverdueSweeper {
	return &OverdueSweeper{
		instances: repo,
		schedule:  schedule,
		cron:      cron.New(),
	}
}

// Start schedules the sweep. Returns an error on an invalid cron expression.
func (s *OverdueSweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Overdue sweep scheduled: %s", s.schedule)
	return nil
}

// Stop halts the scheduler, waiting for an in-flight sweep to finish.
func (s *OverdueSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	log.Printf("Overdue sweep stopped")
}

func (s *OverdueSweeper) runSweep() {
	count, err := s.instances.CountOverdue()
	if err != nil {
		log.Printf("Overdue sweep failed: %v", err)
		return
	}
	if count == 0 {
		log.Printf("Overdue sweep: no overdue loans")
		return
	}
	log.Printf("Overdue sweep: %d overdue loan(s)", count)
}
