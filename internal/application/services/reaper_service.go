package services

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/constants"
)

// ReaperService permanently removes rows that have been soft-deleted for
// longer than the retention window, together with their cells. Soft
// deletion alone never reclaims storage; this is the only path that does,
// besides the explicit admin purge endpoint.
type ReaperService struct {
	tx       *persistence.TransactionManager
	rows     *persistence.RowRepository
	stopChan chan struct{}
	mu       sync.Mutex
	running  bool
	stopped  bool // Prevents double-close of stopChan
}

// NewReaperService creates a new reaper service
func NewReaperService(tx *persistence.TransactionManager, rows *persistence.RowRepository) *ReaperService {
	return &ReaperService{
		tx:       tx,
		rows:     rows,
		stopChan: make(chan struct{}),
	}
}

// Start begins the reaper background loop. Blocks until Stop is called,
// run it in its own goroutine.
func (s *ReaperService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	schedule, err := parseSchedule(purgeSchedule())
	if err != nil {
		log.Printf("⚠️ Invalid ROW_PURGE_SCHEDULE %q, reaper disabled: %v", purgeSchedule(), err)
		return
	}

	log.Printf("🧹 Row reaper starting (schedule %q, retention %d days)",
		purgeSchedule(), retentionDays())

	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.runOnce()
		case <-s.stopChan:
			timer.Stop()
			log.Println("🧹 Row reaper stopped")
			return
		}
	}
}

// Stop gracefully stops the reaper
func (s *ReaperService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

// runOnce sweeps all sheets for expired soft-deleted rows
func (s *ReaperService) runOnce() {
	cutoff := time.Now().AddDate(0, 0, -retentionDays())

	var purged int64
	err := s.tx.WithTransaction(func(tx *sql.Tx) error {
		var err error
		purged, err = s.rows.PurgeDeleted(context.Background(), tx, "", cutoff)
		return err
	})
	if err != nil {
		log.Printf("⚠️ Row purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("🧹 Purged %d soft-deleted rows older than %s", purged, cutoff.Format("2006-01-02"))
	}
}

func parseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

func purgeSchedule() string {
	if v := os.Getenv("ROW_PURGE_SCHEDULE"); v != "" {
		return v
	}
	return constants.DefaultRowPurgeSchedule
}

func retentionDays() int {
	if v := os.Getenv("ROW_PURGE_AFTER_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return days
		}
	}
	return constants.DefaultRowPurgeAfterDays
}
