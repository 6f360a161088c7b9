package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

type Config struct {
	RefillSpec       string        `envconfig:"REFILL_SWEEP_SPEC" default:"0 9 * * *"`
	SessionSweepSpec string        `envconfig:"SESSION_SWEEP_SPEC" default:"@every 10m"`
	JobTimeout       time.Duration `envconfig:"SCHEDULER_JOB_TIMEOUT" default:"2m"`
}

type Notifier interface {
	Dispatch(ctx context.Context, n model.Notification) []model.NotificationResult
}

// Sweeper evicts expired sessions from an in-process store.
type Sweeper interface {
	Sweep() int
}

// Scheduler runs the periodic refill reminder and session eviction jobs.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	refills  model.RefillReader
	patients model.PatientReader
	notifier Notifier
	sweeper  Sweeper
	now      func() time.Time
}

// New registers the jobs. sweeper may be nil when sessions live in Redis,
// which expires them on its own.
func New(cfg Config, refills model.RefillReader, patients model.PatientReader, notifier Notifier, sweeper Sweeper) (*Scheduler, error) {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	s := &Scheduler{
		cron:     cron.New(),
		cfg:      cfg,
		refills:  refills,
		patients: patients,
		notifier: notifier,
		sweeper:  sweeper,
		now:      time.Now,
	}

	if refills != nil && notifier != nil && cfg.RefillSpec != "" {
		if _, err := s.cron.AddFunc(cfg.RefillSpec, s.refillJob); err != nil {
			return nil, fmt.Errorf("schedule refill sweep %q: %w", cfg.RefillSpec, err)
		}
	}
	if sweeper != nil && cfg.SessionSweepSpec != "" {
		if _, err := s.cron.AddFunc(cfg.SessionSweepSpec, s.sessionJob); err != nil {
			return nil, fmt.Errorf("schedule session sweep %q: %w", cfg.SessionSweepSpec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logx.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) refillJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()
	sent, err := s.RunRefillSweep(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("refill sweep failed")
		return
	}
	logx.Info().Int("reminders", sent).Msg("refill sweep done")
}

func (s *Scheduler) sessionJob() {
	if n := s.sweeper.Sweep(); n > 0 {
		logx.Debug().Int("evicted", n).Msg("expired sessions evicted")
	}
}

// RunRefillSweep sends one reminder per due refill and returns how many
// reminders reached at least one channel.
func (s *Scheduler) RunRefillSweep(ctx context.Context) (int, error) {
	due, err := s.refills.DueRefills(ctx, "", s.now())
	if err != nil {
		return 0, fmt.Errorf("list due refills: %w", err)
	}

	sent := 0
	for _, r := range due {
		n := model.Notification{
			Kind:        model.NotificationRefillDue,
			PatientID:   r.PatientID,
			ProductName: r.ProductName,
			Message:     fmt.Sprintf("Reminder: your %s may run out in %d days. Reply to this chat to reorder.", r.ProductName, r.DaysUntil),
		}
		if s.patients != nil {
			p, err := s.patients.GetPatient(ctx, r.PatientID)
			if err != nil {
				logx.Warn().Err(err).Str("patient_id", r.PatientID).Msg("patient lookup for reminder failed")
			} else if p != nil {
				n.PatientName, n.Email, n.Phone = p.Name, p.Email, p.Phone
			}
		}

		for _, res := range s.notifier.Dispatch(ctx, n) {
			if res.Success {
				sent++
				break
			}
		}
	}
	return sent, nil
}
