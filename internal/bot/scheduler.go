package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/telesco/internal/bot/tasks"
	"github.com/edgard/telesco/internal/config"
)

var errSchedulerRunning = errors.New("scheduler is already running")

// Scheduler runs the maintenance tasks on their cron schedules.
// Stop cancels the context of any task still running.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// NewScheduler creates a Scheduler. Jobs are only added by Start.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// *slog.Logger satisfies gocron.Logger.
	s, err := gocron.NewScheduler(gocron.WithLogger(logger.With("component", "gocron")))
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start adds a job for every enabled, registered task and starts the
// scheduler. Misconfigured tasks are logged and skipped.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errSchedulerRunning
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	scheduled := 0
	if s.cfg != nil {
		for _, name := range slices.Sorted(maps.Keys(s.cfg.Tasks)) {
			if s.schedule(baseCtx, name, s.cfg.Tasks[name]) {
				scheduled++
			}
		}
	}
	if scheduled == 0 {
		s.logger.Warn("No scheduled tasks enabled")
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)
	return nil
}

func (s *Scheduler) schedule(baseCtx context.Context, name string, tc config.TaskConfig) bool {
	log := s.logger.With("task_name", name)

	if !tc.Enabled {
		log.Debug("Task disabled")
		return false
	}
	task, ok := s.taskMap[name]
	if !ok {
		log.Warn("Task configured but not registered, skipping")
		return false
	}
	if tc.Schedule == "" {
		log.Warn("Task enabled without a schedule, skipping")
		return false
	}

	run := func() {
		ctx := baseCtx
		if tc.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(baseCtx, tc.Timeout)
			defer cancel()
		}
		if err := task(ctx); err != nil {
			log.Error("Scheduled task failed", "error", err)
		}
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(tc.Schedule, true),
		gocron.NewTask(run),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Error("Failed to schedule task", "schedule", tc.Schedule, "error", err)
		return false
	}

	log.Info("Task scheduled", "schedule", tc.Schedule, "timeout", tc.Timeout)
	return true
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Debug("Scheduler not running")
		return nil
	}

	s.cancel()
	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}

	s.logger.Info("Scheduler stopped")
	return nil
}

// JobNames lists the names of the scheduled jobs.
func (s *Scheduler) JobNames() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}
