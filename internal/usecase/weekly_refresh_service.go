package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"
)

const (
	DefaultWeeklyRefreshSchedule   = "0 6 * * 1"
	DefaultWeeklyRefreshRetryDelay = 5 * time.Minute
	DefaultWeeklyRefreshWorkers    = 4

	weeklyRefreshRunTimeout = 5 * time.Minute
)

type WeeklyRefreshConfig struct {
	// Schedule is a standard five-field cron expression evaluated in UTC.
	Schedule   string
	RetryDelay time.Duration
	Workers    int
	Clock      clockwork.Clock
	Logger     *logging.Logger
}

// WeeklyRefreshService reloads the upcoming fixtures of every league on a cron schedule.
// Leagues that fail are retried once after RetryDelay.
type WeeklyRefreshService struct {
	leagueRepo league.Repository
	refresher  LeagueRefresher
	schedule   cron.Schedule
	retryDelay time.Duration
	workers    int
	clock      clockwork.Clock
	logger     *logging.Logger
	cron       *cron.Cron

	baseCtx context.Context
	stop    context.CancelFunc
	runs    conc.WaitGroup

	mu    sync.Mutex
	retry clockwork.Timer
}

func NewWeeklyRefreshService(leagueRepo league.Repository, refresher LeagueRefresher, cfg WeeklyRefreshConfig) (*WeeklyRefreshService, error) {
	expr := cfg.Schedule
	if expr == "" {
		expr = DefaultWeeklyRefreshSchedule
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse weekly refresh schedule %q: %w", expr, err)
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultWeeklyRefreshRetryDelay
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWeeklyRefreshWorkers
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	logger := cfg.Logger.Named("weekly_refresh")
	baseCtx, stop := context.WithCancel(context.Background())
	return &WeeklyRefreshService{
		leagueRepo: leagueRepo,
		refresher:  refresher,
		schedule:   schedule,
		retryDelay: cfg.RetryDelay,
		workers:    cfg.Workers,
		clock:      cfg.Clock,
		logger:     logger,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
		),
		baseCtx: baseCtx,
		stop:    stop,
	}, nil
}

// Start loads every league once in the background and then hands over to cron.
func (s *WeeklyRefreshService) Start(ctx context.Context) {
	s.cron.Schedule(s.schedule, cron.FuncJob(s.runScheduled))
	s.runs.Go(func() {
		runCtx, cancel := context.WithTimeout(s.baseCtx, weeklyRefreshRunTimeout)
		defer cancel()
		if err := s.RefreshAll(runCtx); err != nil {
			s.logger.ErrorContext(runCtx, "initial league refresh failed", "error", err)
		}
	})
	s.cron.Start()
	s.logger.InfoContext(ctx, "weekly refresh started", "next_run", s.NextRun().Format(time.RFC3339))
}

// Stop halts cron and any pending retry, then waits for running refreshes or ctx.
func (s *WeeklyRefreshService) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stop()
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.runs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WeeklyRefreshService) NextRun() time.Time {
	return s.schedule.Next(s.clock.Now().UTC())
}

// RefreshAll refreshes the upcoming matches of every configured league. A league failure
// is logged and queued for one retry; it never fails the run.
func (s *WeeklyRefreshService) RefreshAll(ctx context.Context) error {
	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list leagues: %w", err)
	}

	ids := make([]string, 0, len(leagues))
	for _, l := range leagues {
		ids = append(ids, l.ID)
	}

	start := s.clock.Now()
	failed, err := s.refreshLeagues(ctx, ids)
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		s.scheduleRetry(failed)
	}

	s.logger.InfoContext(ctx, "league refresh completed",
		"leagues", len(ids),
		"failed", failed,
		"duration_ms", s.clock.Since(start).Milliseconds(),
	)
	return nil
}

func (s *WeeklyRefreshService) runScheduled() {
	ctx, cancel := context.WithTimeout(s.baseCtx, weeklyRefreshRunTimeout)
	defer cancel()
	if err := s.RefreshAll(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduled league refresh failed", "error", err)
	}
}

func (s *WeeklyRefreshService) scheduleRetry(leagueIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx.Err() != nil {
		return
	}
	if s.retry != nil {
		s.retry.Stop()
	}

	s.retry = s.clock.AfterFunc(s.retryDelay, func() {
		// Stop cancels baseCtx under mu before waiting on runs, so a retry either registers
		// here first or sees the cancellation.
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.baseCtx.Err() != nil {
			return
		}
		s.runs.Go(func() {
			s.runRetry(leagueIDs)
		})
	})
	s.logger.Info("scheduled league refresh retry", "league_ids", leagueIDs, "delay", s.retryDelay.String())
}

func (s *WeeklyRefreshService) runRetry(leagueIDs []string) {
	ctx, cancel := context.WithTimeout(s.baseCtx, weeklyRefreshRunTimeout)
	defer cancel()
	if ctx.Err() != nil {
		return
	}

	failed, err := s.refreshLeagues(ctx, leagueIDs)
	if err != nil {
		s.logger.ErrorContext(ctx, "league refresh retry failed", "error", err)
		return
	}
	if len(failed) > 0 {
		s.logger.WarnContext(ctx, "leagues still failing after retry", "league_ids", failed)
		return
	}
	s.logger.InfoContext(ctx, "league refresh retry succeeded", "league_ids", leagueIDs)
}

func (s *WeeklyRefreshService) refreshLeagues(ctx context.Context, leagueIDs []string) ([]string, error) {
	if len(leagueIDs) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		failed  []string
		workers sync.WaitGroup
	)
	for _, leagueID := range leagueIDs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if err := s.refresher.RefreshUpcomingMatches(ctx, leagueID); err != nil {
				s.logger.ErrorContext(ctx, "league refresh failed", "league_id", leagueID, "error", err)
				mu.Lock()
				failed = append(failed, leagueID)
				mu.Unlock()
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit league refresh: %w", err)
		}
	}
	workers.Wait()

	sort.Strings(failed)
	return failed, nil
}

// cronLogger routes robfig/cron logs into the service logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
