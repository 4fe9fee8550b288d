package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/match"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

// TrackingPollInterval is the delay between two polls of an active tracking job.
const TrackingPollInterval = 15 * time.Minute

// TrackingJob is a read-only view of one registry entry.
type TrackingJob struct {
	ID       string `json:"id"`
	MatchID  string `json:"match_id"`
	LeagueID string `json:"league_id"`
	Active   bool   `json:"active"`
}

type trackingJob struct {
	TrackingJob
	cancel context.CancelFunc
}

func newTrackingJob(matchID, leagueID string, active bool, cancel context.CancelFunc) *trackingJob {
	return &trackingJob{
		TrackingJob: TrackingJob{
			ID:       uuid.NewString(),
			MatchID:  matchID,
			LeagueID: leagueID,
			Active:   active,
		},
		cancel: cancel,
	}
}

type MatchSchedulerConfig struct {
	Clock  clockwork.Clock
	Logger *logging.Logger
}

// MatchScheduler keeps at most one tracking job per match. A job is pending until the
// match starts, then polls the bound refresh func every TrackingPollInterval until cancelled.
type MatchScheduler struct {
	// match id -> *trackingJob. Entries are only ever replaced through CompareAndSwap.
	jobs     sync.Map
	refresh  atomic.Pointer[RefreshFunc]
	clock    clockwork.Clock
	interval time.Duration
	logger   *logging.Logger

	baseCtx context.Context
	stop    context.CancelFunc
	loops   conc.WaitGroup

	// closed is set by Shutdown under mu; registry inserts and loop spawns hold mu for reading.
	mu     sync.RWMutex
	closed bool
}

func NewMatchScheduler(cfg MatchSchedulerConfig) *MatchScheduler {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseCtx, stop := context.WithCancel(context.Background())
	return &MatchScheduler{
		clock:    clock,
		interval: TrackingPollInterval,
		logger:   logger.Named("match_scheduler"),
		baseCtx:  baseCtx,
		stop:     stop,
	}
}

// BindRefresh sets the callback run on every poll.
func (s *MatchScheduler) BindRefresh(fn RefreshFunc) {
	s.refresh.Store(&fn)
}

func (s *MatchScheduler) ScheduleTracking(ctx context.Context, m match.Match, leagueID string) {
	if m.ID == "" || s.baseCtx.Err() != nil {
		return
	}
	if _, tracked := s.jobs.Load(m.ID); tracked {
		s.logger.DebugContext(ctx, "match already tracked", "match_id", m.ID)
		return
	}

	delay := m.StartTime.Sub(s.clock.Now())
	if delay <= 0 {
		s.startTracking(ctx, m.ID, leagueID, nil)
		return
	}

	jobCtx, cancel := context.WithCancel(s.baseCtx)
	job := newTrackingJob(m.ID, leagueID, false, cancel)
	admitted := s.admit(func() bool {
		if _, loaded := s.jobs.LoadOrStore(m.ID, job); loaded {
			return false
		}
		timer := s.clock.NewTimer(delay)
		s.loops.Go(func() {
			select {
			case <-jobCtx.Done():
				timer.Stop()
				s.logger.Debug("pending tracking cancelled", "match_id", job.MatchID)
			case <-timer.Chan():
				if jobCtx.Err() == nil {
					s.startTracking(context.Background(), job.MatchID, job.LeagueID, job)
				}
			}
		})
		return true
	})
	if !admitted {
		cancel()
		return
	}

	s.logger.InfoContext(ctx, "scheduled match tracking",
		"match_id", m.ID,
		"league_id", leagueID,
		"starts_in", delay.String(),
	)
}

// ActivateTracking starts polling a pending job right away instead of waiting for its timer.
// It reports whether a polling loop was started.
func (s *MatchScheduler) ActivateTracking(matchID string) bool {
	value, ok := s.jobs.Load(matchID)
	if !ok {
		return false
	}
	job := value.(*trackingJob)
	if job.Active {
		return false
	}
	return s.startTracking(context.Background(), matchID, job.LeagueID, job)
}

func (s *MatchScheduler) CancelTracking(matchID string) {
	value, ok := s.jobs.LoadAndDelete(matchID)
	if !ok {
		return
	}
	job := value.(*trackingJob)
	job.cancel()
	s.logger.Info("cancelled match tracking", "match_id", matchID, "job_id", job.ID, "active", job.Active)
}

func (s *MatchScheduler) TrackedMatchIDs() []string {
	out := make([]string, 0)
	s.jobs.Range(func(key, _ any) bool {
		out = append(out, key.(string))
		return true
	})
	sort.Strings(out)
	return out
}

func (s *MatchScheduler) TrackedJobs() []TrackingJob {
	out := make([]TrackingJob, 0)
	s.jobs.Range(func(_, value any) bool {
		out = append(out, value.(*trackingJob).TrackingJob)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out
}

// Shutdown cancels every job and waits for their goroutines or for ctx.
func (s *MatchScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.stop()
	s.mu.Unlock()

	s.jobs.Range(func(key, value any) bool {
		if s.jobs.CompareAndDelete(key, value) {
			value.(*trackingJob).cancel()
		}
		return true
	})

	done := make(chan struct{})
	go func() {
		s.loops.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startTracking installs an active job. With superseded set, the swap only succeeds while
// that exact pending job is still registered; its cancel func is called first.
func (s *MatchScheduler) startTracking(ctx context.Context, matchID, leagueID string, superseded *trackingJob) bool {
	if s.baseCtx.Err() != nil {
		return false
	}

	loopCtx, cancel := context.WithCancel(s.baseCtx)
	job := newTrackingJob(matchID, leagueID, true, cancel)

	admitted := s.admit(func() bool {
		if superseded == nil {
			if _, loaded := s.jobs.LoadOrStore(matchID, job); loaded {
				return false
			}
		} else {
			if superseded.Active {
				return false
			}
			superseded.cancel()
			if !s.jobs.CompareAndSwap(matchID, superseded, job) {
				return false
			}
		}
		s.loops.Go(func() {
			s.runTrackingLoop(loopCtx, job)
		})
		return true
	})
	if !admitted {
		cancel()
		return false
	}
	s.logger.InfoContext(ctx, "started live tracking", "match_id", matchID, "league_id", leagueID, "job_id", job.ID)
	return true
}

// admit runs register unless Shutdown has started. Every registry insert and loop spawn goes
// through it, so none can follow the Range and Wait in Shutdown.
func (s *MatchScheduler) admit(register func() bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	return register()
}

func (s *MatchScheduler) runTrackingLoop(ctx context.Context, job *trackingJob) {
	logger := s.logger.With("match_id", job.MatchID, "league_id", job.LeagueID, "job_id", job.ID)
	defer func() {
		if s.jobs.CompareAndDelete(job.MatchID, job) {
			logger.Debug("tracking job removed itself")
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		s.poll(job, logger)

		timer := s.clock.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debug("tracking loop cancelled")
			return
		case <-timer.Chan():
		}
	}
}

// poll runs on the scheduler context, not the job context: the refresh itself may cancel
// this job when the match finishes and must still be able to finish its follow-up work.
func (s *MatchScheduler) poll(job *trackingJob, logger *logging.Logger) {
	ctx := s.baseCtx
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "tracking poll panicked",
				"panic", rec,
				"error", ErrTrackingLoopFault,
			)
		}
	}()

	fn := s.refresh.Load()
	if fn == nil || *fn == nil {
		logger.Warn("tracking poll skipped: no refresh bound")
		return
	}

	if err := (*fn)(ctx, job.LeagueID); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.ErrorContext(ctx, "tracking poll failed", "error", crerr.Mark(err, ErrTrackingLoopFault))
		return
	}
	logger.Debug("polled live data")
}

var _ MatchTracker = (*MatchScheduler)(nil)
