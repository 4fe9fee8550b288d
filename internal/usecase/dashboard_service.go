package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/match"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/standing"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/team"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/cache"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

// MatchWindow bounds both the upcoming horizon and the age of previous matches.
const MatchWindow = 14 * 24 * time.Hour

// Dashboard is a point-in-time snapshot of one league.
type Dashboard struct {
	League     league.League
	Standings  []standing.Standing
	Groups     []standing.Group
	Upcoming   []match.Match
	Active     []match.Match
	Previous   []match.Match
	CapturedAt time.Time
}

type DashboardCacheTTL struct {
	Standings time.Duration
	Upcoming  time.Duration
	Previous  time.Duration
	Active    time.Duration
}

func DefaultDashboardCacheTTL() DashboardCacheTTL {
	return DashboardCacheTTL{
		Standings: 60 * time.Minute,
		Upcoming:  7 * 24 * time.Hour,
		Previous:  7 * 24 * time.Hour,
		Active:    5 * time.Minute,
	}
}

func (t DashboardCacheTTL) normalize() DashboardCacheTTL {
	defaults := DefaultDashboardCacheTTL()
	if t.Standings <= 0 {
		t.Standings = defaults.Standings
	}
	if t.Upcoming <= 0 {
		t.Upcoming = defaults.Upcoming
	}
	if t.Previous <= 0 {
		t.Previous = defaults.Previous
	}
	if t.Active <= 0 {
		t.Active = defaults.Active
	}
	return t
}

type DashboardServiceConfig struct {
	TTL    DashboardCacheTTL
	Clock  clockwork.Clock
	Logger *logging.Logger
}

type DashboardService struct {
	leagueRepo league.Repository
	source     DataSource
	cache      Cache
	logos      team.LogoRegistry
	tracker    MatchTracker
	ttl        DashboardCacheTTL
	clock      clockwork.Clock
	logger     *logging.Logger

	// league id -> *sync.Mutex guarding the finished-match transition.
	transitions sync.Map
}

func NewDashboardService(
	leagueRepo league.Repository,
	source DataSource,
	store Cache,
	logos team.LogoRegistry,
	tracker MatchTracker,
	cfg DashboardServiceConfig,
) *DashboardService {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	s := &DashboardService{
		leagueRepo: leagueRepo,
		source:     source,
		cache:      store,
		logos:      logos,
		tracker:    tracker,
		ttl:        cfg.TTL.normalize(),
		clock:      clock,
		logger:     logger.Named("dashboard"),
	}
	if binder, ok := tracker.(refreshBinder); ok {
		binder.BindRefresh(s.RefreshActiveMatches)
	}
	return s
}

func (s *DashboardService) ListLeagues(ctx context.Context) ([]league.League, error) {
	items, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	return items, nil
}

func (s *DashboardService) GetLeague(ctx context.Context, leagueID string) (league.League, error) {
	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, leagueNotFound(leagueID)
	}
	return item, nil
}

// GetDashboardData resolves the three match lists concurrently and only then the standings,
// whose enrichment relies on the logos the match fetches register. Any failure fails the call.
func (s *DashboardService) GetDashboardData(ctx context.Context, leagueID string) (Dashboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.GetDashboardData", leagueAttr(leagueID))
	defer span.End()

	l, err := s.GetLeague(ctx, leagueID)
	if err != nil {
		return Dashboard{}, err
	}

	var upcoming, previous, active, finished []match.Match
	p := pool.New().WithErrors().WithContext(ctx).WithFirstError().WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		items, err := s.upcomingMatches(ctx, l)
		upcoming = items
		return err
	})
	p.Go(func(ctx context.Context) error {
		items, err := s.previousMatches(ctx, l)
		previous = items
		return err
	})
	p.Go(func(ctx context.Context) error {
		items, done, err := s.activeMatches(ctx, l)
		active, finished = items, done
		return err
	})
	if err := p.Wait(); err != nil {
		span.RecordError(err)
		return Dashboard{}, err
	}

	// A cold active read may have retired matches; the table refresh they owe waits for the join.
	if len(finished) > 0 {
		if err := s.RefreshStandings(ctx, l.ID); err != nil {
			span.RecordError(err)
			return Dashboard{}, err
		}
	}

	standings, err := s.standings(ctx, l)
	if err != nil {
		span.RecordError(err)
		return Dashboard{}, err
	}

	var groups []standing.Group
	if l.IsGroupStage() {
		groups, err = s.groupedStandings(ctx, l)
		if err != nil {
			span.RecordError(err)
			return Dashboard{}, err
		}
	}

	span.SetAttributes(
		attribute.Int("dashboard.upcoming", len(upcoming)),
		attribute.Int("dashboard.active", len(active)),
		attribute.Int("dashboard.previous", len(previous)),
	)

	return Dashboard{
		League:     l,
		Standings:  standings,
		Groups:     groups,
		Upcoming:   upcoming,
		Active:     active,
		Previous:   previous,
		CapturedAt: s.clock.Now().UTC(),
	}, nil
}

// RefreshStandings replaces the cached table. Unknown leagues are ignored.
func (s *DashboardService) RefreshStandings(ctx context.Context, leagueID string) error {
	l, ok, err := s.findLeague(ctx, leagueID)
	if err != nil || !ok {
		return err
	}

	s.cache.Delete(ctx, standingsKey(l.ID))
	items, err := s.source.Standings(ctx, l)
	if err != nil {
		return fmt.Errorf("refresh standings league=%s: %w", l.ID, err)
	}
	s.cache.Set(ctx, standingsKey(l.ID), items, s.ttl.Standings)

	if l.IsGroupStage() {
		s.cache.Delete(ctx, groupsKey(l.ID))
		groups, err := s.source.GroupedStandings(ctx, l)
		if err != nil {
			return fmt.Errorf("refresh grouped standings league=%s: %w", l.ID, err)
		}
		s.cache.Set(ctx, groupsKey(l.ID), groups, s.ttl.Standings)
	}

	s.logger.InfoContext(ctx, "refreshed standings", "league_id", l.ID, "rows", len(items))
	return nil
}

// RefreshUpcomingMatches caches the fixtures starting within MatchWindow and schedules
// tracking for each of them. It is the only place tracking jobs are created.
func (s *DashboardService) RefreshUpcomingMatches(ctx context.Context, leagueID string) error {
	l, ok, err := s.findLeague(ctx, leagueID)
	if err != nil || !ok {
		return err
	}
	return s.refreshUpcoming(ctx, l)
}

// RefreshActiveMatches caches the live feed and moves finished matches to previous.
func (s *DashboardService) RefreshActiveMatches(ctx context.Context, leagueID string) error {
	l, ok, err := s.findLeague(ctx, leagueID)
	if err != nil || !ok {
		return err
	}
	return s.refreshActive(ctx, l)
}

func (s *DashboardService) refreshUpcoming(ctx context.Context, l league.League) error {
	fixtures, err := s.source.Fixtures(ctx, l)
	if err != nil {
		return fmt.Errorf("refresh upcoming matches league=%s: %w", l.ID, err)
	}

	now := s.clock.Now()
	horizon := now.Add(MatchWindow)
	upcoming := match.Filter(fixtures, func(m match.Match) bool {
		return m.IsUpcoming() && m.StartTime.After(now) && !m.StartTime.After(horizon)
	})
	match.SortByStart(upcoming, false)
	s.cache.Set(ctx, upcomingKey(l.ID), upcoming, s.ttl.Upcoming)

	for _, m := range upcoming {
		s.tracker.ScheduleTracking(ctx, m, l.ID)
	}

	s.logger.InfoContext(ctx, "refreshed upcoming matches", "league_id", l.ID, "count", len(upcoming))
	return nil
}

func (s *DashboardService) refreshActive(ctx context.Context, l league.League) error {
	finished, err := s.syncActive(ctx, l)
	if err != nil || len(finished) == 0 {
		return err
	}
	return s.completeMatches(ctx, l, finished)
}

// syncActive caches the live feed and returns its finished matches.
func (s *DashboardService) syncActive(ctx context.Context, l league.League) ([]match.Match, error) {
	live, err := s.source.LiveMatches(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("refresh active matches league=%s: %w", l.ID, err)
	}
	s.cache.Set(ctx, activeKey(l.ID), slices.Clone(live), s.ttl.Active)
	return match.Filter(live, match.Match.IsFinished), nil
}

// completeMatches retires finished matches and refreshes the table once. Runs serialised per league.
func (s *DashboardService) completeMatches(ctx context.Context, l league.League, finished []match.Match) error {
	lock := s.transitionLock(l.ID)
	lock.Lock()
	defer lock.Unlock()

	s.retireMatches(ctx, l, finished)
	return s.RefreshStandings(ctx, l.ID)
}

// retireMatches moves finished matches into previous, drops them from upcoming and stops
// their tracking. The caller holds the league's transition lock.
func (s *DashboardService) retireMatches(ctx context.Context, l league.League, finished []match.Match) {
	cutoff := s.clock.Now().Add(-MatchWindow)
	existing, _ := cache.Lookup[[]match.Match](ctx, s.cache, previousKey(l.ID))
	s.cache.Set(ctx, previousKey(l.ID), mergePrevious(existing, finished, cutoff), s.ttl.Previous)

	done := make(map[string]struct{}, len(finished))
	for _, m := range finished {
		done[m.ID] = struct{}{}
	}
	if upcoming, ok := cache.Lookup[[]match.Match](ctx, s.cache, upcomingKey(l.ID)); ok {
		remaining := match.Filter(upcoming, func(m match.Match) bool {
			_, isDone := done[m.ID]
			return !isDone
		})
		s.cache.Set(ctx, upcomingKey(l.ID), remaining, s.ttl.Upcoming)
	}

	for _, m := range finished {
		s.tracker.CancelTracking(m.ID)
	}

	s.logger.InfoContext(ctx, "matches finished", "league_id", l.ID, "match_ids", match.IDs(finished))
}

// mergePrevious keeps existing entries on duplicate ids and drops matches older than cutoff.
func mergePrevious(existing, finished []match.Match, cutoff time.Time) []match.Match {
	seen := make(map[string]struct{}, len(existing)+len(finished))
	out := make([]match.Match, 0, len(existing)+len(finished))
	for _, group := range [][]match.Match{existing, finished} {
		for _, m := range group {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			if m.StartTime.Before(cutoff) {
				continue
			}
			out = append(out, m)
		}
	}
	match.SortByStart(out, true)
	return out
}

func (s *DashboardService) upcomingMatches(ctx context.Context, l league.League) ([]match.Match, error) {
	cached, ok := cache.Lookup[[]match.Match](ctx, s.cache, upcomingKey(l.ID))
	if !ok {
		if err := s.refreshUpcoming(ctx, l); err != nil {
			return nil, err
		}
		cached, _ = cache.Lookup[[]match.Match](ctx, s.cache, upcomingKey(l.ID))
	}

	now := s.clock.Now()
	return match.Filter(cached, func(m match.Match) bool { return m.StartTime.After(now) }), nil
}

func (s *DashboardService) previousMatches(ctx context.Context, l league.League) ([]match.Match, error) {
	items, err := cache.Load(ctx, s.cache, previousKey(l.ID), s.ttl.Previous, func(ctx context.Context) ([]match.Match, error) {
		results, err := s.source.Results(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("load previous matches league=%s: %w", l.ID, err)
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

// activeMatches returns the live subset of the active feed. On a cold read it also retires the
// feed's finished matches and returns them, leaving the standings refresh to the caller.
func (s *DashboardService) activeMatches(ctx context.Context, l league.League) ([]match.Match, []match.Match, error) {
	cached, ok := cache.Lookup[[]match.Match](ctx, s.cache, activeKey(l.ID))
	if ok {
		return match.Filter(cached, match.Match.IsLive), nil, nil
	}

	finished, err := s.syncActive(ctx, l)
	if err != nil {
		return nil, nil, err
	}
	if len(finished) > 0 {
		lock := s.transitionLock(l.ID)
		lock.Lock()
		s.retireMatches(ctx, l, finished)
		lock.Unlock()
	}

	cached, _ = cache.Lookup[[]match.Match](ctx, s.cache, activeKey(l.ID))
	return match.Filter(cached, match.Match.IsLive), finished, nil
}

func (s *DashboardService) standings(ctx context.Context, l league.League) ([]standing.Standing, error) {
	items, err := cache.Load(ctx, s.cache, standingsKey(l.ID), s.ttl.Standings, func(ctx context.Context) ([]standing.Standing, error) {
		rows, err := s.source.Standings(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("load standings league=%s: %w", l.ID, err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return s.enrichStandings(items), nil
}

func (s *DashboardService) groupedStandings(ctx context.Context, l league.League) ([]standing.Group, error) {
	groups, err := cache.Load(ctx, s.cache, groupsKey(l.ID), s.ttl.Standings, func(ctx context.Context) ([]standing.Group, error) {
		items, err := s.source.GroupedStandings(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("load grouped standings league=%s: %w", l.ID, err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]standing.Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, standing.Group{Name: g.Name, Standings: s.enrichStandings(g.Standings)})
	}
	return out, nil
}

func (s *DashboardService) enrichStandings(items []standing.Standing) []standing.Standing {
	out := make([]standing.Standing, 0, len(items))
	for _, item := range items {
		out = append(out, s.enrichStanding(item))
	}
	return out
}

func (s *DashboardService) enrichStanding(item standing.Standing) standing.Standing {
	if item.Team.HasLogo() || s.logos == nil {
		return item
	}
	if logo, ok := s.logos.Logo(item.Team.ID); ok {
		return item.WithTeamLogo(logo)
	}
	return item
}

func (s *DashboardService) findLeague(ctx context.Context, leagueID string) (league.League, bool, error) {
	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, false, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		s.logger.DebugContext(ctx, "refresh skipped for unknown league", "league_id", leagueID)
	}
	return item, exists, nil
}

func (s *DashboardService) transitionLock(leagueID string) *sync.Mutex {
	lock, _ := s.transitions.LoadOrStore(leagueID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func standingsKey(leagueID string) string { return "standings:" + leagueID }
func groupsKey(leagueID string) string    { return "groups:" + leagueID }
func upcomingKey(leagueID string) string  { return "upcoming:" + leagueID }
func previousKey(leagueID string) string  { return "previous:" + leagueID }
func activeKey(leagueID string) string    { return "active:" + leagueID }

var _ LeagueRefresher = (*DashboardService)(nil)
