package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/match"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/standing"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/team"
	"github.com/riskibarqy/volleyball-dashboard/internal/infrastructure/repository/memory"
	leaguemock "github.com/riskibarqy/volleyball-dashboard/internal/mocks/domain/league"
	usecasemock "github.com/riskibarqy/volleyball-dashboard/internal/mocks/usecase"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/cache"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var dashboardNow = time.Date(2026, time.March, 7, 18, 0, 0, 0, time.UTC)

func testLeague(id string, typ league.Type) league.League {
	return league.League{
		ID:                id,
		Name:              "PlusLiga",
		Country:           "Poland",
		CountryCode:       "154",
		Season:            "2025-2026",
		StandingsEndpoint: "/standings",
		FixturesEndpoint:  "/fixtures",
		ResultsEndpoint:   "/results",
		LiveEndpoint:      "/live",
		Type:              typ,
	}
}

type dashboardFixture struct {
	service *DashboardService
	source  *usecasemock.DataSource
	tracker *usecasemock.MatchTracker
	store   *cache.Store
	logos   *memory.TeamLogoRegistry
	clock   *clockwork.FakeClock
	league  league.League
}

func newDashboardFixture(t *testing.T, typ league.Type) *dashboardFixture {
	t.Helper()

	l := testLeague("plusliga", typ)
	repo, err := memory.NewLeagueRepository([]league.League{l})
	if err != nil {
		t.Fatalf("new league repository: %v", err)
	}

	clock := clockwork.NewFakeClockAt(dashboardNow)
	f := &dashboardFixture{
		source:  usecasemock.NewDataSource(t),
		tracker: usecasemock.NewMatchTracker(t),
		store:   cache.NewStore(cache.WithClock(clock)),
		logos:   memory.NewTeamLogoRegistry(),
		clock:   clock,
		league:  l,
	}
	f.service = NewDashboardService(repo, f.source, f.store, f.logos, f.tracker, DashboardServiceConfig{
		Clock:  clock,
		Logger: logging.NewNop(),
	})
	return f
}

func testMatch(id string, status match.Status, start time.Time) match.Match {
	return match.Match{
		ID:        id,
		HomeTeam:  team.Team{ID: id + "-home", Name: "Home " + id},
		AwayTeam:  team.Team{ID: id + "-away", Name: "Away " + id},
		StartTime: start,
		Status:    status,
	}
}

func cachedMatches(t *testing.T, store *cache.Store, key string) []match.Match {
	t.Helper()
	items, ok := cache.Lookup[[]match.Match](context.Background(), store, key)
	if !ok {
		t.Fatalf("expected cache entry %q", key)
	}
	return items
}

func TestDashboardService_GetDashboardData_UnknownLeague(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)
	source := usecasemock.NewDataSource(t)
	tracker := usecasemock.NewMatchTracker(t)
	service := NewDashboardService(leagueRepo, source, cache.NewStore(), memory.NewTeamLogoRegistry(), tracker, DashboardServiceConfig{
		Logger: logging.NewNop(),
	})

	leagueRepo.
		On("GetByID", mock.Anything, "unknown-league").
		Return(league.League{}, false, nil).
		Twice()

	_, err := service.GetDashboardData(ctx, "unknown-league")
	if !crerr.Is(err, ErrLeagueNotFound) {
		t.Fatalf("expected ErrLeagueNotFound, got %v", err)
	}
	if !crerr.Is(err, ErrNotFound) {
		t.Fatalf("expected league not found to match ErrNotFound, got %v", err)
	}

	if err := service.RefreshStandings(ctx, "unknown-league"); err != nil {
		t.Fatalf("expected refresh of unknown league to be a no-op, got %v", err)
	}
}

func TestDashboardService_GetDashboardData_ColdFetchesMatchesBeforeStandings(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	ctx := context.Background()
	var matchFetches atomic.Int32

	upcoming := testMatch("U1", match.StatusUpcoming, dashboardNow.Add(2*time.Hour))
	live := testMatch("L1", match.StatusLive, dashboardNow.Add(-30*time.Minute))
	previous := testMatch("P1", match.StatusFinished, dashboardNow.Add(-48*time.Hour))

	f.source.
		On("Fixtures", mock.Anything, f.league).
		Return(func(context.Context, league.League) ([]match.Match, error) {
			f.logos.SetLogo("U1-home", "https://cdn.example/u1-home.png")
			matchFetches.Add(1)
			return []match.Match{upcoming}, nil
		}).
		Once()
	f.source.
		On("Results", mock.Anything, f.league).
		Return(func(context.Context, league.League) ([]match.Match, error) {
			matchFetches.Add(1)
			return []match.Match{previous}, nil
		}).
		Once()
	f.source.
		On("LiveMatches", mock.Anything, f.league).
		Return(func(context.Context, league.League) ([]match.Match, error) {
			matchFetches.Add(1)
			return []match.Match{live}, nil
		}).
		Once()
	f.source.
		On("Standings", mock.Anything, f.league).
		Return(func(context.Context, league.League) ([]standing.Standing, error) {
			if got := matchFetches.Load(); got != 3 {
				t.Errorf("standings fetched before match lists completed: fetches=%d", got)
			}
			return []standing.Standing{{Rank: 1, Team: team.Team{ID: "U1-home", Name: "Home U1"}, Points: 30}}, nil
		}).
		Once()
	f.tracker.On("ScheduleTracking", mock.Anything, upcoming, f.league.ID).Once()

	got, err := f.service.GetDashboardData(ctx, f.league.ID)
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	if len(got.Upcoming) != 1 || got.Upcoming[0].ID != "U1" {
		t.Fatalf("unexpected upcoming: %+v", got.Upcoming)
	}
	if len(got.Active) != 1 || got.Active[0].ID != "L1" {
		t.Fatalf("unexpected active: %+v", got.Active)
	}
	if len(got.Previous) != 1 || got.Previous[0].ID != "P1" {
		t.Fatalf("unexpected previous: %+v", got.Previous)
	}
	if len(got.Standings) != 1 || got.Standings[0].Team.LogoURL != "https://cdn.example/u1-home.png" {
		t.Fatalf("expected enriched standings, got %+v", got.Standings)
	}
	if got.Groups != nil {
		t.Fatalf("expected no groups for a standard league, got %+v", got.Groups)
	}
	if !got.CapturedAt.Equal(dashboardNow) {
		t.Fatalf("unexpected captured at: %s", got.CapturedAt)
	}

	// Second call is served from the cache.
	if _, err := f.service.GetDashboardData(ctx, f.league.ID); err != nil {
		t.Fatalf("get dashboard from cache: %v", err)
	}
}

func TestDashboardService_GetDashboardData_FailsWholeCallOnSubFetchError(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	boom := crerr.Mark(errors.New("results endpoint returned 502"), ErrDataSource)

	f.source.On("Results", mock.Anything, f.league).Return(nil, boom).Once()
	f.source.On("Fixtures", mock.Anything, f.league).Return([]match.Match{}, nil).Maybe()
	f.source.On("LiveMatches", mock.Anything, f.league).Return([]match.Match{}, nil).Maybe()

	got, err := f.service.GetDashboardData(context.Background(), f.league.ID)
	if !errors.Is(err, boom) {
		t.Fatalf("expected results error, got %v", err)
	}
	if !crerr.Is(err, ErrDataSource) {
		t.Fatalf("expected data source mark to survive, got %v", err)
	}
	if got.Standings != nil || got.Upcoming != nil {
		t.Fatalf("expected empty snapshot on failure, got %+v", got)
	}
	f.source.AssertNotCalled(t, "Standings", mock.Anything, mock.Anything)
}

func TestDashboardService_RefreshUpcomingMatches_FiltersSortsAndSchedules(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	ctx := context.Background()

	later := testMatch("U1", match.StatusUpcoming, dashboardNow.Add(time.Hour))
	soon := testMatch("U4", match.StatusUpcoming, dashboardNow.Add(30*time.Minute))
	edge := testMatch("U5", match.StatusUpcoming, dashboardNow.Add(MatchWindow))

	f.source.
		On("Fixtures", mock.Anything, f.league).
		Return([]match.Match{
			later,
			testMatch("U2", match.StatusUpcoming, dashboardNow.Add(MatchWindow+time.Minute)),
			testMatch("U3", match.StatusUpcoming, dashboardNow.Add(-time.Hour)),
			testMatch("F1", match.StatusFinished, dashboardNow.Add(2*time.Hour)),
			edge,
			soon,
		}, nil).
		Once()
	f.tracker.On("ScheduleTracking", mock.Anything, soon, f.league.ID).Once()
	f.tracker.On("ScheduleTracking", mock.Anything, later, f.league.ID).Once()
	f.tracker.On("ScheduleTracking", mock.Anything, edge, f.league.ID).Once()

	if err := f.service.RefreshUpcomingMatches(ctx, f.league.ID); err != nil {
		t.Fatalf("refresh upcoming: %v", err)
	}

	ids := match.IDs(cachedMatches(t, f.store, "upcoming:plusliga"))
	want := []string{"U4", "U1", "U5"}
	if len(ids) != len(want) {
		t.Fatalf("unexpected cached upcoming ids: got=%v want=%v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected cached upcoming ids: got=%v want=%v", ids, want)
		}
	}

	// Cached entries are re-filtered on read as time moves on.
	f.clock.Advance(45 * time.Minute)
	got, err := f.service.upcomingMatches(ctx, f.league)
	if err != nil {
		t.Fatalf("read upcoming: %v", err)
	}
	if len(got) != 2 || got[0].ID != "U1" {
		t.Fatalf("expected started match to be filtered out, got %v", match.IDs(got))
	}
}

func TestDashboardService_RefreshActiveMatches_FinishedTransition(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	ctx := context.Background()

	finished := testMatch("M1", match.StatusFinished, dashboardNow.Add(-2*time.Hour))
	finished.Score = &match.Score{Home: 3, Away: 1}
	stillLive := testMatch("L1", match.StatusLive, dashboardNow.Add(-time.Hour))
	olderPrevious := testMatch("P0", match.StatusFinished, dashboardNow.Add(-72*time.Hour))
	expiredPrevious := testMatch("P9", match.StatusFinished, dashboardNow.Add(-MatchWindow-time.Hour))

	f.store.Set(ctx, "upcoming:plusliga", []match.Match{
		testMatch("M1", match.StatusUpcoming, dashboardNow.Add(-2*time.Hour)),
		testMatch("U2", match.StatusUpcoming, dashboardNow.Add(24*time.Hour)),
	}, time.Hour)
	f.store.Set(ctx, "previous:plusliga", []match.Match{olderPrevious, expiredPrevious}, time.Hour)

	f.source.On("LiveMatches", mock.Anything, f.league).Return([]match.Match{finished, stillLive}, nil).Once()
	f.source.On("Standings", mock.Anything, f.league).Return([]standing.Standing{{Rank: 1}}, nil).Once()
	f.tracker.On("CancelTracking", "M1").Once()

	if err := f.service.RefreshActiveMatches(ctx, f.league.ID); err != nil {
		t.Fatalf("refresh active: %v", err)
	}

	previous := match.IDs(cachedMatches(t, f.store, "previous:plusliga"))
	if len(previous) != 2 || previous[0] != "M1" || previous[1] != "P0" {
		t.Fatalf("unexpected previous ids: %v", previous)
	}
	upcoming := match.IDs(cachedMatches(t, f.store, "upcoming:plusliga"))
	if len(upcoming) != 1 || upcoming[0] != "U2" {
		t.Fatalf("unexpected upcoming ids: %v", upcoming)
	}
	if active := cachedMatches(t, f.store, "active:plusliga"); len(active) != 2 {
		t.Fatalf("expected raw live feed to be cached, got %v", match.IDs(active))
	}
	if _, ok := f.store.Get(ctx, "standings:plusliga"); !ok {
		t.Fatalf("expected standings to be refreshed")
	}
}

func TestDashboardService_FinishedTransitionKeepsFirstRecord(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	ctx := context.Background()

	first := testMatch("M1", match.StatusFinished, dashboardNow.Add(-2*time.Hour))
	first.Score = &match.Score{Home: 3, Away: 2}
	second := first
	second.Score = &match.Score{Home: 0, Away: 3}

	f.source.On("LiveMatches", mock.Anything, f.league).Return([]match.Match{first}, nil).Once()
	f.source.On("LiveMatches", mock.Anything, f.league).Return([]match.Match{second}, nil).Once()
	f.source.On("Standings", mock.Anything, f.league).Return([]standing.Standing{}, nil).Twice()
	f.tracker.On("CancelTracking", "M1").Twice()

	for i := 0; i < 2; i++ {
		if err := f.service.RefreshActiveMatches(ctx, f.league.ID); err != nil {
			t.Fatalf("refresh active #%d: %v", i+1, err)
		}
	}

	previous := cachedMatches(t, f.store, "previous:plusliga")
	if len(previous) != 1 {
		t.Fatalf("expected one previous match, got %v", match.IDs(previous))
	}
	if previous[0].Score.Home != 3 {
		t.Fatalf("expected first finish record to win, got %+v", previous[0].Score)
	}
}

func TestDashboardService_ColdActiveReadRoutesFinishedMatches(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	ctx := context.Background()

	f.source.
		On("LiveMatches", mock.Anything, f.league).
		Return([]match.Match{
			testMatch("F1", match.StatusFinished, dashboardNow.Add(-3*time.Hour)),
			testMatch("L1", match.StatusLive, dashboardNow.Add(-time.Hour)),
		}, nil).
		Once()
	f.tracker.On("CancelTracking", "F1").Once()

	got, finished, err := f.service.activeMatches(ctx, f.league)
	if err != nil {
		t.Fatalf("read active: %v", err)
	}
	if ids := match.IDs(got); len(ids) != 1 || ids[0] != "L1" {
		t.Fatalf("expected live subset only, got %v", ids)
	}
	if ids := match.IDs(finished); len(ids) != 1 || ids[0] != "F1" {
		t.Fatalf("expected retired matches to be reported, got %v", ids)
	}
	if previous := match.IDs(cachedMatches(t, f.store, "previous:plusliga")); len(previous) != 1 || previous[0] != "F1" {
		t.Fatalf("expected finished match in previous, got %v", previous)
	}

	// Warm path filters the cached feed without another fetch.
	got, finished, err = f.service.activeMatches(ctx, f.league)
	if err != nil || len(got) != 1 || len(finished) != 0 {
		t.Fatalf("unexpected warm active read: %v finished=%v err=%v", match.IDs(got), match.IDs(finished), err)
	}
}

func TestDashboardService_GetDashboardData_ColdFinishedRefreshesStandingsAfterJoin(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	ctx := context.Background()

	var fixturesDone atomic.Bool
	liveCalled := make(chan struct{})
	upcoming := testMatch("U1", match.StatusUpcoming, dashboardNow.Add(2*time.Hour))
	finished := testMatch("F1", match.StatusFinished, dashboardNow.Add(-3*time.Hour))

	f.source.
		On("Fixtures", mock.Anything, f.league).
		Return(func(context.Context, league.League) ([]match.Match, error) {
			<-liveCalled
			time.Sleep(20 * time.Millisecond)
			fixturesDone.Store(true)
			return []match.Match{upcoming}, nil
		}).
		Once()
	f.source.
		On("LiveMatches", mock.Anything, f.league).
		Return(func(context.Context, league.League) ([]match.Match, error) {
			close(liveCalled)
			return []match.Match{finished}, nil
		}).
		Once()
	// The retired match may seed previous before the results loader runs.
	f.source.On("Results", mock.Anything, f.league).Return([]match.Match{}, nil).Maybe()
	f.source.
		On("Standings", mock.Anything, f.league).
		Return(func(context.Context, league.League) ([]standing.Standing, error) {
			if !fixturesDone.Load() {
				t.Errorf("standings fetched before the match fan-out joined")
			}
			return []standing.Standing{{Rank: 1, Team: team.Team{ID: "t1"}}}, nil
		}).
		Once()
	f.tracker.On("ScheduleTracking", mock.Anything, upcoming, f.league.ID).Once()
	f.tracker.On("CancelTracking", "F1").Once()

	got, err := f.service.GetDashboardData(ctx, f.league.ID)
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	if len(got.Active) != 0 {
		t.Fatalf("expected no live matches, got %v", match.IDs(got.Active))
	}
	if len(got.Standings) != 1 {
		t.Fatalf("expected refreshed standings to be served, got %+v", got.Standings)
	}
}

func TestDashboardService_PreviousMatchesCachedAfterFirstLoad(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	ctx := context.Background()

	f.source.
		On("Results", mock.Anything, f.league).
		Return([]match.Match{testMatch("P1", match.StatusFinished, dashboardNow.Add(-time.Hour))}, nil).
		Once()

	first, err := f.service.previousMatches(ctx, f.league)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	first[0].ID = "mutated"

	second, err := f.service.previousMatches(ctx, f.league)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if second[0].ID != "P1" {
		t.Fatalf("expected returned slices to be copies, got %q", second[0].ID)
	}
}

func TestDashboardService_StandingsEnrichmentIsPure(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeStandard)
	ctx := context.Background()

	rows := []standing.Standing{
		{Rank: 1, Team: team.Team{ID: "t1", Name: "Jastrzebski Wegiel"}},
		{Rank: 2, Team: team.Team{ID: "t2", Name: "Aluron Zawiercie", LogoURL: "https://cdn.example/own.png"}},
		{Rank: 3, Team: team.Team{ID: "t3", Name: "Projekt Warszawa"}},
	}
	f.store.Set(ctx, "standings:plusliga", rows, time.Hour)
	f.logos.SetLogo("t1", "https://cdn.example/t1.png")
	f.logos.SetLogo("t2", "https://cdn.example/registry.png")

	got, err := f.service.standings(ctx, f.league)
	if err != nil {
		t.Fatalf("read standings: %v", err)
	}
	if got[0].Team.LogoURL != "https://cdn.example/t1.png" {
		t.Fatalf("expected registry logo, got %q", got[0].Team.LogoURL)
	}
	if got[1].Team.LogoURL != "https://cdn.example/own.png" {
		t.Fatalf("expected existing logo to be kept, got %q", got[1].Team.LogoURL)
	}
	if got[2].Team.LogoURL != "" {
		t.Fatalf("expected missing logo to stay empty, got %q", got[2].Team.LogoURL)
	}

	cached, _ := cache.Lookup[[]standing.Standing](ctx, f.store, "standings:plusliga")
	if cached[0].Team.LogoURL != "" {
		t.Fatalf("expected cached standings to stay untouched, got %q", cached[0].Team.LogoURL)
	}
}

func TestDashboardService_RefreshStandings_GroupStage(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture(t, league.TypeGroupStage)
	ctx := context.Background()

	f.source.On("Standings", mock.Anything, f.league).Return([]standing.Standing{{Rank: 1}}, nil).Once()
	f.source.
		On("GroupedStandings", mock.Anything, f.league).
		Return([]standing.Group{{Name: "Pool A", Standings: []standing.Standing{{Rank: 1, Team: team.Team{ID: "t1"}}}}}, nil).
		Once()
	f.logos.SetLogo("t1", "https://cdn.example/t1.png")

	if err := f.service.RefreshStandings(ctx, f.league.ID); err != nil {
		t.Fatalf("refresh standings: %v", err)
	}

	groups, err := f.service.groupedStandings(ctx, f.league)
	if err != nil {
		t.Fatalf("read groups: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Pool A" || groups[0].Standings[0].Team.LogoURL == "" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}

type bindingTracker struct {
	*usecasemock.MatchTracker
	bound RefreshFunc
}

func (b *bindingTracker) BindRefresh(fn RefreshFunc) { b.bound = fn }

func TestNewDashboardService_BindsActiveRefreshToTracker(t *testing.T) {
	t.Parallel()

	l := testLeague("plusliga", league.TypeStandard)
	repo, err := memory.NewLeagueRepository([]league.League{l})
	if err != nil {
		t.Fatalf("new league repository: %v", err)
	}
	source := usecasemock.NewDataSource(t)
	tracker := &bindingTracker{MatchTracker: usecasemock.NewMatchTracker(t)}

	NewDashboardService(repo, source, cache.NewStore(), memory.NewTeamLogoRegistry(), tracker, DashboardServiceConfig{
		Logger: logging.NewNop(),
	})
	if tracker.bound == nil {
		t.Fatalf("expected refresh callback to be bound")
	}

	source.On("LiveMatches", mock.Anything, l).Return([]match.Match{}, nil).Once()
	if err := tracker.bound(context.Background(), "plusliga"); err != nil {
		t.Fatalf("bound refresh: %v", err)
	}
}
