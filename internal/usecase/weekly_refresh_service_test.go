package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
	"github.com/riskibarqy/volleyball-dashboard/internal/infrastructure/repository/memory"
	leaguemock "github.com/riskibarqy/volleyball-dashboard/internal/mocks/domain/league"
	usecasemock "github.com/riskibarqy/volleyball-dashboard/internal/mocks/usecase"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

// Wednesday.
var weeklyEpoch = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

func newWeeklyLeagueRepo(t *testing.T, ids ...string) *memory.LeagueRepository {
	t.Helper()
	leagues := make([]league.League, 0, len(ids))
	for _, id := range ids {
		leagues = append(leagues, testLeague(id, league.TypeStandard))
	}
	repo, err := memory.NewLeagueRepository(leagues)
	if err != nil {
		t.Fatalf("new league repository: %v", err)
	}
	return repo
}

func newTestWeeklyRefresh(t *testing.T, repo league.Repository, refresher LeagueRefresher, clock clockwork.Clock) *WeeklyRefreshService {
	t.Helper()
	service, err := NewWeeklyRefreshService(repo, refresher, WeeklyRefreshConfig{
		Workers: 2,
		Clock:   clock,
		Logger:  logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new weekly refresh: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = service.Stop(ctx)
	})
	return service
}

func TestWeeklyRefreshService_RefreshAllRetriesFailedLeaguesOnce(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(weeklyEpoch)
	refresher := usecasemock.NewLeagueRefresher(t)
	service := newTestWeeklyRefresh(t, newWeeklyLeagueRepo(t, "plusliga", "superlega"), refresher, clock)

	retried := make(chan struct{}, 1)
	refresher.On("RefreshUpcomingMatches", mock.Anything, "plusliga").Return(nil).Once()
	refresher.On("RefreshUpcomingMatches", mock.Anything, "superlega").Return(errors.New("upstream timeout")).Once()
	refresher.
		On("RefreshUpcomingMatches", mock.Anything, "superlega").
		Run(func(mock.Arguments) { retried <- struct{}{} }).
		Return(nil).
		Once()

	if err := service.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh all: %v", err)
	}

	waitForTimers(t, clock, 1)
	clock.Advance(DefaultWeeklyRefreshRetryDelay)

	select {
	case <-retried:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected failed league to be retried")
	}
}

func TestWeeklyRefreshService_StopWaitsForRunningRetry(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(weeklyEpoch)
	refresher := usecasemock.NewLeagueRefresher(t)
	service := newTestWeeklyRefresh(t, newWeeklyLeagueRepo(t, "plusliga"), refresher, clock)

	retrying := make(chan struct{})
	release := make(chan struct{})
	refresher.On("RefreshUpcomingMatches", mock.Anything, "plusliga").Return(errors.New("upstream timeout")).Once()
	refresher.
		On("RefreshUpcomingMatches", mock.Anything, "plusliga").
		Run(func(mock.Arguments) {
			close(retrying)
			<-release
		}).
		Return(nil).
		Once()

	if err := service.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh all: %v", err)
	}
	waitForTimers(t, clock, 1)
	clock.Advance(DefaultWeeklyRefreshRetryDelay)

	select {
	case <-retrying:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected retry to start")
	}

	shortCtx, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	if err := service.Stop(shortCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected stop to wait for the running retry, got %v", err)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := service.Stop(ctx); err != nil {
		t.Fatalf("stop after retry finished: %v", err)
	}
}

func TestWeeklyRefreshService_RefreshAllFailsWhenLeaguesUnavailable(t *testing.T) {
	t.Parallel()

	repo := leaguemock.NewRepository(t)
	refresher := usecasemock.NewLeagueRefresher(t)
	service := newTestWeeklyRefresh(t, repo, refresher, clockwork.NewFakeClockAt(weeklyEpoch))

	repo.On("List", mock.Anything).Return(nil, errors.New("config unavailable")).Once()

	if err := service.RefreshAll(context.Background()); err == nil {
		t.Fatalf("expected list error")
	}
}

func TestWeeklyRefreshService_NextRun(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(weeklyEpoch)
	service := newTestWeeklyRefresh(t, newWeeklyLeagueRepo(t, "plusliga"), usecasemock.NewLeagueRefresher(t), clock)

	want := time.Date(2026, time.March, 9, 6, 0, 0, 0, time.UTC)
	if got := service.NextRun(); !got.Equal(want) {
		t.Fatalf("unexpected next run: got=%s want=%s", got, want)
	}

	clock.Advance(5 * 24 * time.Hour)
	want = time.Date(2026, time.March, 16, 6, 0, 0, 0, time.UTC)
	if got := service.NextRun(); !got.Equal(want) {
		t.Fatalf("unexpected next run after monday 06:00: got=%s want=%s", got, want)
	}
}

func TestWeeklyRefreshService_RejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := NewWeeklyRefreshService(newWeeklyLeagueRepo(t, "plusliga"), usecasemock.NewLeagueRefresher(t), WeeklyRefreshConfig{
		Schedule: "every monday",
		Logger:   logging.NewNop(),
	})
	if err == nil {
		t.Fatalf("expected invalid schedule error")
	}
}

func TestWeeklyRefreshService_StartLoadsLeaguesAndStops(t *testing.T) {
	t.Parallel()

	refresher := usecasemock.NewLeagueRefresher(t)
	service, err := NewWeeklyRefreshService(newWeeklyLeagueRepo(t, "plusliga"), refresher, WeeklyRefreshConfig{
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new weekly refresh: %v", err)
	}

	loaded := make(chan struct{}, 1)
	refresher.
		On("RefreshUpcomingMatches", mock.Anything, "plusliga").
		Run(func(mock.Arguments) { loaded <- struct{}{} }).
		Return(nil).
		Once()

	service.Start(context.Background())
	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected initial load on start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := service.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
