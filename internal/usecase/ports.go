package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/match"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/standing"
)

// DataSource fetches league data from the upstream provider. Errors are returned
// to callers unchanged; no retry happens in this package.
type DataSource interface {
	Standings(ctx context.Context, l league.League) ([]standing.Standing, error)
	GroupedStandings(ctx context.Context, l league.League) ([]standing.Group, error)
	Fixtures(ctx context.Context, l league.League) ([]match.Match, error)
	Results(ctx context.Context, l league.League) ([]match.Match, error)
	LiveMatches(ctx context.Context, l league.League) ([]match.Match, error)
}

// Cache is the TTL store backing the dashboard read models.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, key string)
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (any, error)) (any, error)
}

// MatchTracker owns the per-match polling jobs.
type MatchTracker interface {
	ScheduleTracking(ctx context.Context, m match.Match, leagueID string)
	CancelTracking(matchID string)
	TrackedMatchIDs() []string
}

// RefreshFunc is invoked by a tracking job on every poll.
type RefreshFunc func(ctx context.Context, leagueID string) error

type refreshBinder interface {
	BindRefresh(fn RefreshFunc)
}

// LeagueRefresher is the subset of the dashboard used by background refresh.
type LeagueRefresher interface {
	RefreshUpcomingMatches(ctx context.Context, leagueID string) error
}
