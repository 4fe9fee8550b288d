package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
)

// LeagueRepository holds the league configuration. It is built once and never mutated,
// so reads need no locking.
type LeagueRepository struct {
	items  map[string]league.League
	orders []string
}

func NewLeagueRepository(leagues []league.League) (*LeagueRepository, error) {
	items := make(map[string]league.League, len(leagues))
	orders := make([]string, 0, len(leagues))

	for _, l := range leagues {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if l.Type == "" {
			l.Type = league.TypeStandard
		}
		key := normalizeLeagueID(l.ID)
		if _, exists := items[key]; exists {
			return nil, fmt.Errorf("duplicate league id %q", l.ID)
		}
		items[key] = l
		orders = append(orders, key)
	}

	return &LeagueRepository{
		items:  items,
		orders: orders,
	}, nil
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	out := make([]league.League, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}

	return out, nil
}

// GetByID matches ids case-insensitively.
func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	l, ok := r.items[normalizeLeagueID(leagueID)]
	if !ok {
		return league.League{}, false, nil
	}

	return l, true, nil
}

func normalizeLeagueID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
