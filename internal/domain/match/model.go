package match

import (
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/volleyball-dashboard/internal/domain/team"
)

// Status is the match phase reported by the data source.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// Match is one volleyball fixture between two teams.
type Match struct {
	ID        string
	HomeTeam  team.Team
	AwayTeam  team.Team
	StartTime time.Time
	Status    Status
	Round     string
	Score     *Score
	SetScores []SetScore
}

// Score is the match result counted in sets won.
type Score struct {
	Home int
	Away int
}

// SetScore holds the points of one set. Number starts at 1.
type SetScore struct {
	Number int
	Home   int
	Away   int
}

func ParseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusLive:
		return StatusLive
	case StatusFinished:
		return StatusFinished
	default:
		return StatusUpcoming
	}
}

func (m Match) IsUpcoming() bool { return m.Status == StatusUpcoming }
func (m Match) IsLive() bool     { return m.Status == StatusLive }
func (m Match) IsFinished() bool { return m.Status == StatusFinished }

// Filter returns a new slice holding the matches for which keep is true.
func Filter(items []Match, keep func(Match) bool) []Match {
	out := make([]Match, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// SortByStart sorts in place; ties keep their input order.
func SortByStart(items []Match, descending bool) {
	slices.SortStableFunc(items, func(a, b Match) int {
		cmp := a.StartTime.Compare(b.StartTime)
		if descending {
			return -cmp
		}
		return cmp
	})
}

// IDs lists match identifiers in input order.
func IDs(items []Match) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
