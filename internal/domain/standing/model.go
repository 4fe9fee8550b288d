package standing

import "github.com/riskibarqy/volleyball-dashboard/internal/domain/team"

// Standing is one row of a league table.
type Standing struct {
	Rank      int
	Team      team.Team
	Matches   int
	Wins      int
	Losses    int
	Points    int
	SetsRatio string
	SetsDiff  int
	RankColor string
	RankClass string
}

// Group is a named table used by group-stage competitions.
type Group struct {
	Name      string
	Standings []Standing
}

// WithTeamLogo returns a copy of s whose team carries logoURL.
func (s Standing) WithTeamLogo(logoURL string) Standing {
	s.Team = s.Team.WithLogo(logoURL)
	return s
}
