package httpapi

import (
	"sort"
	"time"

	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/match"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/standing"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/team"
	"github.com/riskibarqy/volleyball-dashboard/internal/usecase"
)

type leagueDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	Season      string `json:"season"`
	Type        string `json:"type"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

type teamDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName,omitempty"`
	LogoURL   string `json:"logoUrl,omitempty"`
}

type scoreDTO struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type setScoreDTO struct {
	Number int `json:"number"`
	Home   int `json:"home"`
	Away   int `json:"away"`
}

type matchDTO struct {
	ID        string        `json:"id"`
	HomeTeam  teamDTO       `json:"homeTeam"`
	AwayTeam  teamDTO       `json:"awayTeam"`
	StartTime string        `json:"startTime"`
	Status    string        `json:"status"`
	Round     string        `json:"round,omitempty"`
	Score     *scoreDTO     `json:"score,omitempty"`
	SetScores []setScoreDTO `json:"setScores,omitempty"`
}

type standingDTO struct {
	Rank      int     `json:"rank"`
	Team      teamDTO `json:"team"`
	Matches   int     `json:"matches"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Points    int     `json:"points"`
	SetsRatio string  `json:"setsRatio"`
	SetsDiff  int     `json:"setsDiff"`
	RankColor string  `json:"rankColor,omitempty"`
	RankClass string  `json:"rankClass,omitempty"`
}

type groupDTO struct {
	Name      string        `json:"name"`
	Standings []standingDTO `json:"standings"`
}

type dashboardDTO struct {
	League     leagueDTO     `json:"league"`
	Standings  []standingDTO `json:"standings"`
	Groups     []groupDTO    `json:"groups,omitempty"`
	Upcoming   []matchDTO    `json:"upcoming"`
	Active     []matchDTO    `json:"active"`
	Previous   []matchDTO    `json:"previous"`
	CapturedAt string        `json:"capturedAt"`
}

type refreshResultDTO struct {
	LeagueID string `json:"leagueId"`
	Kind     string `json:"kind"`
}

type trackingJobDTO struct {
	ID       string `json:"id"`
	MatchID  string `json:"matchId"`
	LeagueID string `json:"leagueId"`
	State    string `json:"state"`
}

type teamLogoDTO struct {
	TeamID  string `json:"teamId"`
	LogoURL string `json:"logoUrl"`
}

func leagueToDTO(v league.League) leagueDTO {
	typ := v.Type
	if typ == "" {
		typ = league.TypeStandard
	}
	return leagueDTO{
		ID:          v.ID,
		Name:        v.Name,
		Country:     v.Country,
		CountryCode: v.CountryCode,
		Season:      v.Season,
		Type:        string(typ),
		LogoURL:     v.LogoURL,
	}
}

func teamToDTO(v team.Team) teamDTO {
	return teamDTO{
		ID:        v.ID,
		Name:      v.Name,
		ShortName: v.ShortName,
		LogoURL:   v.LogoURL,
	}
}

func matchToDTO(v match.Match) matchDTO {
	out := matchDTO{
		ID:        v.ID,
		HomeTeam:  teamToDTO(v.HomeTeam),
		AwayTeam:  teamToDTO(v.AwayTeam),
		StartTime: formatTime(v.StartTime),
		Status:    string(v.Status),
		Round:     v.Round,
	}
	if v.Score != nil {
		out.Score = &scoreDTO{Home: v.Score.Home, Away: v.Score.Away}
	}
	if len(v.SetScores) > 0 {
		out.SetScores = make([]setScoreDTO, 0, len(v.SetScores))
		for _, set := range v.SetScores {
			out.SetScores = append(out.SetScores, setScoreDTO{Number: set.Number, Home: set.Home, Away: set.Away})
		}
	}
	return out
}

func matchesToDTO(items []match.Match) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	return out
}

func standingToDTO(v standing.Standing) standingDTO {
	return standingDTO{
		Rank:      v.Rank,
		Team:      teamToDTO(v.Team),
		Matches:   v.Matches,
		Wins:      v.Wins,
		Losses:    v.Losses,
		Points:    v.Points,
		SetsRatio: v.SetsRatio,
		SetsDiff:  v.SetsDiff,
		RankColor: v.RankColor,
		RankClass: v.RankClass,
	}
}

func standingsToDTO(items []standing.Standing) []standingDTO {
	out := make([]standingDTO, 0, len(items))
	for _, item := range items {
		out = append(out, standingToDTO(item))
	}
	return out
}

func dashboardToDTO(v usecase.Dashboard) dashboardDTO {
	out := dashboardDTO{
		League:     leagueToDTO(v.League),
		Standings:  standingsToDTO(v.Standings),
		Upcoming:   matchesToDTO(v.Upcoming),
		Active:     matchesToDTO(v.Active),
		Previous:   matchesToDTO(v.Previous),
		CapturedAt: formatTime(v.CapturedAt),
	}
	for _, group := range v.Groups {
		out.Groups = append(out.Groups, groupDTO{
			Name:      group.Name,
			Standings: standingsToDTO(group.Standings),
		})
	}
	return out
}

func trackingJobToDTO(v usecase.TrackingJob) trackingJobDTO {
	state := "pending"
	if v.Active {
		state = "active"
	}
	return trackingJobDTO{
		ID:       v.ID,
		MatchID:  v.MatchID,
		LeagueID: v.LeagueID,
		State:    state,
	}
}

// teamLogosToDTO lists logos ordered by team id.
func teamLogosToDTO(logos map[string]string) []teamLogoDTO {
	out := make([]teamLogoDTO, 0, len(logos))
	for teamID, logoURL := range logos {
		out = append(out, teamLogoDTO{TeamID: teamID, LogoURL: logoURL})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TeamID < out[j].TeamID
	})
	return out
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
