package sportdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/volleyball-dashboard/internal/domain/match"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/standing"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/team"
)

const (
	stageScheduled = "SCHEDULED"
	stageFinished  = "FINISHED"

	stageIDScheduled = "1"
	stageIDFinished  = "3"
)

func mapStatus(dto fixtureDto) match.Status {
	stage := strings.ToUpper(strings.TrimSpace(dto.EventStage))
	stageID := strings.TrimSpace(dto.EventStageID)

	switch {
	case stage == stageFinished || stageID == stageIDFinished:
		return match.StatusFinished
	case stage == stageScheduled || stageID == stageIDScheduled:
		return match.StatusUpcoming
	default:
		return match.StatusLive
	}
}

// mapMatch converts a fixture row. With logos set, registry logos take precedence over the row's own.
func mapMatch(dto fixtureDto, logos team.LogoRegistry) match.Match {
	home := team.Team{
		ID:        strings.TrimSpace(dto.HomeParticipantIDs),
		Name:      strings.TrimSpace(dto.HomeName),
		ShortName: strings.TrimSpace(dto.Home3CharName),
		LogoURL:   strings.TrimSpace(dto.HomeLogo),
	}
	away := team.Team{
		ID:        strings.TrimSpace(dto.AwayParticipantIDs),
		Name:      strings.TrimSpace(dto.AwayName),
		ShortName: strings.TrimSpace(dto.Away3CharName),
		LogoURL:   strings.TrimSpace(dto.AwayLogo),
	}
	if logos != nil {
		home = preferRegistryLogo(home, logos)
		away = preferRegistryLogo(away, logos)
	}

	startTime, _ := parseUnixSeconds(dto.StartTime)
	return match.Match{
		ID:        strings.TrimSpace(dto.EventID),
		HomeTeam:  home,
		AwayTeam:  away,
		StartTime: startTime,
		Status:    mapStatus(dto),
		Round:     strings.TrimSpace(dto.Round),
		Score:     parseScore(dto),
		SetScores: parseSetScores(dto),
	}
}

func preferRegistryLogo(t team.Team, logos team.LogoRegistry) team.Team {
	if logo, ok := logos.Logo(t.ID); ok {
		return t.WithLogo(logo)
	}
	return t
}

func parseScore(dto fixtureDto) *match.Score {
	home, okHome := parseInt(firstNonEmpty(dto.HomeFullTimeScore, dto.HomeScore))
	away, okAway := parseInt(firstNonEmpty(dto.AwayFullTimeScore, dto.AwayScore))
	if !okHome || !okAway {
		return nil
	}
	return &match.Score{Home: home, Away: away}
}

func parseSetScores(dto fixtureDto) []match.SetScore {
	var out []match.SetScore
	for i, period := range dto.periods() {
		home, okHome := parseInt(period[0])
		away, okAway := parseInt(period[1])
		if !okHome || !okAway {
			continue
		}
		out = append(out, match.SetScore{Number: i + 1, Home: home, Away: away})
	}
	return out
}

func mapStanding(dto standingDto, logos team.LogoRegistry) standing.Standing {
	t := team.Team{
		ID:   strings.TrimSpace(dto.TeamID),
		Name: strings.TrimSpace(dto.TeamName),
		Slug: strings.TrimSpace(dto.TeamSlug),
	}
	if logos != nil {
		if logo, ok := logos.Logo(t.ID); ok {
			t.LogoURL = logo
		}
	}

	return standing.Standing{
		Rank:      parseIntOrZero(dto.Rank),
		Team:      t,
		Matches:   parseIntOrZero(dto.Matches),
		Wins:      parseIntOrZero(dto.Wins),
		Losses:    parseIntOrZero(dto.LossesRegular) + parseIntOrZero(dto.LossesOvertime),
		Points:    parseIntOrZero(dto.Points),
		SetsRatio: firstNonEmpty(strings.TrimSpace(dto.Goals), "0:0"),
		SetsDiff:  parseIntOrZero(dto.GoalDiff),
		RankColor: strings.TrimSpace(dto.RankColor),
		RankClass: strings.TrimSpace(dto.RankClass),
	}
}

func mapStandings(rows []standingDto, logos team.LogoRegistry) []standing.Standing {
	out := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapStanding(row, logos))
	}
	return out
}

func mapGroups(rows []groupStandingDto, logos team.LogoRegistry) []standing.Group {
	out := make([]standing.Group, 0, len(rows))
	for _, row := range rows {
		out = append(out, standing.Group{
			Name:      strings.TrimSpace(row.RoundType),
			Standings: mapStandings(row.Teams, logos),
		})
	}
	return out
}

// fixtureLogos lists the first logo of every team seen in rows.
func fixtureLogos(rows []fixtureDto) []team.Logo {
	seen := make(map[string]struct{}, len(rows)*2)
	out := make([]team.Logo, 0, len(rows)*2)
	add := func(teamID, logoURL string) {
		teamID, logoURL = strings.TrimSpace(teamID), strings.TrimSpace(logoURL)
		if teamID == "" || logoURL == "" {
			return
		}
		if _, ok := seen[teamID]; ok {
			return
		}
		seen[teamID] = struct{}{}
		out = append(out, team.Logo{TeamID: teamID, URL: logoURL})
	}
	for _, row := range rows {
		add(row.HomeParticipantIDs, row.HomeLogo)
		add(row.AwayParticipantIDs, row.AwayLogo)
	}
	return out
}

func parseUnixSeconds(value string) (time.Time, bool) {
	seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(seconds, 0).UTC(), true
}

func parseInt(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseIntOrZero(value string) int {
	n, _ := parseInt(value)
	return n
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
