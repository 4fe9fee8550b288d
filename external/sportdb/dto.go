package sportdb

// Flashscore payloads proxied by sportdb. Every scalar arrives as a string.

type fixtureDto struct {
	EventID            string `json:"eventId"`
	HomeParticipantIDs string `json:"homeParticipantIds"`
	HomeName           string `json:"homeName"`
	Home3CharName      string `json:"home3CharName"`
	HomeLogo           string `json:"homeLogo"`
	AwayParticipantIDs string `json:"awayParticipantIds"`
	AwayName           string `json:"awayName"`
	Away3CharName      string `json:"away3CharName"`
	AwayLogo           string `json:"awayLogo"`
	StartTime          string `json:"startTime"`
	EventStage         string `json:"eventStage"`
	EventStageID       string `json:"eventStageId"`
	Round              string `json:"round"`
	HomeScore          string `json:"homeScore"`
	AwayScore          string `json:"awayScore"`
	HomeFullTimeScore  string `json:"homeFullTimeScore"`
	AwayFullTimeScore  string `json:"awayFullTimeScore"`
	HomeResultPeriod1  string `json:"homeResultPeriod1"`
	AwayResultPeriod1  string `json:"awayResultPeriod1"`
	HomeResultPeriod2  string `json:"homeResultPeriod2"`
	AwayResultPeriod2  string `json:"awayResultPeriod2"`
	HomeResultPeriod3  string `json:"homeResultPeriod3"`
	AwayResultPeriod3  string `json:"awayResultPeriod3"`
	HomeResultPeriod4  string `json:"homeResultPeriod4"`
	AwayResultPeriod4  string `json:"awayResultPeriod4"`
	HomeResultPeriod5  string `json:"homeResultPeriod5"`
	AwayResultPeriod5  string `json:"awayResultPeriod5"`
}

func (d fixtureDto) periods() [5][2]string {
	return [5][2]string{
		{d.HomeResultPeriod1, d.AwayResultPeriod1},
		{d.HomeResultPeriod2, d.AwayResultPeriod2},
		{d.HomeResultPeriod3, d.AwayResultPeriod3},
		{d.HomeResultPeriod4, d.AwayResultPeriod4},
		{d.HomeResultPeriod5, d.AwayResultPeriod5},
	}
}

type standingDto struct {
	Rank           string `json:"rank"`
	TeamID         string `json:"teamId"`
	TeamName       string `json:"teamName"`
	TeamSlug       string `json:"teamSlug"`
	Matches        string `json:"matches"`
	Wins           string `json:"wins"`
	LossesRegular  string `json:"lossesRegular"`
	LossesOvertime string `json:"lossesOvertime"`
	Points         string `json:"points"`
	Goals          string `json:"goals"`
	GoalDiff       string `json:"goalDiff"`
	RankColor      string `json:"rankColor"`
	RankClass      string `json:"rankClass"`
}

type groupStandingDto struct {
	RoundType string        `json:"roundType"`
	Teams     []standingDto `json:"teams"`
}
