package team

// LogoRegistry remembers the first logo seen for every team.
// Standings and results feeds often omit logos, fixtures rarely do.
type LogoRegistry interface {
	SetLogo(teamID, logoURL string)
	SetLogos(logos []Logo)
	Logo(teamID string) (string, bool)
	Logos() map[string]string
}
