package team

import "strings"

// Team is a volleyball club as reported by the data source.
type Team struct {
	ID        string
	Name      string
	ShortName string
	LogoURL   string
	Slug      string
}

func (t Team) HasLogo() bool {
	return strings.TrimSpace(t.LogoURL) != ""
}

func (t Team) WithLogo(logoURL string) Team {
	t.LogoURL = logoURL
	return t
}

// Logo pairs a team identifier with an image reference.
type Logo struct {
	TeamID string
	URL    string
}
