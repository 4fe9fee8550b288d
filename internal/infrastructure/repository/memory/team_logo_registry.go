package memory

import (
	"strings"
	"sync"

	"github.com/riskibarqy/volleyball-dashboard/internal/domain/team"
)

// TeamLogoRegistry is a first-write-wins map from team id to logo URL.
type TeamLogoRegistry struct {
	mu    sync.RWMutex
	logos map[string]string
}

func NewTeamLogoRegistry() *TeamLogoRegistry {
	return &TeamLogoRegistry{logos: make(map[string]string)}
}

func (r *TeamLogoRegistry) SetLogo(teamID, logoURL string) {
	teamID, logoURL = strings.TrimSpace(teamID), strings.TrimSpace(logoURL)
	if teamID == "" || logoURL == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.logos[teamID]; !exists {
		r.logos[teamID] = logoURL
	}
}

func (r *TeamLogoRegistry) SetLogos(logos []team.Logo) {
	if len(logos) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range logos {
		teamID, logoURL := strings.TrimSpace(item.TeamID), strings.TrimSpace(item.URL)
		if teamID == "" || logoURL == "" {
			continue
		}
		if _, exists := r.logos[teamID]; !exists {
			r.logos[teamID] = logoURL
		}
	}
}

func (r *TeamLogoRegistry) Logo(teamID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logoURL, ok := r.logos[strings.TrimSpace(teamID)]
	return logoURL, ok
}

func (r *TeamLogoRegistry) Logos() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.logos))
	for teamID, logoURL := range r.logos {
		out[teamID] = logoURL
	}
	return out
}

var _ team.LogoRegistry = (*TeamLogoRegistry)(nil)
