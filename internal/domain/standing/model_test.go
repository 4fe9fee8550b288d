package standing

import (
	"testing"

	"github.com/riskibarqy/volleyball-dashboard/internal/domain/team"
)

func TestWithTeamLogoReturnsCopy(t *testing.T) {
	t.Parallel()

	original := Standing{Rank: 1, Team: team.Team{ID: "t1", Name: "Jastrzebski Wegiel"}}
	enriched := original.WithTeamLogo("https://static.example/t1.png")

	if enriched.Team.LogoURL != "https://static.example/t1.png" {
		t.Fatalf("unexpected logo: %q", enriched.Team.LogoURL)
	}
	if original.Team.LogoURL != "" {
		t.Fatalf("original standing must not change, got logo %q", original.Team.LogoURL)
	}
}
