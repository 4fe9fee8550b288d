package memory

import "github.com/riskibarqy/volleyball-dashboard/internal/domain/league"

const (
	LeagueIDPlusLiga = "plusliga"

	plusLigaBasePath = "/api/flashscore/volleyball/poland:154/plusliga:jNqF318i"
	plusLigaSeason   = "2025-2026"
)

func SeedLeagues() []league.League {
	return []league.League{
		{
			ID:                LeagueIDPlusLiga,
			Name:              "PlusLiga",
			Country:           "Poland",
			CountryCode:       "154",
			Season:            plusLigaSeason,
			StandingsEndpoint: plusLigaBasePath + "/" + plusLigaSeason + "/standings",
			FixturesEndpoint:  plusLigaBasePath + "/" + plusLigaSeason + "/fixtures",
			ResultsEndpoint:   plusLigaBasePath + "/" + plusLigaSeason + "/results",
			LiveEndpoint:      plusLigaBasePath + "/live",
			Type:              league.TypeStandard,
		},
	}
}
