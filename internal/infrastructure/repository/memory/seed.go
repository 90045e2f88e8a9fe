package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
)

const (
	DemoUserID   = "65f000000000000000000001"
	DemoEmail    = "demo@diamondplays.dev"
	DemoPassword = "letmein"
	DemoToken    = "demo-token"
)

type seedTeam struct {
	abbreviation string
	city         string
	name         string
	league       string
	division     string
}

var seedMatchups = [][2]seedTeam{
	{
		{abbreviation: "NYY", city: "New York", name: "Yankees", league: "AL", division: "East"},
		{abbreviation: "BOS", city: "Boston", name: "Red Sox", league: "AL", division: "East"},
	},
	{
		{abbreviation: "LAD", city: "Los Angeles", name: "Dodgers", league: "NL", division: "West"},
		{abbreviation: "SF", city: "San Francisco", name: "Giants", league: "NL", division: "West"},
	},
	{
		{abbreviation: "CHC", city: "Chicago", name: "Cubs", league: "NL", division: "Central"},
		{abbreviation: "STL", city: "St. Louis", name: "Cardinals", league: "NL", division: "Central"},
	},
}

var seedPositions = []string{"CF", "SS", "RF", "1B", "DH", "3B", "LF", "C", "2B"}

// ObjectID renders n as a 24 character hex id, so seeded ids pass client validation.
func ObjectID(n int) string {
	return fmt.Sprintf("%024x", n)
}

// SeedSlate schedules the demo matchups on each date, with a nine man lineup
// per team. Ids are deterministic per date index.
func SeedSlate(ctx context.Context, board *BoardRepository, dates ...string) {
	for d, date := range dates {
		for m, matchup := range seedMatchups {
			base := 0x100000 + d*0x10000 + m*0x100
			away := seedTeamRecord(matchup[0], base+1)
			home := seedTeamRecord(matchup[1], base+2)
			g := game.Game{
				ID:       ObjectID(base),
				Season:   seasonOf(date),
				Date:     date,
				DateTime: fmt.Sprintf("%sT%02d:05:00Z", date, 17+m*2),
				AwayTeam: away,
				HomeTeam: home,
				Status:   game.StatusScheduled,
				GamePK:   int64(base),
			}
			board.AddGame(ctx, g, seedLineup(g.ID, away, base+0x10), seedLineup(g.ID, home, base+0x20))
		}
	}
}

func seedTeamRecord(t seedTeam, n int) game.Team {
	return game.Team{
		ID:           ObjectID(n),
		Name:         t.city + " " + t.name,
		Abbreviation: t.abbreviation,
		City:         t.city,
		TeamName:     t.name,
		League:       t.league,
		Division:     t.division,
	}
}

func seedLineup(gameID string, team game.Team, base int) []gameplayer.GamePlayer {
	lineup := make([]gameplayer.GamePlayer, 0, len(seedPositions))
	for i, position := range seedPositions {
		lineup = append(lineup, gameplayer.GamePlayer{
			ID:           ObjectID(base + i),
			Game:         gameplayer.Ref{ID: gameID},
			Team:         gameplayer.Ref{ID: team.ID},
			BattingOrder: i + 1,
			Name:         fmt.Sprintf("%s Batter %d", team.Abbreviation, i+1),
			Position:     position,
			Player: &gameplayer.Player{
				ID:       ObjectID(base + i + 0x1000000),
				Name:     fmt.Sprintf("%s Batter %d", team.Abbreviation, i+1),
				Position: position,
				Team:     team.ID,
			},
		})
	}
	return lineup
}

// SeedAccounts registers the demo account and its fixed token.
func SeedAccounts(ctx context.Context, accounts *AccountRepository) {
	accounts.AddAccount(ctx, DemoUserID, DemoEmail, DemoPassword)
	accounts.AddToken(ctx, DemoToken, DemoUserID)
}

func seasonOf(date string) string {
	if len(date) < 4 {
		return date
	}
	return date[:4]
}
