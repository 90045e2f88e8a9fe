package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/diamond-plays/internal/domain/credential"
	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"github.com/riskibarqy/diamond-plays/internal/infrastructure/credstore"
	gamemock "github.com/riskibarqy/diamond-plays/internal/mocks/domain/game"
	gameplayermock "github.com/riskibarqy/diamond-plays/internal/mocks/domain/gameplayer"
	selectionmock "github.com/riskibarqy/diamond-plays/internal/mocks/domain/selection"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "token-123"

	gameOneID  = "65f1a0c2e4b0a1b2c3d4e501"
	gameTwoID  = "65f1a0c2e4b0a1b2c3d4e502"
	awayOneID  = "65f1a0c2e4b0a1b2c3d4e5a1"
	homeOneID  = "65f1a0c2e4b0a1b2c3d4e5b1"
	awayTwoID  = "65f1a0c2e4b0a1b2c3d4e5a2"
	homeTwoID  = "65f1a0c2e4b0a1b2c3d4e5b2"
	gpFirstID  = "65f1a0c2e4b0a1b2c3d4e601"
	gpSecondID = "65f1a0c2e4b0a1b2c3d4e602"
)

const anyCtx = mock.Anything

type testDeps struct {
	games      *gamemock.Repository
	players    *gameplayermock.Repository
	selections *selectionmock.Repository
	creds      *credstore.MemoryStore
}

func newTestService(t *testing.T, cfg GameDataConfig) (*GameDataService, testDeps) {
	t.Helper()

	deps := testDeps{
		games:      gamemock.NewRepository(t),
		players:    gameplayermock.NewRepository(t),
		selections: selectionmock.NewRepository(t),
		creds:      credstore.NewMemoryStore(0),
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	svc, err := NewGameDataService(deps.games, deps.players, deps.selections, deps.creds, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, deps
}

// storeToken makes the token readable without marking the service authenticated,
// so no selections sync or polling is triggered.
func storeToken(t *testing.T, deps testDeps) {
	t.Helper()
	require.NoError(t, deps.creds.Set(context.Background(), credential.TokenKey, testToken))
}

func sampleGames() []game.Game {
	return []game.Game{
		{
			ID:       gameOneID,
			Status:   game.StatusScheduled,
			AwayTeam: game.Team{ID: awayOneID, Abbreviation: "NYY"},
			HomeTeam: game.Team{ID: homeOneID, Abbreviation: "BOS"},
		},
		{
			ID:       gameTwoID,
			Status:   game.StatusScheduled,
			AwayTeam: game.Team{ID: awayTwoID, Abbreviation: "LAD"},
			HomeTeam: game.Team{ID: homeTwoID, Abbreviation: "SF"},
		},
	}
}

func rosterEntry(id, gameID, teamID string, battingOrder int) gameplayer.GamePlayer {
	return gameplayer.GamePlayer{
		ID:           id,
		Game:         gameplayer.Ref{ID: gameID},
		Team:         gameplayer.Ref{ID: teamID},
		BattingOrder: battingOrder,
	}
}

// cacheRoster loads a roster through FetchPlayers so SelectPlayer can resolve it.
func cacheRoster(t *testing.T, svc *GameDataService, deps testDeps, gameID, teamID string, roster ...gameplayer.GamePlayer) {
	t.Helper()

	deps.players.
		On("ListByGameTeam", anyCtx, testToken, gameID, teamID).
		Return(roster, nil).
		Once()
	require.NoError(t, svc.FetchPlayers(context.Background(), gameID, teamID))
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for signal")
	}
}
