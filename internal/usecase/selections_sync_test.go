package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func noSelection(deps testDeps, gameID, teamID string) *mock.Call {
	return deps.selections.
		On("GetByGameTeam", anyCtx, testToken, gameID, teamID).
		Return(selection.Selection{}, false, nil)
}

func TestGameDataService_SyncSelections_HydratesAfterGamesChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, deps := newTestService(t, GameDataConfig{})
	require.NoError(t, svc.Login(ctx, testToken))

	picked := gameplayer.GamePlayer{ID: gpFirstID, BattingOrder: 2}
	deps.games.On("ListByDate", anyCtx, testToken, mock.Anything).Return(sampleGames(), nil).Once()
	deps.selections.
		On("GetByGameTeam", anyCtx, testToken, gameOneID, awayOneID).
		Return(selection.Selection{ID: "sel-1", GamePlayer: selection.EntryRef{ID: gpFirstID, Entry: &picked}}, true, nil).
		Once()
	deps.selections.
		On("GetByGameTeam", anyCtx, testToken, gameOneID, homeOneID).
		Return(selection.Selection{}, false, errors.New("internal error")).
		Once()
	noSelection(deps, gameTwoID, awayTwoID).Once()
	deps.selections.
		On("GetByGameTeam", anyCtx, testToken, gameTwoID, homeTwoID).
		Return(selection.Selection{
			ID:         "sel-4",
			GamePlayer: selection.EntryRef{ID: gpSecondID},
			Game:       gameplayer.Ref{ID: gameTwoID},
			Team:       gameplayer.Ref{ID: homeTwoID},
		}, true, nil).
		Once()

	require.NoError(t, svc.RefreshGames(ctx))

	snap := svc.Snapshot()
	require.Len(t, snap.SelectedPlayers, 2, "a failed lookup counts as no selection")
	require.Equal(t, gpFirstID, snap.SelectedPlayers[awayOneID].ID)
	require.Equal(t, 2, snap.SelectedPlayers[awayOneID].BattingOrder)
	require.Equal(t, gpSecondID, snap.SelectedPlayers[homeTwoID].ID)
	require.Equal(t, homeTwoID, snap.SelectedPlayers[homeTwoID].Team.ID)
}

func TestGameDataService_SyncSelections_OnlyWhenGameIDsChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, deps := newTestService(t, GameDataConfig{})
	require.NoError(t, svc.Login(ctx, testToken))

	deps.games.On("ListByDate", anyCtx, testToken, mock.Anything).Return(sampleGames(), nil).Times(2)
	for _, g := range sampleGames() {
		for _, teamID := range g.TeamIDs() {
			noSelection(deps, g.ID, teamID).Once()
		}
	}

	require.NoError(t, svc.RefreshGames(ctx))
	require.NoError(t, svc.RefreshGames(ctx), "same id sequence, no second hydration")
	deps.selections.AssertNumberOfCalls(t, "GetByGameTeam", 4)
}

func TestGameDataService_RefreshAllData_AlwaysSyncs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, deps := newTestService(t, GameDataConfig{})
	require.NoError(t, svc.Login(ctx, testToken))

	deps.games.On("ListByDate", anyCtx, testToken, mock.Anything).Return(sampleGames(), nil).Times(2)
	for _, g := range sampleGames() {
		for _, teamID := range g.TeamIDs() {
			noSelection(deps, g.ID, teamID).Times(2)
		}
	}

	require.NoError(t, svc.RefreshAllData(ctx))
	require.NoError(t, svc.RefreshAllData(ctx))
	deps.selections.AssertNumberOfCalls(t, "GetByGameTeam", 8)
}

func TestGameDataService_SyncSelections_SkipsWhenSignedOut(t *testing.T) {
	t.Parallel()

	svc, deps := newTestService(t, GameDataConfig{})
	storeToken(t, deps)

	deps.games.On("ListByDate", anyCtx, testToken, mock.Anything).Return(sampleGames(), nil).Once()
	require.NoError(t, svc.RefreshGames(context.Background()))
	require.NoError(t, svc.SyncSelections(context.Background()))

	deps.selections.AssertNumberOfCalls(t, "GetByGameTeam", 0)
}

func TestGameDataService_SyncSelections_KeepsWritesMadeDuringSync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, deps := newTestService(t, GameDataConfig{})
	require.NoError(t, svc.Login(ctx, testToken))

	oneGame := []game.Game{sampleGames()[0]}
	deps.games.On("ListByDate", anyCtx, testToken, mock.Anything).Return(oneGame, nil).Once()
	noSelection(deps, gameOneID, awayOneID).Once()
	noSelection(deps, gameOneID, homeOneID).Times(2)

	started := make(chan struct{})
	release := make(chan struct{})
	stale := gameplayer.GamePlayer{ID: gpFirstID}
	deps.selections.
		On("GetByGameTeam", anyCtx, testToken, gameOneID, awayOneID).
		Return(func(ctx context.Context, _, _, _ string) (selection.Selection, bool, error) {
			close(started)
			<-release
			return selection.Selection{ID: "sel-stale", GamePlayer: selection.EntryRef{ID: gpFirstID, Entry: &stale}}, true, nil
		}, false, nil).
		Once()

	require.NoError(t, svc.RefreshGames(ctx))

	syncDone := make(chan error, 1)
	go func() { syncDone <- svc.SyncSelections(ctx) }()
	waitFor(t, started)

	cacheRoster(t, svc, deps, gameOneID, awayOneID, rosterEntry(gpSecondID, gameOneID, awayOneID, 4))
	deps.selections.On("Create", anyCtx, testToken, gpSecondID).Return(selection.Selection{ID: "sel-new"}, nil).Once()
	require.NoError(t, svc.SelectPlayer(ctx, gpSecondID))

	close(release)
	require.NoError(t, <-syncDone)

	require.Equal(t, gpSecondID, svc.Snapshot().SelectedPlayers[awayOneID].ID)
}

func TestGameDataService_Logout_ClearsSelections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, deps := newTestService(t, GameDataConfig{})
	require.NoError(t, svc.Login(ctx, testToken))

	picked := gameplayer.GamePlayer{ID: gpFirstID}
	oneGame := []game.Game{sampleGames()[0]}
	deps.games.On("ListByDate", anyCtx, testToken, mock.Anything).Return(oneGame, nil).Once()
	deps.selections.
		On("GetByGameTeam", anyCtx, testToken, gameOneID, awayOneID).
		Return(selection.Selection{ID: "sel-1", GamePlayer: selection.EntryRef{ID: gpFirstID, Entry: &picked}}, true, nil).
		Once()
	noSelection(deps, gameOneID, homeOneID).Once()

	require.NoError(t, svc.RefreshGames(ctx))
	require.Len(t, svc.Snapshot().SelectedPlayers, 1)
	require.True(t, svc.poller.Running())

	require.NoError(t, svc.Logout(ctx))

	snap := svc.Snapshot()
	require.False(t, snap.Authenticated)
	require.Empty(t, snap.SelectedPlayers)
	require.False(t, svc.poller.Running())

	authenticated, err := svc.CheckAuth(ctx)
	require.NoError(t, err)
	require.False(t, authenticated)
}
