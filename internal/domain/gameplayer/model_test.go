package gameplayer

import (
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
)

func TestGamePlayer_DecodesBothRefShapes(t *testing.T) {
	t.Parallel()

	raw := `[
		{"_id":"p1","game":"507f1f77bcf86cd799439011","team":{"_id":"507f1f77bcf86cd799439022","name":"Cubs"},"battingOrder":2},
		{"_id":"p2","game":{"_id":"507f1f77bcf86cd799439011"},"team":"507f1f77bcf86cd799439022","battingOrder":1,"player":{"_id":"x","name":"Ian Happ","position":"LF"}}
	]`

	var players []GamePlayer
	require.NoError(t, sonic.Unmarshal([]byte(raw), &players))
	require.Len(t, players, 2)

	require.Equal(t, "507f1f77bcf86cd799439011", players[0].Game.ID)
	require.False(t, players[0].Game.Populated)
	require.Equal(t, "507f1f77bcf86cd799439022", players[0].Team.ID)
	require.True(t, players[0].Team.Populated)

	require.Equal(t, "507f1f77bcf86cd799439011", players[1].Game.ID)
	require.True(t, players[1].Game.Populated)
	require.Equal(t, "Ian Happ", players[1].DisplayName())
	require.Equal(t, "LF", players[1].DisplayPosition())
}

func TestRef_RejectsNumbers(t *testing.T) {
	t.Parallel()

	var ref Ref
	require.Error(t, sonic.Unmarshal([]byte(`42`), &ref))
}

func TestSortByBattingOrder(t *testing.T) {
	t.Parallel()

	players := []GamePlayer{{ID: "c", BattingOrder: 3}, {ID: "a", BattingOrder: 1}, {ID: "b", BattingOrder: 2}}
	SortByBattingOrder(players)
	require.Equal(t, []string{"a", "b", "c"}, []string{players[0].ID, players[1].ID, players[2].ID})
}

func TestDisplayName_Fallback(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Unknown Player", GamePlayer{}.DisplayName())
	require.Equal(t, "Unknown Position", GamePlayer{}.DisplayPosition())
}
