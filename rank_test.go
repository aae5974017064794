package skillboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FormatSkill(t *testing.T) {
	assert.Equal(t, "50", FormatSkill(5.0, false))
	assert.Equal(t, "50", FormatSkill(4.96, false))
	assert.Equal(t, "49", FormatSkill(4.94, false))
	assert.Equal(t, "0", FormatSkill(0, false))
	assert.Equal(t, "*", FormatSkill(5.0, true))
}

func Test_GetRankedPlayers_CompetitionRanking(t *testing.T) {
	players := []*BoardPlayer{
		{Username: "a", PrintName: "A", Skill: 5.0},
		{Username: "b", PrintName: "B", Skill: 5.0},
		{Username: "c", PrintName: "C", Skill: 4.0},
		{Username: "d", PrintName: "D", Skill: 3.0},
		{Username: "e", PrintName: "E", Skill: 3.0},
	}

	ranked := GetRankedPlayers(players)
	assert.Equal(t, 5, len(ranked))

	// tied players share a rank, the next distinct score skips past them
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, rankedUsernames(ranked))
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[1].Rank)
	assert.Equal(t, 3, ranked[2].Rank)
	assert.Equal(t, 4, ranked[3].Rank)
	assert.Equal(t, 4, ranked[4].Rank)
}

func Test_GetRankedPlayers_TiesByDisplaySkill(t *testing.T) {
	// distinct raw skills that round to the same displayed score are a tie
	players := []*BoardPlayer{
		{Username: "a", PrintName: "A", Skill: 5.04},
		{Username: "b", PrintName: "B", Skill: 4.96},
		{Username: "c", PrintName: "C", Skill: 4.0},
	}

	ranked := GetRankedPlayers(players)
	assert.Equal(t, "50", ranked[0].DisplaySkill)
	assert.Equal(t, "50", ranked[1].DisplaySkill)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[1].Rank)
	assert.Equal(t, 3, ranked[2].Rank)
}

func Test_GetRankedPlayers_ProvisionalUnranked(t *testing.T) {
	players := []*BoardPlayer{
		{Username: "rookie", PrintName: "Rookie", Skill: 9.9, IsProvisional: true},
		{Username: "veteran", PrintName: "Veteran", Skill: 1.0},
	}

	ranked := GetRankedPlayers(players)

	// provisional players sort after every ranked player regardless of skill
	assert.Equal(t, "veteran", ranked[0].Username)
	assert.Equal(t, 1, ranked[0].Rank)

	assert.Equal(t, "rookie", ranked[1].Username)
	assert.Equal(t, "*", ranked[1].DisplaySkill)
	assert.Equal(t, UnsetValue, ranked[1].Rank)
}

func Test_GetRankedPlayers_InputOrderIndependent(t *testing.T) {
	players := []*BoardPlayer{
		{Username: "a", PrintName: "A", Skill: 5.0},
		{Username: "b", PrintName: "B", Skill: 4.0},
		{Username: "c", PrintName: "C", Skill: 5.0},
		{Username: "d", PrintName: "D", Skill: 3.0, IsProvisional: true},
	}
	reversed := []*BoardPlayer{players[3], players[2], players[1], players[0]}

	assert.Equal(t, rankedUsernames(GetRankedPlayers(players)), rankedUsernames(GetRankedPlayers(reversed)))

	// the input slice itself is left untouched
	assert.Equal(t, "a", players[0].Username)
}

func Test_GetRankedPlayers_NameTiebreak(t *testing.T) {
	players := []*BoardPlayer{
		{Username: "zed", PrintName: "Zed", Skill: 5.0},
		{Username: "amy", PrintName: "Amy", Skill: 5.0},
	}

	ranked := GetRankedPlayers(players)
	assert.Equal(t, []string{"amy", "zed"}, rankedUsernames(ranked))
}

func Test_FindRankedPlayer(t *testing.T) {
	ranked := GetRankedPlayers([]*BoardPlayer{
		{Username: "a", PrintName: "A", Skill: 5.0},
		{Username: "b", PrintName: "B", Skill: 4.0},
	})

	found, ok := FindRankedPlayer(ranked, "b")
	assert.True(t, ok)
	assert.Equal(t, "b", found.Username)

	found, ok = FindRankedPlayer(ranked, "nobody")
	assert.False(t, ok)
	assert.Nil(t, found)
}

func rankedUsernames(ranked []*RankedPlayer) []string {
	usernames := make([]string, 0, len(ranked))
	for _, rankedPlayer := range ranked {
		usernames = append(usernames, rankedPlayer.Username)
	}
	return usernames
}
