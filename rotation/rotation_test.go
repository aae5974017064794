package teamrotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Controller_InvalidOptions(t *testing.T) {
	// no options
	controller, err := NewController(nil)
	assert.Nil(t, controller, "controller should not be created")
	assert.ErrorIs(t, err, ErrControllerNoOptions)

	// non-positive counts
	controller, err = NewController(&ControllerOptions{MaxTeams: 0, MaxPlayersPerTeam: 2, MinPlayersPerTeam: 1})
	assert.Nil(t, controller)
	assert.ErrorIs(t, err, ErrControllerInvalidOptions)

	controller, err = NewController(&ControllerOptions{MaxTeams: 2, MaxPlayersPerTeam: 0, MinPlayersPerTeam: 1})
	assert.Nil(t, controller)
	assert.ErrorIs(t, err, ErrControllerInvalidOptions)

	// min > max
	controller, err = NewController(&ControllerOptions{MaxTeams: 2, MaxPlayersPerTeam: 1, MinPlayersPerTeam: 2})
	assert.Nil(t, controller)
	assert.ErrorIs(t, err, ErrControllerInvalidOptions)

	// ties are only defined between single players
	controller, err = NewController(&ControllerOptions{MaxTeams: 2, MaxPlayersPerTeam: 2, MinPlayersPerTeam: 1, CanTie: true})
	assert.Nil(t, controller)
	assert.ErrorIs(t, err, ErrControllerTieConflict)

	// ties with single-player teams are fine
	controller, err = NewController(&ControllerOptions{MaxTeams: 2, MaxPlayersPerTeam: 1, MinPlayersPerTeam: 1, CanTie: true})
	assert.NoError(t, err)
	assert.NotNil(t, controller)
}

func Test_Rotate_SinglePlayerCycle(t *testing.T) {
	controller, err := NewController(&ControllerOptions{MaxTeams: 2, MaxPlayersPerTeam: 2, MinPlayersPerTeam: 1})
	assert.NoError(t, err)

	// unassigned -> team 0
	assignment := controller.Rotate(NewAssignment(), "alice")
	assert.Equal(t, Assignment{"alice": 0}, assignment)

	// team 0 -> unassigned (team 1 is never offered while team 0 is empty)
	assignment = controller.Rotate(assignment, "alice")
	assert.Equal(t, Assignment{}, assignment)

	// unassigned -> team 0 again, the cycle is finite and repeats
	assignment = controller.Rotate(assignment, "alice")
	assert.Equal(t, Assignment{"alice": 0}, assignment)
}

func Test_Rotate_EvenFill(t *testing.T) {
	controller, err := NewController(&ControllerOptions{MaxTeams: 2, MaxPlayersPerTeam: 2, MinPlayersPerTeam: 1})
	assert.NoError(t, err)

	assignment := NewAssignment()

	assignment = controller.Rotate(assignment, "a")
	assert.Equal(t, Assignment{"a": 0}, assignment)

	// team 1 needs a player, team 0 already has one
	assignment = controller.Rotate(assignment, "b")
	assert.Equal(t, Assignment{"a": 0, "b": 1}, assignment)

	// team 0 is still below max
	assignment = controller.Rotate(assignment, "c")
	assert.Equal(t, Assignment{"a": 0, "b": 1, "c": 0}, assignment)

	assignment = controller.Rotate(assignment, "d")
	assert.Equal(t, Assignment{"a": 0, "b": 1, "c": 0, "d": 1}, assignment)

	// both teams are full, a fifth player stays unassigned
	assignment = controller.Rotate(assignment, "e")
	assert.Equal(t, Assignment{"a": 0, "b": 1, "c": 0, "d": 1}, assignment)
	_, assigned := assignment["e"]
	assert.False(t, assigned, "player e should stay unassigned")
}

func Test_Rotate_CollapsesTeamIndexes(t *testing.T) {
	controller, err := NewController(&ControllerOptions{MaxTeams: 3, MaxPlayersPerTeam: 1, MinPlayersPerTeam: 1})
	assert.NoError(t, err)

	// alice leaves team 0 for team 2, the remaining indexes are renumbered
	assignment := Assignment{"alice": 0, "bob": 1}
	assignment = controller.Rotate(assignment, "alice")
	assert.Equal(t, Assignment{"bob": 0, "alice": 1}, assignment)
}

func Test_Rotate_OccupiedIndexesNeverSparse(t *testing.T) {
	controller, err := NewController(&ControllerOptions{MaxTeams: 3, MaxPlayersPerTeam: 2, MinPlayersPerTeam: 1})
	assert.NoError(t, err)

	players := []string{"a", "b", "c", "d", "e"}
	assignment := NewAssignment()

	// rotate every player a few times, occupied indexes must stay contiguous from 0
	for round := 0; round < 4; round++ {
		for _, playerID := range players {
			assignment = controller.Rotate(assignment, playerID)

			occupied := make(map[int]bool)
			maxIdx := -1
			for _, teamIdx := range assignment {
				occupied[teamIdx] = true
				if teamIdx > maxIdx {
					maxIdx = teamIdx
				}
			}
			for teamIdx := 0; teamIdx <= maxIdx; teamIdx++ {
				assert.True(t, occupied[teamIdx], "occupied team indexes should be contiguous")
			}
		}
	}
}

func Test_Rotate_NeverOpensTeamBeforePrevious(t *testing.T) {
	controller, err := NewController(&ControllerOptions{MaxTeams: 3, MaxPlayersPerTeam: 2, MinPlayersPerTeam: 1})
	assert.NoError(t, err)

	// on an empty board only team 0 may be offered
	assignment := controller.Rotate(NewAssignment(), "alice")
	assert.Equal(t, Assignment{"alice": 0}, assignment)

	// team 2 is not offered while team 1 is empty
	assignment = Assignment{"a": 0, "b": 0}
	assignment = controller.Rotate(assignment, "c")
	assert.Equal(t, 1, assignment["c"])
}

func Test_Rotate_CanTieAllowsFullTeams(t *testing.T) {
	controller, err := NewController(&ControllerOptions{MaxTeams: 2, MaxPlayersPerTeam: 1, MinPlayersPerTeam: 1, CanTie: true})
	assert.NoError(t, err)

	// both teams already have one player, ties allow joining anyway
	assignment := Assignment{"a": 0, "b": 1}
	assignment = controller.Rotate(assignment, "c")
	assert.Equal(t, Assignment{"a": 0, "b": 1, "c": 0}, assignment)
}

func Test_Rotate_Deterministic(t *testing.T) {
	controller, err := NewController(&ControllerOptions{MaxTeams: 2, MaxPlayersPerTeam: 2, MinPlayersPerTeam: 1})
	assert.NoError(t, err)

	assignment := Assignment{"a": 0, "b": 1, "c": 0}

	first := controller.Rotate(assignment, "b")
	second := controller.Rotate(assignment, "b")
	assert.Equal(t, first, second, "same input should always yield the same result")

	// the input assignment is never mutated
	assert.Equal(t, Assignment{"a": 0, "b": 1, "c": 0}, assignment)
}

func Test_Collapse(t *testing.T) {
	collapsed := Collapse(Assignment{"a": 2})
	assert.Equal(t, Assignment{"a": 0}, collapsed)

	collapsed = Collapse(Assignment{"a": 1, "b": 3, "c": 3})
	assert.Equal(t, Assignment{"a": 0, "b": 1, "c": 1}, collapsed)
}

func Test_TeamCounts(t *testing.T) {
	assignment := Assignment{"a": 0, "b": 0, "c": 1}

	counts := TeamCounts(assignment)
	assert.Equal(t, map[int]int{0: 2, 1: 1}, counts)

	counts = TeamCounts(assignment, "a")
	assert.Equal(t, map[int]int{0: 1, 1: 1}, counts)
}
