package skillboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Manager_CreateBoardEngine(t *testing.T) {
	backend := newFakeBoardBackend()
	m := NewManager(backend, nil)
	defer m.Reset()

	setting := BoardEngineSetting{
		BoardName: "ladder",
		Meta: BoardMeta{
			MinPlayersPerTeam: 1,
			MaxPlayersPerTeam: 2,
			MaxTeams:          2,
		},
		PollInterval: 50,
	}

	board, err := m.CreateBoardEngine(setting, NewDefaultBoardEngineOptions())
	assert.NoError(t, err)
	assert.Equal(t, "ladder", board.Name)

	boardEngine, err := m.GetBoardEngine("ladder")
	assert.NoError(t, err)
	assert.NotNil(t, boardEngine)

	// invalid settings never register an engine
	_, err = m.CreateBoardEngine(BoardEngineSetting{}, NewDefaultBoardEngineOptions())
	assert.ErrorIs(t, err, ErrBoardEngineInvalidCreateSetting)
}

func Test_Manager_UnknownBoard(t *testing.T) {
	m := NewManager(newFakeBoardBackend(), nil)
	defer m.Reset()

	_, err := m.GetBoardEngine("nowhere")
	assert.ErrorIs(t, err, ErrManagerBoardNotFound)

	_, err = m.RegisterPlayer("nowhere", "a", "A")
	assert.ErrorIs(t, err, ErrManagerBoardNotFound)

	_, err = m.RotatePlayer("nowhere", "a")
	assert.ErrorIs(t, err, ErrManagerBoardNotFound)

	err = m.SubmitPartialGame("nowhere", PartialGameSubmission{})
	assert.ErrorIs(t, err, ErrManagerBoardNotFound)

	err = m.CancelPartialGame("nowhere")
	assert.ErrorIs(t, err, ErrManagerBoardNotFound)

	err = m.SubmitFullGame("nowhere", []string{"a"}, []string{"b"})
	assert.ErrorIs(t, err, ErrManagerBoardNotFound)

	err = m.CloseBoardEngine("nowhere")
	assert.ErrorIs(t, err, ErrManagerBoardNotFound)
}

func Test_Manager_PlayerOperations(t *testing.T) {
	backend := newFakeBoardBackend()
	m := NewManager(backend, nil)
	defer m.Reset()

	setting := BoardEngineSetting{
		BoardName: "ladder",
		Meta: BoardMeta{
			MinPlayersPerTeam: 1,
			MaxPlayersPerTeam: 2,
			MaxTeams:          2,
		},
	}

	options := NewDefaultBoardEngineOptions()
	leaderboardCounter := 0
	options.OnLeaderboardUpdated = func(boardName string, rankedPlayers []*RankedPlayer) {
		leaderboardCounter++
	}

	_, err := m.CreateBoardEngine(setting, options)
	assert.NoError(t, err)

	player, err := m.RegisterPlayer("ladder", "a", "A")
	assert.NoError(t, err)
	assert.Equal(t, "a", player.Username)
	assert.Equal(t, 1, leaderboardCounter)

	assignment, err := m.RotatePlayer("ladder", "a")
	assert.NoError(t, err)
	assert.Equal(t, 0, assignment["a"])
}

func Test_Manager_CloseBoardEngine(t *testing.T) {
	m := NewManager(newFakeBoardBackend(), nil)
	defer m.Reset()

	setting := BoardEngineSetting{
		BoardName: "ladder",
		Meta: BoardMeta{
			MinPlayersPerTeam: 1,
			MaxPlayersPerTeam: 2,
			MaxTeams:          2,
		},
	}

	_, err := m.CreateBoardEngine(setting, NewDefaultBoardEngineOptions())
	assert.NoError(t, err)

	assert.NoError(t, m.CloseBoardEngine("ladder"))

	_, err = m.GetBoardEngine("ladder")
	assert.ErrorIs(t, err, ErrManagerBoardNotFound)
}
