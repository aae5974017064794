package skillboard

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	teamrotation "github.com/weedbox/skillboard/rotation"
)

var (
	ErrManagerBoardNotFound = errors.New("manager: board not found")
)

type Manager interface {
	Reset()

	// BoardEngine Actions
	GetBoardEngine(boardName string) (BoardEngine, error)
	CreateBoardEngine(setting BoardEngineSetting, options *BoardEngineOptions) (*Board, error)
	CloseBoardEngine(boardName string) error

	// Player Operations
	RegisterPlayer(boardName, username, printName string) (*BoardPlayer, error)
	RotatePlayer(boardName, playerID string) (teamrotation.Assignment, error)
	SubmitPartialGame(boardName string, submission PartialGameSubmission) error
	CancelPartialGame(boardName string) error
	SubmitFullGame(boardName string, winners, losers []string) error
}

type manager struct {
	backend      BoardBackend
	eventBus     EventBus
	logger       *zap.Logger
	boardEngines sync.Map
}

func NewManager(backend BoardBackend, eventBus EventBus) Manager {
	return &manager{
		backend:      backend,
		eventBus:     eventBus,
		logger:       zap.NewNop(),
		boardEngines: sync.Map{},
	}
}

func NewManagerWithLogger(backend BoardBackend, eventBus EventBus, logger *zap.Logger) Manager {
	return &manager{
		backend:      backend,
		eventBus:     eventBus,
		logger:       logger,
		boardEngines: sync.Map{},
	}
}

func (m *manager) Reset() {
	m.boardEngines.Range(func(k, v interface{}) bool {
		v.(BoardEngine).StopSync()
		return true
	})
	m.boardEngines = sync.Map{}
}

func (m *manager) GetBoardEngine(boardName string) (BoardEngine, error) {
	boardEngine, exist := m.boardEngines.Load(boardName)
	if !exist {
		return nil, ErrManagerBoardNotFound
	}
	return boardEngine.(BoardEngine), nil
}

func (m *manager) CreateBoardEngine(setting BoardEngineSetting, options *BoardEngineOptions) (*Board, error) {
	boardEngine := NewBoardEngine(
		WithBoardBackend(m.backend),
		WithEventBus(m.eventBus),
		WithLogger(m.logger),
	)
	boardEngine.OnLeaderboardUpdated(options.OnLeaderboardUpdated)
	boardEngine.OnPartialGameUpdated(options.OnPartialGameUpdated)
	boardEngine.OnBoardLockUpdated(options.OnBoardLockUpdated)
	boardEngine.OnBoardErrorUpdated(options.OnBoardErrorUpdated)

	board, err := boardEngine.CreateBoard(setting)
	if err != nil {
		return nil, err
	}

	if err := boardEngine.StartSync(); err != nil {
		return nil, err
	}

	m.boardEngines.Store(setting.BoardName, boardEngine)

	return board, nil
}

func (m *manager) CloseBoardEngine(boardName string) error {
	boardEngine, err := m.GetBoardEngine(boardName)
	if err != nil {
		return err
	}

	boardEngine.StopSync()
	m.boardEngines.Delete(boardName)

	return nil
}

func (m *manager) RegisterPlayer(boardName, username, printName string) (*BoardPlayer, error) {
	boardEngine, err := m.GetBoardEngine(boardName)
	if err != nil {
		return nil, err
	}
	return boardEngine.RegisterPlayer(username, printName)
}

func (m *manager) RotatePlayer(boardName, playerID string) (teamrotation.Assignment, error) {
	boardEngine, err := m.GetBoardEngine(boardName)
	if err != nil {
		return nil, err
	}
	return boardEngine.RotatePlayer(playerID)
}

func (m *manager) SubmitPartialGame(boardName string, submission PartialGameSubmission) error {
	boardEngine, err := m.GetBoardEngine(boardName)
	if err != nil {
		return err
	}
	return boardEngine.SubmitPartialGame(submission)
}

func (m *manager) CancelPartialGame(boardName string) error {
	boardEngine, err := m.GetBoardEngine(boardName)
	if err != nil {
		return err
	}
	return boardEngine.CancelPartialGame()
}

func (m *manager) SubmitFullGame(boardName string, winners, losers []string) error {
	boardEngine, err := m.GetBoardEngine(boardName)
	if err != nil {
		return err
	}
	return boardEngine.SubmitFullGame(winners, losers)
}
