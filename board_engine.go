package skillboard

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weedbox/timebank"
	"go.uber.org/zap"

	teamrotation "github.com/weedbox/skillboard/rotation"
)

var (
	ErrBoardEngineInvalidCreateSetting = errors.New("skillboard: invalid create board setting")
	ErrBoardEngineBoardNotCreated      = errors.New("skillboard: board not created")
	ErrBoardEngineSyncRejected         = errors.New("skillboard: already syncing")
	ErrBoardEnginePlayerNotInRoster    = errors.New("skillboard: player not in board roster")
)

type BoardEngineOpt func(*boardEngine)

type BoardEngine interface {
	// Events
	OnLeaderboardUpdated(fn func(boardName string, rankedPlayers []*RankedPlayer)) // 排行榜更新事件監聽器
	OnPartialGameUpdated(fn func(boardName string, partialGame *PartialGame))      // 進行中對局更新事件監聽器
	OnBoardLockUpdated(fn func(boardName string, unlockAt int64))                  // 榜單鎖定狀態更新事件監聽器
	OnBoardErrorUpdated(fn func(boardName string, err error))                      // 榜單錯誤更新事件監聽器

	// Board Actions
	GetBoard() *Board                                       // 取得榜單
	CreateBoard(setting BoardEngineSetting) (*Board, error) // 建立榜單
	StartSync() error                                       // 開始背景同步 (輪詢進行中對局)
	StopSync()                                              // 停止背景同步 (連同鎖定喚醒任務一併取消)

	// Leaderboard Actions
	RefreshLeaderboard() error                                    // 刷新排行榜名單
	GetRankedPlayers() []*RankedPlayer                            // 取得即時排名
	RegisterPlayer(username, printName string) (*BoardPlayer, error) // 註冊玩家
	GetRecentGame(username string) (*Game, error)                 // 取得玩家最近一場對局

	// Team Actions
	RotatePlayer(playerID string) (teamrotation.Assignment, error) // 輪換玩家隊伍
	GetAssignment() teamrotation.Assignment                        // 取得本地隊伍配置
	ResetAssignment()                                              // 重置本地隊伍配置

	// Partial Game Actions
	SubmitPartialGame(submission PartialGameSubmission) error // 登記或加入進行中對局
	CancelPartialGame() error                                  // 取消進行中對局
	SubmitFullGame(winners, losers []string) error             // 送出完整對局 (勝方 rank 0, 敗方 rank 1)

	// Lock Actions
	RefreshLock() error // 刷新榜單鎖定狀態
}

type boardEngine struct {
	mu        sync.RWMutex
	board     *Board
	backend   BoardBackend
	eventBus  EventBus
	logger    *zap.Logger
	rotation  teamrotation.Controller
	isSyncing bool

	pollInterval time.Duration
	pollTimeBank *timebank.TimeBank
	lockTimeBank *timebank.TimeBank

	// 各動作的取代序列號 (較新的呼叫會使較舊的結果失效)
	refreshSerial int64
	submitSerial  int64
	cancelSerial  int64

	onLeaderboardUpdated func(boardName string, rankedPlayers []*RankedPlayer)
	onPartialGameUpdated func(boardName string, partialGame *PartialGame)
	onBoardLockUpdated   func(boardName string, unlockAt int64)
	onBoardErrorUpdated  func(boardName string, err error)
}

func NewBoardEngine(opts ...BoardEngineOpt) BoardEngine {
	be := &boardEngine{
		logger:               zap.NewNop(),
		pollInterval:         time.Millisecond * DefaultPollIntervalMilliseconds,
		pollTimeBank:         timebank.NewTimeBank(),
		lockTimeBank:         timebank.NewTimeBank(),
		onLeaderboardUpdated: func(boardName string, rankedPlayers []*RankedPlayer) {},
		onPartialGameUpdated: func(boardName string, partialGame *PartialGame) {},
		onBoardLockUpdated:   func(boardName string, unlockAt int64) {},
		onBoardErrorUpdated:  func(boardName string, err error) {},
	}

	for _, opt := range opts {
		opt(be)
	}

	return be
}

func WithBoardBackend(backend BoardBackend) BoardEngineOpt {
	return func(be *boardEngine) {
		be.backend = backend
	}
}

func WithEventBus(eventBus EventBus) BoardEngineOpt {
	return func(be *boardEngine) {
		be.eventBus = eventBus
	}
}

func WithLogger(logger *zap.Logger) BoardEngineOpt {
	return func(be *boardEngine) {
		be.logger = logger
	}
}

func (be *boardEngine) OnLeaderboardUpdated(fn func(boardName string, rankedPlayers []*RankedPlayer)) {
	be.onLeaderboardUpdated = fn
}

func (be *boardEngine) OnPartialGameUpdated(fn func(boardName string, partialGame *PartialGame)) {
	be.onPartialGameUpdated = fn
}

func (be *boardEngine) OnBoardLockUpdated(fn func(boardName string, unlockAt int64)) {
	be.onBoardLockUpdated = fn
}

func (be *boardEngine) OnBoardErrorUpdated(fn func(boardName string, err error)) {
	be.onBoardErrorUpdated = fn
}

func (be *boardEngine) GetBoard() *Board {
	be.mu.RLock()
	defer be.mu.RUnlock()

	return be.board
}

func (be *boardEngine) CreateBoard(setting BoardEngineSetting) (*Board, error) {
	if setting.BoardName == "" {
		return nil, ErrBoardEngineInvalidCreateSetting
	}
	if setting.PollInterval < 0 {
		return nil, ErrBoardEngineInvalidCreateSetting
	}

	// 隊伍設定交由輪換控制器驗證 (含 CanTie 與多人隊伍互斥)
	rotationController, err := teamrotation.NewController(&teamrotation.ControllerOptions{
		MaxTeams:          setting.Meta.MaxTeams,
		MaxPlayersPerTeam: setting.Meta.MaxPlayersPerTeam,
		MinPlayersPerTeam: setting.Meta.MinPlayersPerTeam,
		CanTie:            setting.Meta.CanTie,
	})
	if err != nil {
		return nil, err
	}

	board := &Board{}
	board.ConfigureWithSetting(setting)
	board.RefreshUpdateAt()

	be.mu.Lock()
	be.board = board
	be.rotation = rotationController
	if setting.PollInterval > 0 {
		be.pollInterval = time.Duration(setting.PollInterval) * time.Millisecond
	}
	be.mu.Unlock()

	return board, nil
}

func (be *boardEngine) StartSync() error {
	be.mu.Lock()
	if be.board == nil {
		be.mu.Unlock()
		return ErrBoardEngineBoardNotCreated
	}
	if be.isSyncing {
		be.mu.Unlock()
		return ErrBoardEngineSyncRejected
	}
	be.isSyncing = true
	be.mu.Unlock()

	be.schedulePoll()

	return nil
}

func (be *boardEngine) StopSync() {
	be.mu.Lock()
	be.isSyncing = false
	be.pollTimeBank.Cancel()
	be.lockTimeBank.Cancel()
	be.mu.Unlock()
}

func (be *boardEngine) RefreshLeaderboard() error {
	boardName, err := be.boardName()
	if err != nil {
		return err
	}

	serial := atomic.AddInt64(&be.refreshSerial, 1)

	players, err := be.backend.ListPlayers(boardName)
	if err != nil {
		be.emitErrorEvent("RefreshLeaderboard", "", err)
		return err
	}

	// 更新期間已有更新的 refresh, 丟棄此結果
	if atomic.LoadInt64(&be.refreshSerial) != serial {
		return nil
	}

	be.mu.Lock()
	be.board.UpdateRoster(players)
	if !be.isAssignmentCompatible() {
		be.board.State.Assignment = teamrotation.NewAssignment()
	}
	rankedPlayers := GetRankedPlayers(be.board.State.Players)
	be.board.RefreshUpdateAt()
	be.mu.Unlock()

	be.emitLeaderboardEvent(rankedPlayers)

	return nil
}

func (be *boardEngine) GetRankedPlayers() []*RankedPlayer {
	be.mu.RLock()
	defer be.mu.RUnlock()

	if be.board == nil {
		return make([]*RankedPlayer, 0)
	}
	return GetRankedPlayers(be.board.State.Players)
}

func (be *boardEngine) RegisterPlayer(username, printName string) (*BoardPlayer, error) {
	boardName, err := be.boardName()
	if err != nil {
		return nil, err
	}

	player, err := be.backend.RegisterPlayer(boardName, username, printName)
	if err != nil {
		be.emitErrorEvent("RegisterPlayer", username, err)
		return nil, err
	}

	be.mu.Lock()
	be.board.UpdateRoster([]*BoardPlayer{player})
	rankedPlayers := GetRankedPlayers(be.board.State.Players)
	be.board.RefreshUpdateAt()
	be.mu.Unlock()

	be.emitLeaderboardEvent(rankedPlayers)

	return player, nil
}

func (be *boardEngine) GetRecentGame(username string) (*Game, error) {
	boardName, err := be.boardName()
	if err != nil {
		return nil, err
	}

	game, err := be.backend.GetRecentGame(boardName, username)
	if err != nil {
		be.emitErrorEvent("GetRecentGame", username, err)
		return nil, err
	}
	return game, nil
}

func (be *boardEngine) RotatePlayer(playerID string) (teamrotation.Assignment, error) {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.board == nil {
		return nil, ErrBoardEngineBoardNotCreated
	}

	playerIdx := be.board.FindPlayerIdx(func(player *BoardPlayer) bool {
		return player.Username == playerID
	})
	if playerIdx == UnsetValue {
		return nil, ErrBoardEnginePlayerNotInRoster
	}

	be.board.State.Assignment = be.rotation.Rotate(be.board.State.Assignment, playerID)
	be.board.RefreshUpdateAt()

	return be.board.State.Assignment.Clone(), nil
}

func (be *boardEngine) GetAssignment() teamrotation.Assignment {
	be.mu.RLock()
	defer be.mu.RUnlock()

	if be.board == nil {
		return teamrotation.NewAssignment()
	}
	return be.board.State.Assignment.Clone()
}

func (be *boardEngine) ResetAssignment() {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.board == nil {
		return
	}
	be.board.State.Assignment = teamrotation.NewAssignment()
	be.board.RefreshUpdateAt()
}

func (be *boardEngine) SubmitPartialGame(submission PartialGameSubmission) error {
	boardName, err := be.boardName()
	if err != nil {
		return err
	}

	serial := atomic.AddInt64(&be.submitSerial, 1)

	game, err := be.backend.PostPartialGame(boardName, submission)
	if err != nil {
		// 提交失敗不留下任何樂觀更新
		be.emitErrorEvent("SubmitPartialGame", submission.Username, err)
		return err
	}

	// 已有更新的提交取代此結果
	if atomic.LoadInt64(&be.submitSerial) != serial {
		return nil
	}

	be.reconcilePartialGame(game)

	// 排行榜刷新失敗不影響提交結果 (錯誤已另行發出)
	_ = be.RefreshLeaderboard()

	return nil
}

func (be *boardEngine) CancelPartialGame() error {
	boardName, err := be.boardName()
	if err != nil {
		return err
	}

	serial := atomic.AddInt64(&be.cancelSerial, 1)

	if err := be.backend.DeletePartialGame(boardName); err != nil {
		be.emitErrorEvent("CancelPartialGame", "", err)
		return err
	}

	if atomic.LoadInt64(&be.cancelSerial) != serial {
		return nil
	}

	be.reconcilePartialGame(nil)

	return nil
}

func (be *boardEngine) SubmitFullGame(winners, losers []string) error {
	boardName, err := be.boardName()
	if err != nil {
		return err
	}

	teams := []*GameTeam{
		{Rank: 0, Players: winners},
		{Rank: 1, Players: losers},
	}

	if err := be.backend.PostFullGame(boardName, teams); err != nil {
		// 完整對局沒有本地樂觀狀態, 失敗時不需回滾
		be.emitErrorEvent("SubmitFullGame", "", err)
		return err
	}

	// 對局完成, 重置本地隊伍配置
	be.ResetAssignment()

	// 排行榜刷新失敗不影響提交結果 (錯誤已另行發出)
	_ = be.RefreshLeaderboard()

	return nil
}

func (be *boardEngine) RefreshLock() error {
	boardName, err := be.boardName()
	if err != nil {
		return err
	}

	unlockAt, err := be.backend.GetBoardLock(boardName)
	if err != nil {
		be.emitErrorEvent("RefreshLock", "", err)
		return err
	}

	be.applyLock(unlockAt)

	return nil
}
