package skillboard

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/weedbox/timebank"
	"go.uber.org/zap"
)

func (be *boardEngine) boardName() (string, error) {
	be.mu.RLock()
	defer be.mu.RUnlock()

	if be.board == nil {
		return "", ErrBoardEngineBoardNotCreated
	}
	return be.board.Name, nil
}

func (be *boardEngine) isStopped() bool {
	be.mu.RLock()
	defer be.mu.RUnlock()

	return !be.isSyncing
}

// schedulePoll 排定下一次進行中對局輪詢 (自我重排, 直到 StopSync)
func (be *boardEngine) schedulePoll() {
	be.mu.Lock()
	if !be.isSyncing {
		be.mu.Unlock()
		return
	}
	be.pollTimeBank = timebank.NewTimeBank()
	pollTimeBank := be.pollTimeBank
	interval := be.pollInterval
	be.mu.Unlock()

	if err := pollTimeBank.NewTask(interval, func(isCancelled bool) {
		if isCancelled {
			return
		}
		if be.isStopped() {
			return
		}

		be.pollPartialGame()
		be.schedulePoll()
	}); err != nil {
		be.emitErrorEvent("SchedulePoll", "", err)
	}
}

// pollPartialGame 向遠端取得進行中對局並調和本地狀態
// 失敗時不影響既有狀態, 下一個 tick 再試
func (be *boardEngine) pollPartialGame() {
	boardName, err := be.boardName()
	if err != nil {
		return
	}

	game, err := be.backend.GetPartialGame(boardName)
	if err != nil {
		be.logger.Warn("skillboard: failed to poll partial game",
			zap.String("board", boardName),
			zap.Error(err),
		)
		be.emitErrorEvent("PollPartialGame", "", err)
		return
	}

	be.reconcilePartialGame(game)
}

/*
reconcilePartialGame 以指紋比較調和遠端快照與本地狀態
- Algorithm:
 1. 本地與遠端皆無對局: 不發出任何事件 (避免重複發出相同快照)
 2. 指紋相同: 保留既有的本地物件 (本地物件可能帶有尚未回寫的欄位), 不發出事件
 3. 其餘情況以遠端快照取代本地狀態並發出事件

- 指紋比較是唯一的覆寫判斷依據, 與回應到達順序無關
*/
func (be *boardEngine) reconcilePartialGame(newGame *PartialGame) {
	be.mu.Lock()

	if be.board == nil {
		be.mu.Unlock()
		return
	}

	currentGame := be.board.State.PartialGame
	if currentGame == nil && newGame == nil {
		be.mu.Unlock()
		return
	}
	if currentGame != nil && newGame != nil && currentGame.Fingerprint == newGame.Fingerprint {
		be.mu.Unlock()
		return
	}

	be.board.State.PartialGame = newGame
	be.board.RefreshUpdateAt()
	be.mu.Unlock()

	be.emitPartialGameEvent(newGame)
}

/*
applyLock 套用榜單鎖定狀態
- 過去的解鎖時間視為未鎖定
- 鎖定時排定解鎖瞬間的一次性喚醒任務; 新的鎖定值會先取消前一個喚醒, 避免重複喚醒
*/
func (be *boardEngine) applyLock(unlockAt int64) {
	if unlockAt != UnsetValue && unlockAt <= time.Now().Unix() {
		unlockAt = UnsetValue
	}

	be.mu.Lock()

	if be.board == nil {
		be.mu.Unlock()
		return
	}

	changed := be.board.State.UnlockAt != unlockAt
	be.board.State.UnlockAt = unlockAt
	if changed {
		be.board.RefreshUpdateAt()
	}

	be.lockTimeBank.Cancel()
	if unlockAt != UnsetValue {
		be.lockTimeBank = timebank.NewTimeBank()
		if err := be.lockTimeBank.NewTaskWithDeadline(time.Unix(unlockAt, 0), func(isCancelled bool) {
			if isCancelled {
				return
			}
			be.onLockDeadline()
		}); err != nil {
			be.mu.Unlock()
			be.emitErrorEvent("ApplyLock", "", err)
			return
		}
	}

	be.mu.Unlock()

	if changed {
		be.emitBoardLockEvent(unlockAt)
	}
}

// onLockDeadline 解鎖瞬間重新確認鎖定狀態, 確定解鎖後刷新整個榜單 (名單 + 鎖定)
func (be *boardEngine) onLockDeadline() {
	boardName, err := be.boardName()
	if err != nil {
		return
	}

	unlockAt, err := be.backend.GetBoardLock(boardName)
	if err != nil {
		be.emitErrorEvent("LockDeadline", "", err)
		return
	}

	be.applyLock(unlockAt)

	be.mu.RLock()
	stillLocked := be.board.IsLocked()
	be.mu.RUnlock()

	if !stillLocked {
		_ = be.RefreshLeaderboard()
	}
}

func (be *boardEngine) isAssignmentCompatible() bool {
	for playerID, teamIdx := range be.board.State.Assignment {
		if teamIdx < 0 || teamIdx >= be.board.Meta.MaxTeams {
			return false
		}

		playerIdx := be.board.FindPlayerIdx(func(player *BoardPlayer) bool {
			return player.Username == playerID
		})
		if playerIdx == UnsetValue {
			return false
		}
	}
	return true
}

func (be *boardEngine) emitLeaderboardEvent(rankedPlayers []*RankedPlayer) {
	boardName, err := be.boardName()
	if err != nil {
		return
	}

	be.onLeaderboardUpdated(boardName, rankedPlayers)
	be.publishEvent(BoardEvent_LeaderboardUpdated, rankedPlayers)
}

func (be *boardEngine) emitPartialGameEvent(partialGame *PartialGame) {
	boardName, err := be.boardName()
	if err != nil {
		return
	}

	be.onPartialGameUpdated(boardName, partialGame)
	be.publishEvent(BoardEvent_PartialGameUpdated, partialGame)
}

func (be *boardEngine) emitBoardLockEvent(unlockAt int64) {
	boardName, err := be.boardName()
	if err != nil {
		return
	}

	be.onBoardLockUpdated(boardName, unlockAt)
	be.publishEvent(BoardEvent_BoardLockUpdated, unlockAt)
}

func (be *boardEngine) emitErrorEvent(eventName string, playerID string, err error) {
	boardName, _ := be.boardName()

	be.logger.Warn("skillboard: board engine error",
		zap.String("board", boardName),
		zap.String("event", eventName),
		zap.String("player", playerID),
		zap.Error(err),
	)

	be.onBoardErrorUpdated(boardName, err)
}

func (be *boardEngine) publishEvent(eventType BoardEventType, payload interface{}) {
	if be.eventBus == nil {
		return
	}

	boardName, err := be.boardName()
	if err != nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	event := &BoardEvent{
		ID:        uuid.New().String(),
		BoardName: boardName,
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}

	if err := be.eventBus.Publish(event); err != nil {
		be.logger.Warn("skillboard: failed to publish board event",
			zap.String("board", boardName),
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}
