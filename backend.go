package skillboard

import (
	"errors"
)

var (
	ErrBoardNotFound      = errors.New("skillboard: board not found")
	ErrPlayerNotFound     = errors.New("skillboard: player not found")
	ErrRequestFailed      = errors.New("skillboard: remote request failed")
	ErrBackendUnsupported = errors.New("skillboard: operation not supported by this backend")
)

// BoardBackend 遠端榜單資料來源 (REST 與 GraphQL 各有實作)
type BoardBackend interface {
	// Board Queries
	GetBoardLock(boardName string) (int64, error)                // 取得榜單解鎖時間 (Seconds, UnsetValue 表示未鎖定)
	ListPlayers(boardName string) ([]*BoardPlayer, error)        // 取得榜單玩家名單
	GetPlayer(boardName, username string) (*BoardPlayer, error)  // 取得單一玩家
	GetRecentGame(boardName, username string) (*Game, error)     // 取得玩家最近一場對局 (nil 表示沒有)
	GetPartialGame(boardName string) (*PartialGame, error)       // 取得進行中對局 (nil 表示沒有)

	// Board Mutations
	RegisterPlayer(boardName, username, printName string) (*BoardPlayer, error)            // 註冊玩家 (已存在時更新顯示名稱)
	PostPartialGame(boardName string, submission PartialGameSubmission) (*PartialGame, error) // 登記或加入進行中對局
	DeletePartialGame(boardName string) error                                               // 取消進行中對局
	PostFullGame(boardName string, teams []*GameTeam) error                                 // 送出完整對局 (rank 0 為勝方)
}

type PartialGameSubmission struct {
	Username      string   `json:"username"`        // 玩家帳號
	IsWinner      bool     `json:"winner"`          // 是否為勝方
	GameType      GameType `json:"game_type"`       // 對局類型 (solo, team)
	PartialGameID int64    `json:"partial_game_id"` // 欲加入的對局 ID (UnsetValue 表示建立新對局)
}
