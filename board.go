package skillboard

import (
	"encoding/json"
	"time"

	teamrotation "github.com/weedbox/skillboard/rotation"
)

type GameType string

const (
	// GameType
	GameType_Solo GameType = "solo" // 單人對局 (1 vs 1)
	GameType_Team GameType = "team" // 組隊對局 (2 vs 2)
)

const (
	UnsetValue = -1
)

type Board struct {
	Name         string      `json:"name"`          // 榜單名稱 (Unique)
	Meta         BoardMeta   `json:"meta"`          // 榜單固定資料
	State        *BoardState `json:"state"`         // 榜單動態資料
	UpdateAt     int64       `json:"update_at"`     // 更新時間 (Seconds)
	UpdateSerial int64       `json:"update_serial"` // 更新序列號 (數字越大越晚發生)
}

type BoardMeta struct {
	MinPlayersPerTeam int  `json:"min_players_per_team"` // 每隊最少人數
	MaxPlayersPerTeam int  `json:"max_players_per_team"` // 每隊人數上限
	MaxTeams          int  `json:"max_teams"`            // 隊伍數上限
	CanTie            bool `json:"can_tie"`              // 是否允許平手 (僅限每隊一人的榜單)
}

type BoardState struct {
	Players     []*BoardPlayer          `json:"players"`      // 榜單玩家陣列 (只增不減)
	PartialGame *PartialGame            `json:"partial_game"` // 進行中對局 (nil 表示沒有)
	Assignment  teamrotation.Assignment `json:"assignment"`   // 本地隊伍配置 (玩家帳號 -> 隊伍編號)
	UnlockAt    int64                   `json:"unlock_at"`    // 榜單解鎖時間 (Seconds, UnsetValue 表示未鎖定)
}

type BoardPlayer struct {
	Username      string  `json:"username"`       // 玩家帳號 (Unique)
	PrintName     string  `json:"print_name"`     // 顯示名稱
	Skill         float64 `json:"skill"`          // 技術分
	IsProvisional bool    `json:"is_provisional"` // 是否為未定級玩家 (對局數不足)
}

type RankedPlayer struct {
	Username      string  `json:"username"`       // 玩家帳號 (Unique)
	PrintName     string  `json:"print_name"`     // 顯示名稱
	Skill         float64 `json:"skill"`          // 技術分
	IsProvisional bool    `json:"is_provisional"` // 是否為未定級玩家
	DisplaySkill  string  `json:"display_skill"`  // 顯示用技術分 (未定級玩家為 "*")
	Rank          int     `json:"rank"`           // 名次 (1 開始, 同分同名次, UnsetValue 表示未定級)
}

type PartialGame struct {
	Fingerprint string               `json:"fingerprint"` // 內容版本指紋 (遠端提供, 內容變更時隨之改變)
	ID          int64                `json:"id"`          // 對局 Unique ID
	GameType    GameType             `json:"game_type"`   // 對局類型 (solo, team)
	Players     []*PartialGamePlayer `json:"players"`     // 已登記結果的玩家陣列
}

type PartialGamePlayer struct {
	Username string `json:"player"` // 玩家帳號
	IsWinner bool   `json:"winner"` // 是否為勝方
}

type Game struct {
	Time  int64       `json:"time"`  // 對局完成時間 (Seconds)
	Teams []*GameTeam `json:"teams"` // 隊伍陣列 (rank 0 為勝方)
}

type GameTeam struct {
	Rank    int      `json:"rank"`    // 隊伍名次 (0 開始, 0 為勝方)
	Players []string `json:"players"` // 隊伍玩家帳號陣列
}

// Board Setters
func (b *Board) RefreshUpdateAt() {
	b.UpdateAt = time.Now().Unix()
	b.UpdateSerial++
}

func (b *Board) ConfigureWithSetting(setting BoardEngineSetting) {
	// configure meta
	b.Name = setting.BoardName
	b.Meta = setting.Meta

	// configure state
	state := BoardState{
		Players:     make([]*BoardPlayer, 0),
		PartialGame: nil,
		Assignment:  teamrotation.NewAssignment(),
		UnlockAt:    UnsetValue,
	}
	b.State = &state
}

/*
UpdateRoster 以遠端名單更新榜單玩家陣列
- 既有玩家依帳號就地更新 (玩家不會被刪除)
- 未見過的玩家附加到陣列尾端
*/
func (b *Board) UpdateRoster(players []*BoardPlayer) {
	existing := make(map[string]int)
	for idx, player := range b.State.Players {
		existing[player.Username] = idx
	}

	for _, player := range players {
		if idx, exist := existing[player.Username]; exist {
			b.State.Players[idx] = player
		} else {
			b.State.Players = append(b.State.Players, player)
		}
	}
}

// Board Getters
func (b *Board) FindPlayerIdx(predicate func(player *BoardPlayer) bool) int {
	for idx, player := range b.State.Players {
		if predicate(player) {
			return idx
		}
	}
	return UnsetValue
}

func (b *Board) IsLocked() bool {
	if b.State.UnlockAt == UnsetValue {
		return false
	}
	return time.Now().Unix() < b.State.UnlockAt
}

func (b *Board) GetJSON() (string, error) {
	encoded, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// PartialGame Getters
func (pg *PartialGame) Winners() []string {
	return pg.playersByResult(true)
}

func (pg *PartialGame) Losers() []string {
	return pg.playersByResult(false)
}

func (pg *PartialGame) playersByResult(isWinner bool) []string {
	usernames := make([]string, 0)
	for _, player := range pg.Players {
		if player.IsWinner == isWinner {
			usernames = append(usernames, player.Username)
		}
	}
	return usernames
}

/*
IsGroupFull 檢查勝方或敗方人數是否已滿
- solo 對局每邊一人, team 對局每邊兩人
*/
func (pg *PartialGame) IsGroupFull(isWinner bool) bool {
	var max int
	switch pg.GameType {
	case GameType_Solo:
		max = 1
	case GameType_Team:
		max = 2
	default:
		return false
	}
	return len(pg.playersByResult(isWinner)) >= max
}

func (pg *PartialGame) Clone() (*PartialGame, error) {
	data, err := json.Marshal(pg)
	if err != nil {
		return nil, err
	}

	var cloneGame PartialGame
	err = json.Unmarshal(data, &cloneGame)
	if err != nil {
		return nil, err
	}

	return &cloneGame, nil
}
