package skillboard

import (
	"math"
	"sort"
	"strconv"

	"github.com/thoas/go-funk"
)

/*
FormatSkill 技術分顯示格式
- 未定級玩家顯示 "*"
- 其餘為技術分乘以 10 後四捨五入取整數
*/
func FormatSkill(skill float64, isProvisional bool) string {
	if isProvisional {
		return "*"
	}
	return strconv.Itoa(int(math.Round(skill * 10)))
}

/*
GetRankedPlayers 計算榜單即時排名
- Algorithm:
 1. 技術分由大到小排序, 未定級玩家排在所有已定級玩家之後, 最後依顯示名稱遞增排序 (排名與輸入順序無關)
 2. 名次依顯示用技術分判定同分 (competition ranking): 同分玩家共用名次, 下一個不同分數的名次為該玩家的 1-based 位置 (ex: 1,1,3,4)
 3. 未定級玩家沒有名次 (Rank 為 UnsetValue)

- @return 排名後的玩家陣列 (不修改傳入的玩家陣列)
*/
func GetRankedPlayers(players []*BoardPlayer) []*RankedPlayer {
	ranked := funk.Map(players, func(player *BoardPlayer) *RankedPlayer {
		return &RankedPlayer{
			Username:      player.Username,
			PrintName:     player.PrintName,
			Skill:         player.Skill,
			IsProvisional: player.IsProvisional,
			DisplaySkill:  FormatSkill(player.Skill, player.IsProvisional),
			Rank:          UnsetValue,
		}
	}).([]*RankedPlayer)

	sort.SliceStable(ranked, func(i int, j int) bool {
		if ranked[i].IsProvisional != ranked[j].IsProvisional {
			return !ranked[i].IsProvisional
		}
		if !ranked[i].IsProvisional && ranked[i].Skill != ranked[j].Skill {
			return ranked[i].Skill > ranked[j].Skill
		}
		return ranked[i].PrintName < ranked[j].PrintName
	})

	// 依顯示用技術分指定名次
	tieRank := 0
	prevDisplaySkill := ""
	hasPrev := false
	for idx, rankedPlayer := range ranked {
		if rankedPlayer.IsProvisional {
			continue
		}

		if !hasPrev || rankedPlayer.DisplaySkill != prevDisplaySkill {
			tieRank = idx + 1
			prevDisplaySkill = rankedPlayer.DisplaySkill
			hasPrev = true
		}
		rankedPlayer.Rank = tieRank
	}

	return ranked
}

func FindRankedPlayer(rankedPlayers []*RankedPlayer, username string) (*RankedPlayer, bool) {
	found := funk.Find(rankedPlayers, func(rankedPlayer *RankedPlayer) bool {
		return rankedPlayer.Username == username
	})
	if found == nil {
		return nil, false
	}
	return found.(*RankedPlayer), true
}
