package teamrotation

import (
	"errors"
	"sort"
)

const (
	UnsetValue = -1
)

var (
	ErrControllerNoOptions      = errors.New("rotation: options not available")
	ErrControllerInvalidOptions = errors.New("rotation: invalid controller options")
	ErrControllerTieConflict    = errors.New("rotation: ties are only allowed with single-player teams")
)

// Assignment 玩家隊伍配置 (key: 玩家帳號, value: 隊伍編號, 隊伍編號從 0 開始)
type Assignment map[string]int

func NewAssignment() Assignment {
	return make(Assignment)
}

func (a Assignment) Clone() Assignment {
	cloneAssignment := make(Assignment, len(a))
	for username, teamIdx := range a {
		cloneAssignment[username] = teamIdx
	}
	return cloneAssignment
}

type Controller interface {
	// Getters
	Options() *ControllerOptions

	// Actions
	Rotate(assignment Assignment, playerID string) Assignment
}

type controller struct {
	options *ControllerOptions
}

func NewController(options *ControllerOptions) (Controller, error) {
	if options == nil {
		return nil, ErrControllerNoOptions
	}

	if options.MaxTeams <= 0 || options.MaxPlayersPerTeam <= 0 || options.MinPlayersPerTeam <= 0 {
		return nil, ErrControllerInvalidOptions
	}

	if options.MinPlayersPerTeam > options.MaxPlayersPerTeam {
		return nil, ErrControllerInvalidOptions
	}

	// 平手只定義在每隊一人的榜單上
	if options.CanTie && options.MaxPlayersPerTeam > 1 {
		return nil, ErrControllerTieConflict
	}

	return &controller{
		options: options,
	}, nil
}

func (c *controller) Options() *ControllerOptions {
	return c.options
}

/*
Rotate 輪換單一玩家的隊伍
- Algorithm:
 1. 計算各隊人數 (不含被輪換玩家本人)
 2. 隊伍依序排列: 人數低於 MinPlayersPerTeam 優先 (編號小者在前), 其餘依 (人數, 編號) 遞增
 3. 玩家已有隊伍時, 從該隊之後開始輪換 (不會連續選到同一隊)
 4. 排除已滿的隊伍 (CanTie 時不排除), 以及編號超過 (最高有人隊伍編號 + 1) 的隊伍
 5. 第一個存活的候選隊即為新隊伍, 沒有候選時玩家變為未分隊

- @return 新的隊伍配置 (隊伍編號必定壓縮為從 0 開始連續, 不修改傳入的配置)
*/
func (c *controller) Rotate(assignment Assignment, playerID string) Assignment {
	currentTeam, hasCurrentTeam := assignment[playerID]

	// 計算各隊人數 (不含被輪換玩家本人)
	counts := make([]int, c.options.MaxTeams)
	highestOccupied := -1
	for username, teamIdx := range assignment {
		if username == playerID {
			continue
		}
		if teamIdx < 0 || teamIdx >= c.options.MaxTeams {
			continue
		}
		counts[teamIdx]++
		if teamIdx > highestOccupied {
			highestOccupied = teamIdx
		}
	}

	// 依需求排序隊伍編號
	order := make([]int, c.options.MaxTeams)
	for teamIdx := range order {
		order[teamIdx] = teamIdx
	}
	sort.SliceStable(order, func(i, j int) bool {
		teamI, teamJ := order[i], order[j]
		underMinI := counts[teamI] < c.options.MinPlayersPerTeam
		underMinJ := counts[teamJ] < c.options.MinPlayersPerTeam
		if underMinI != underMinJ {
			return underMinI
		}
		if underMinI && underMinJ {
			return teamI < teamJ
		}
		if counts[teamI] != counts[teamJ] {
			return counts[teamI] < counts[teamJ]
		}
		return teamI < teamJ
	})

	// 玩家已有隊伍時, 從該隊之後開始輪換
	if hasCurrentTeam {
		for idx, teamIdx := range order {
			if teamIdx == currentTeam {
				order = order[idx+1:]
				break
			}
		}
	}

	// 排除不可入隊的隊伍, 取第一個存活的候選隊
	newTeam := UnsetValue
	for _, teamIdx := range order {
		if !c.options.CanTie && counts[teamIdx] >= c.options.MaxPlayersPerTeam {
			continue
		}
		if teamIdx > highestOccupied+1 {
			continue
		}
		newTeam = teamIdx
		break
	}

	next := assignment.Clone()
	delete(next, playerID)
	if newTeam != UnsetValue {
		next[playerID] = newTeam
	}

	return Collapse(next)
}

/*
Collapse 壓縮隊伍編號
- 依原始編號遞增重新編號為 0 開始的連續區間 (ex: 只剩隊伍 2 有人時, 其玩家全部改為隊伍 0)
*/
func Collapse(assignment Assignment) Assignment {
	occupied := make([]int, 0)
	seen := make(map[int]bool)
	for _, teamIdx := range assignment {
		if !seen[teamIdx] {
			seen[teamIdx] = true
			occupied = append(occupied, teamIdx)
		}
	}
	sort.Ints(occupied)

	remapping := make(map[int]int, len(occupied))
	for newIdx, teamIdx := range occupied {
		remapping[teamIdx] = newIdx
	}

	collapsed := make(Assignment, len(assignment))
	for username, teamIdx := range assignment {
		collapsed[username] = remapping[teamIdx]
	}
	return collapsed
}

/*
TeamCounts 計算各隊人數
- @return 各隊人數 Map, key: 隊伍編號, value: 人數
*/
func TeamCounts(assignment Assignment, excludePlayerIDs ...string) map[int]int {
	excluded := make(map[string]bool, len(excludePlayerIDs))
	for _, playerID := range excludePlayerIDs {
		excluded[playerID] = true
	}

	counts := make(map[int]int)
	for username, teamIdx := range assignment {
		if excluded[username] {
			continue
		}
		counts[teamIdx]++
	}
	return counts
}
