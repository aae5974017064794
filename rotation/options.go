package teamrotation

type ControllerOptions struct {
	MaxTeams          int  `json:"max_teams"`            // 隊伍數上限
	MaxPlayersPerTeam int  `json:"max_players_per_team"` // 每隊人數上限
	MinPlayersPerTeam int  `json:"min_players_per_team"` // 每隊最少人數
	CanTie            bool `json:"can_tie"`              // 是否允許平手 (僅限每隊一人)
}

func NewDefaultControllerOptions() *ControllerOptions {
	return &ControllerOptions{
		MaxTeams:          2,
		MaxPlayersPerTeam: 2,
		MinPlayersPerTeam: 1,
		CanTie:            false,
	}
}
