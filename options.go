package skillboard

type BoardEngineOptions struct {
	OnLeaderboardUpdated func(boardName string, rankedPlayers []*RankedPlayer)
	OnPartialGameUpdated func(boardName string, partialGame *PartialGame)
	OnBoardLockUpdated   func(boardName string, unlockAt int64)
	OnBoardErrorUpdated  func(boardName string, err error)
}

func NewDefaultBoardEngineOptions() *BoardEngineOptions {
	return &BoardEngineOptions{
		OnLeaderboardUpdated: func(boardName string, rankedPlayers []*RankedPlayer) {},
		OnPartialGameUpdated: func(boardName string, partialGame *PartialGame) {},
		OnBoardLockUpdated:   func(boardName string, unlockAt int64) {},
		OnBoardErrorUpdated:  func(boardName string, err error) {},
	}
}
