package testcases

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/weedbox/skillboard"
)

// testRestServer 模擬遠端 REST 榜單服務 (記憶體狀態)
type testRestServer struct {
	mu                 sync.Mutex
	players            []*skillboard.BoardPlayer
	partialGame        *skillboard.PartialGame
	fullGames          []map[string]interface{}
	unlockTime         *time.Time
	idCounter          int64
	fingerprintCounter int64

	server *httptest.Server
}

func newTestRestServer() *testRestServer {
	ts := &testRestServer{
		players: make([]*skillboard.BoardPlayer, 0),
	}
	ts.server = httptest.NewServer(ts)
	return ts
}

func (ts *testRestServer) URL() string {
	return ts.server.URL
}

func (ts *testRestServer) Close() {
	ts.server.Close()
}

func (ts *testRestServer) SetUnlockTime(unlockTime *time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.unlockTime = unlockTime
}

func (ts *testRestServer) PartialGame() *skillboard.PartialGame {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	return ts.partialGame
}

func (ts *testRestServer) FullGameCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	return len(ts.fullGames)
}

func (ts *testRestServer) nextFingerprint() string {
	ts.fingerprintCounter++
	return fmt.Sprintf("fp-%d", ts.fingerprintCounter)
}

func (ts *testRestServer) findPlayer(username string) *skillboard.BoardPlayer {
	for _, player := range ts.players {
		if player.Username == username {
			return player
		}
	}
	return nil
}

func (ts *testRestServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "boards" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		ts.handleGetBoard(w, parts[1])
	case len(parts) == 3 && parts[2] == "players" && r.Method == http.MethodGet:
		ts.writeJSON(w, http.StatusOK, ts.players)
	case len(parts) == 3 && parts[2] == "register" && r.Method == http.MethodPost:
		ts.handleRegister(w, r)
	case len(parts) == 3 && parts[2] == "partial_game":
		ts.handlePartialGame(w, r)
	case len(parts) == 3 && parts[2] == "full_game" && r.Method == http.MethodPost:
		ts.handleFullGame(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (ts *testRestServer) handleGetBoard(w http.ResponseWriter, boardName string) {
	var unlockTime *string
	if ts.unlockTime != nil {
		encoded := ts.unlockTime.UTC().Format(time.RFC3339)
		unlockTime = &encoded
	}
	ts.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        boardName,
		"unlock_time": unlockTime,
	})
}

func (ts *testRestServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username  string `json:"username"`
		PrintName string `json:"print_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	player := ts.findPlayer(body.Username)
	if player == nil {
		player = &skillboard.BoardPlayer{
			Username:      body.Username,
			IsProvisional: true,
		}
		ts.players = append(ts.players, player)
	}
	player.PrintName = body.PrintName

	ts.writeJSON(w, http.StatusOK, player)
}

func (ts *testRestServer) handlePartialGame(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if ts.partialGame == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		ts.writeJSON(w, http.StatusOK, ts.partialGame)

	case http.MethodPost:
		var body struct {
			Username      string              `json:"username"`
			IsWinner      bool                `json:"winner"`
			GameType      skillboard.GameType `json:"game_type"`
			PartialGameID *int64              `json:"partial_game_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if body.PartialGameID == nil {
			ts.idCounter++
			ts.partialGame = &skillboard.PartialGame{
				ID:       ts.idCounter,
				GameType: body.GameType,
				Players:  make([]*skillboard.PartialGamePlayer, 0),
			}
		}
		if ts.partialGame == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		ts.partialGame.Players = append(ts.partialGame.Players, &skillboard.PartialGamePlayer{
			Username: body.Username,
			IsWinner: body.IsWinner,
		})
		ts.partialGame.Fingerprint = ts.nextFingerprint()

		ts.writeJSON(w, http.StatusOK, ts.partialGame)

	case http.MethodDelete:
		ts.partialGame = nil
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (ts *testRestServer) handleFullGame(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	ts.fullGames = append(ts.fullGames, body)

	// 完成的對局會更新玩家技術分並結束進行中對局
	teams, _ := body["teams"].([]interface{})
	for _, rawTeam := range teams {
		team, _ := rawTeam.(map[string]interface{})
		rank, _ := team["rank"].(float64)
		players, _ := team["players"].([]interface{})
		for _, rawPlayer := range players {
			username, _ := rawPlayer.(map[string]interface{})["username"].(string)
			if player := ts.findPlayer(username); player != nil {
				player.IsProvisional = false
				if rank == 0 {
					player.Skill += 1.0
				}
			}
		}
	}
	ts.partialGame = nil

	w.WriteHeader(http.StatusCreated)
}

func (ts *testRestServer) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// eventRecorder 收集引擎事件 (事件來自輪詢 goroutine, 需加鎖)
type eventRecorder struct {
	mu           sync.Mutex
	partialGames []*skillboard.PartialGame
	locks        []int64
	leaderboards int
	errs         []error
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{
		partialGames: make([]*skillboard.PartialGame, 0),
		locks:        make([]int64, 0),
		errs:         make([]error, 0),
	}
}

func (er *eventRecorder) Options() *skillboard.BoardEngineOptions {
	options := skillboard.NewDefaultBoardEngineOptions()
	options.OnLeaderboardUpdated = func(boardName string, rankedPlayers []*skillboard.RankedPlayer) {
		er.mu.Lock()
		defer er.mu.Unlock()
		er.leaderboards++
	}
	options.OnPartialGameUpdated = func(boardName string, partialGame *skillboard.PartialGame) {
		er.mu.Lock()
		defer er.mu.Unlock()
		er.partialGames = append(er.partialGames, partialGame)
	}
	options.OnBoardLockUpdated = func(boardName string, unlockAt int64) {
		er.mu.Lock()
		defer er.mu.Unlock()
		er.locks = append(er.locks, unlockAt)
	}
	options.OnBoardErrorUpdated = func(boardName string, err error) {
		er.mu.Lock()
		defer er.mu.Unlock()
		er.errs = append(er.errs, err)
	}
	return options
}

func (er *eventRecorder) PartialGameCount() int {
	er.mu.Lock()
	defer er.mu.Unlock()

	return len(er.partialGames)
}

func (er *eventRecorder) LastPartialGame() *skillboard.PartialGame {
	er.mu.Lock()
	defer er.mu.Unlock()

	if len(er.partialGames) == 0 {
		return nil
	}
	return er.partialGames[len(er.partialGames)-1]
}

func (er *eventRecorder) Locks() []int64 {
	er.mu.Lock()
	defer er.mu.Unlock()

	locks := make([]int64, len(er.locks))
	copy(locks, er.locks)
	return locks
}

func (er *eventRecorder) LeaderboardCount() int {
	er.mu.Lock()
	defer er.mu.Unlock()

	return er.leaderboards
}
