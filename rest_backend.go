package skillboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thoas/go-funk"
)

const (
	DefaultRequestTimeout = time.Second * 10
)

// RestBoardBackend 透過 REST API (HTTP + JSON) 存取遠端榜單
type RestBoardBackend struct {
	baseURL string
	client  *http.Client
}

func NewRestBoardBackend(baseURL string) *RestBoardBackend {
	return NewRestBoardBackendWithClient(baseURL, &http.Client{
		Timeout: DefaultRequestTimeout,
	})
}

func NewRestBoardBackendWithClient(baseURL string, client *http.Client) *RestBoardBackend {
	return &RestBoardBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type restBoardPayload struct {
	Name       string  `json:"name"`
	UnlockTime *string `json:"unlock_time"`
}

type restGamePayload struct {
	Time  string                 `json:"time"`
	Teams []*restGameTeamPayload `json:"teams"`
}

type restGameTeamPayload struct {
	Rank    int                      `json:"rank"`
	Players []*restGamePlayerPayload `json:"players"`
}

type restGamePlayerPayload struct {
	Username string  `json:"username"`
	Weight   float64 `json:"weight"`
}

func (rb *RestBoardBackend) GetBoardLock(boardName string) (int64, error) {
	var payload restBoardPayload
	statusCode, err := rb.get(fmt.Sprintf("boards/%s", boardName), &payload)
	if err != nil {
		return UnsetValue, err
	}
	if err := rb.checkStatus(statusCode); err != nil {
		return UnsetValue, err
	}

	if payload.UnlockTime == nil {
		return UnsetValue, nil
	}

	unlockTime, err := time.Parse(time.RFC3339, *payload.UnlockTime)
	if err != nil {
		return UnsetValue, fmt.Errorf("%w: invalid unlock_time: %v", ErrRequestFailed, err)
	}

	return unlockTime.Unix(), nil
}

func (rb *RestBoardBackend) ListPlayers(boardName string) ([]*BoardPlayer, error) {
	players := make([]*BoardPlayer, 0)
	statusCode, err := rb.get(fmt.Sprintf("boards/%s/players/", boardName), &players)
	if err != nil {
		return nil, err
	}
	if err := rb.checkStatus(statusCode); err != nil {
		return nil, err
	}
	return players, nil
}

func (rb *RestBoardBackend) GetPlayer(boardName, username string) (*BoardPlayer, error) {
	var player BoardPlayer
	statusCode, err := rb.get(fmt.Sprintf("boards/%s/players/%s", boardName, username), &player)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusNotFound {
		return nil, ErrPlayerNotFound
	}
	if err := rb.checkStatus(statusCode); err != nil {
		return nil, err
	}
	return &player, nil
}

func (rb *RestBoardBackend) GetRecentGame(boardName, username string) (*Game, error) {
	var payload restGamePayload
	statusCode, err := rb.get(fmt.Sprintf("boards/%s/players/%s/recent_game", boardName, username), &payload)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusNoContent {
		// 該玩家還沒有任何對局
		return nil, nil
	}
	if err := rb.checkStatus(statusCode); err != nil {
		return nil, err
	}

	gameTime := int64(UnsetValue)
	if parsed, err := time.Parse(time.RFC3339, payload.Time); err == nil {
		gameTime = parsed.Unix()
	}

	return &Game{
		Time: gameTime,
		Teams: funk.Map(payload.Teams, func(team *restGameTeamPayload) *GameTeam {
			return &GameTeam{
				Rank: team.Rank,
				Players: funk.Map(team.Players, func(player *restGamePlayerPayload) string {
					return player.Username
				}).([]string),
			}
		}).([]*GameTeam),
	}, nil
}

func (rb *RestBoardBackend) GetPartialGame(boardName string) (*PartialGame, error) {
	var game PartialGame
	statusCode, err := rb.get(fmt.Sprintf("boards/%s/partial_game", boardName), &game)
	if err != nil {
		return nil, err
	}

	switch statusCode {
	case http.StatusNoContent, http.StatusNotFound:
		// 沒有進行中對局
		return nil, nil
	}

	if err := rb.checkStatus(statusCode); err != nil {
		return nil, err
	}
	return &game, nil
}

func (rb *RestBoardBackend) RegisterPlayer(boardName, username, printName string) (*BoardPlayer, error) {
	body := map[string]interface{}{
		"username":   username,
		"print_name": printName,
	}

	var player BoardPlayer
	statusCode, err := rb.post(fmt.Sprintf("boards/%s/register", boardName), body, &player)
	if err != nil {
		return nil, err
	}
	if err := rb.checkStatus(statusCode); err != nil {
		return nil, err
	}
	return &player, nil
}

func (rb *RestBoardBackend) PostPartialGame(boardName string, submission PartialGameSubmission) (*PartialGame, error) {
	body := map[string]interface{}{
		"username":        submission.Username,
		"winner":          submission.IsWinner,
		"game_type":       submission.GameType,
		"partial_game_id": nil,
	}
	if submission.PartialGameID != UnsetValue {
		body["partial_game_id"] = submission.PartialGameID
	}

	var game PartialGame
	statusCode, err := rb.post(fmt.Sprintf("boards/%s/partial_game", boardName), body, &game)
	if err != nil {
		return nil, err
	}
	if err := rb.checkStatus(statusCode); err != nil {
		return nil, err
	}
	return &game, nil
}

func (rb *RestBoardBackend) DeletePartialGame(boardName string) error {
	req, err := http.NewRequest(http.MethodDelete, rb.url(fmt.Sprintf("boards/%s/partial_game", boardName)), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := rb.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return rb.checkStatus(resp.StatusCode)
}

func (rb *RestBoardBackend) PostFullGame(boardName string, teams []*GameTeam) error {
	body := map[string]interface{}{
		"teams": funk.Map(teams, func(team *GameTeam) map[string]interface{} {
			return map[string]interface{}{
				"rank": team.Rank,
				"players": funk.Map(team.Players, func(username string) map[string]interface{} {
					return map[string]interface{}{
						"username": username,
					}
				}).([]map[string]interface{}),
			}
		}).([]map[string]interface{}),
	}

	statusCode, err := rb.post(fmt.Sprintf("boards/%s/full_game", boardName), body, nil)
	if err != nil {
		return err
	}
	return rb.checkStatus(statusCode)
}

func (rb *RestBoardBackend) url(path string) string {
	return fmt.Sprintf("%s/%s", rb.baseURL, path)
}

// get 解碼成功回應, 404 與 204 留給呼叫端判讀
func (rb *RestBoardBackend) get(path string, out interface{}) (int, error) {
	req, err := http.NewRequest(http.MethodGet, rb.url(path), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	return rb.do(req, out)
}

func (rb *RestBoardBackend) post(path string, body interface{}, out interface{}) (int, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequest(http.MethodPost, rb.url(path), bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return rb.do(req, out)
}

func (rb *RestBoardBackend) do(req *http.Request, out interface{}) (int, error) {
	resp, err := rb.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
	}

	return resp.StatusCode, nil
}

func (rb *RestBoardBackend) checkStatus(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		return ErrBoardNotFound
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrRequestFailed, statusCode)
	}
}
