package skillboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/thoas/go-funk"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// GraphQLBoardBackend 透過 GraphQL 存取遠端榜單
// 僅支援讀取與建立玩家的操作, 對局與鎖定沒有對應的 GraphQL Schema
type GraphQLBoardBackend struct {
	endpoint string
	client   *http.Client
}

func NewGraphQLBoardBackend(endpoint string) *GraphQLBoardBackend {
	return NewGraphQLBoardBackendWithClient(endpoint, &http.Client{
		Timeout: DefaultRequestTimeout,
	})
}

func NewGraphQLBoardBackendWithClient(endpoint string, client *http.Client) *GraphQLBoardBackend {
	return &GraphQLBoardBackend{
		endpoint: endpoint,
		client:   client,
	}
}

type graphqlPlayerPayload struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Rating *struct {
		Skill *float64 `json:"skill"`
	} `json:"rating"`
}

func (gp *graphqlPlayerPayload) toBoardPlayer() *BoardPlayer {
	player := &BoardPlayer{
		Username:      gp.Name,
		PrintName:     gp.Name,
		IsProvisional: true,
	}
	if gp.Rating != nil && gp.Rating.Skill != nil {
		player.Skill = *gp.Rating.Skill
		player.IsProvisional = false
	}
	return player
}

func (gb *GraphQLBoardBackend) ListPlayers(boardName string) ([]*BoardPlayer, error) {
	players, err := gb.listRawPlayers(boardName)
	if err != nil {
		return nil, err
	}

	return funk.Map(players, func(player *graphqlPlayerPayload) *BoardPlayer {
		return player.toBoardPlayer()
	}).([]*BoardPlayer), nil
}

func (gb *GraphQLBoardBackend) GetPlayer(boardName, username string) (*BoardPlayer, error) {
	players, err := gb.listRawPlayers(boardName)
	if err != nil {
		return nil, err
	}

	found := funk.Find(players, func(player *graphqlPlayerPayload) bool {
		return player.Name == username
	})
	if found == nil {
		return nil, ErrPlayerNotFound
	}
	return found.(*graphqlPlayerPayload).toBoardPlayer(), nil
}

func (gb *GraphQLBoardBackend) RegisterPlayer(boardName, username, printName string) (*BoardPlayer, error) {
	mutation := `
		mutation ($boardName: String!, $name: String!) {
			createPlayer(boardName: $boardName, name: $name) {
				id
				name
				rating {
					skill
				}
			}
		}`

	var result struct {
		CreatePlayer *graphqlPlayerPayload `json:"createPlayer"`
	}
	err := gb.do(mutation, map[string]interface{}{
		"boardName": boardName,
		"name":      username,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.CreatePlayer == nil {
		return nil, ErrRequestFailed
	}
	return result.CreatePlayer.toBoardPlayer(), nil
}

func (gb *GraphQLBoardBackend) GetRecentGame(boardName, username string) (*Game, error) {
	players, err := gb.listRawPlayers(boardName)
	if err != nil {
		return nil, err
	}

	found := funk.Find(players, func(player *graphqlPlayerPayload) bool {
		return player.Name == username
	})
	if found == nil {
		return nil, ErrPlayerNotFound
	}

	query := `
		query ($id: Int!) {
			player(id: $id) {
				games(recentCount: 1) {
					time
					teams {
						rank
						players {
							name
						}
					}
				}
			}
		}`

	var result struct {
		Player *struct {
			Games []*struct {
				Time  string `json:"time"`
				Teams []*struct {
					Rank    int `json:"rank"`
					Players []*struct {
						Name string `json:"name"`
					} `json:"players"`
				} `json:"teams"`
			} `json:"games"`
		} `json:"player"`
	}
	err = gb.do(query, map[string]interface{}{
		"id": found.(*graphqlPlayerPayload).ID,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Player == nil || len(result.Player.Games) == 0 {
		return nil, nil
	}

	recent := result.Player.Games[0]
	gameTime := int64(UnsetValue)
	if parsed, err := time.Parse(time.RFC3339, recent.Time); err == nil {
		gameTime = parsed.Unix()
	}

	game := &Game{
		Time:  gameTime,
		Teams: make([]*GameTeam, 0),
	}
	for _, team := range recent.Teams {
		gameTeam := &GameTeam{
			Rank:    team.Rank,
			Players: make([]string, 0),
		}
		for _, player := range team.Players {
			gameTeam.Players = append(gameTeam.Players, player.Name)
		}
		game.Teams = append(game.Teams, gameTeam)
	}
	return game, nil
}

func (gb *GraphQLBoardBackend) PostFullGame(boardName string, teams []*GameTeam) error {
	players, err := gb.listRawPlayers(boardName)
	if err != nil {
		return err
	}

	playerIDs := make(map[string]int64, len(players))
	for _, player := range players {
		playerIDs[player.Name] = player.ID
	}

	teamInputs := make([]map[string]interface{}, 0, len(teams))
	for _, team := range teams {
		playerInputs := make([]map[string]interface{}, 0, len(team.Players))
		for _, username := range team.Players {
			id, exist := playerIDs[username]
			if !exist {
				return ErrPlayerNotFound
			}
			playerInputs = append(playerInputs, map[string]interface{}{
				"id": id,
			})
		}
		teamInputs = append(teamInputs, map[string]interface{}{
			"rank":    team.Rank,
			"players": playerInputs,
		})
	}

	mutation := `
		mutation ($boardName: String!, $teams: [TeamInput!]!) {
			publishGame(boardName: $boardName, teams: $teams) {
				time
			}
		}`

	var result struct {
		PublishGame *struct {
			Time string `json:"time"`
		} `json:"publishGame"`
	}
	return gb.do(mutation, map[string]interface{}{
		"boardName": boardName,
		"teams":     teamInputs,
	}, &result)
}

// 以下操作沒有對應的 GraphQL Schema
func (gb *GraphQLBoardBackend) GetBoardLock(boardName string) (int64, error) {
	return UnsetValue, ErrBackendUnsupported
}

func (gb *GraphQLBoardBackend) GetPartialGame(boardName string) (*PartialGame, error) {
	return nil, ErrBackendUnsupported
}

func (gb *GraphQLBoardBackend) PostPartialGame(boardName string, submission PartialGameSubmission) (*PartialGame, error) {
	return nil, ErrBackendUnsupported
}

func (gb *GraphQLBoardBackend) DeletePartialGame(boardName string) error {
	return ErrBackendUnsupported
}

func (gb *GraphQLBoardBackend) listRawPlayers(boardName string) ([]*graphqlPlayerPayload, error) {
	query := `
		query ($name: String!) {
			board(name: $name) {
				players {
					id
					name
					rating {
						skill
					}
				}
			}
		}`

	var result struct {
		Board *struct {
			Players []*graphqlPlayerPayload `json:"players"`
		} `json:"board"`
	}
	err := gb.do(query, map[string]interface{}{
		"name": boardName,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Board == nil {
		return nil, ErrBoardNotFound
	}
	return result.Board.Players, nil
}

func (gb *GraphQLBoardBackend) do(query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"query":     whitespacePattern.ReplaceAllString(query, " "),
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequest(http.MethodPost, gb.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := gb.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d", ErrRequestFailed, resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrRequestFailed, envelope.Errors[0].Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
	}

	return nil
}
