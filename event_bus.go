package skillboard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/jsm.go"
	"github.com/nats-io/nats.go"
)

type BoardEventType string

const (
	// BoardEventType
	BoardEvent_LeaderboardUpdated BoardEventType = "leaderboard_updated"  // 排行榜更新
	BoardEvent_PartialGameUpdated BoardEventType = "partial_game_updated" // 進行中對局更新
	BoardEvent_BoardLockUpdated   BoardEventType = "board_lock_updated"   // 榜單鎖定狀態更新
)

type BoardEvent struct {
	ID        string          `json:"id"`         // 事件 Unique ID
	BoardName string          `json:"board_name"` // 榜單名稱
	Type      BoardEventType  `json:"type"`       // 事件類型
	Payload   json.RawMessage `json:"payload"`    // 事件內容 (JSON)
	Timestamp int64           `json:"timestamp"`  // 發生時間 (Seconds)
}

// EventBus 對外廣播榜單事件 (選配, 不影響引擎正確性)
type EventBus interface {
	Publish(event *BoardEvent) error
	Close() error
}

type NativeEventBus struct {
	nc         *nats.Conn
	jsctx      nats.JetStreamContext
	jsmm       *jsm.Manager
	streamName string
}

func NewNativeEventBus() *NativeEventBus {

	neb := &NativeEventBus{}

	return neb
}

func (neb *NativeEventBus) Connect(url string) error {

	var nc *nats.Conn

	nc, err := nats.Connect(
		url,
		nats.Name("SB_LIB_SKILLBOARD"),
		nats.PingInterval((5 * time.Second)),
		nats.MaxPingsOutstanding(3),
		nats.MaxReconnects(-1), // means will reconnect forever
	)
	if err != nil {
		return err
	}

	jsctx, err := nc.JetStream(
		nats.PublishAsyncMaxPending(1024000),
	)
	if err != nil {
		return err
	}

	jsmm, err := jsm.New(nc, jsm.WithTimeout(10*time.Second))
	if err != nil {
		return err
	}

	neb.nc = nc
	neb.jsctx = jsctx
	neb.jsmm = jsmm

	return nil
}

func (neb *NativeEventBus) Close() error {

	neb.nc.Close()

	return nil
}

func (neb *NativeEventBus) Conn() *nats.Conn {
	return neb.nc
}

// AssertStream 確保榜單事件的 JetStream Stream 存在
func (neb *NativeEventBus) AssertStream(streamName string, subjects ...string) error {

	_, err := neb.jsmm.LoadOrNewStream(
		streamName,
		jsm.Subjects(subjects...),
		jsm.MemoryStorage(),
	)
	if err != nil {
		return err
	}

	neb.streamName = streamName

	return nil
}

func (neb *NativeEventBus) Publish(event *BoardEvent) error {

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("skillboard.board.%s", event.BoardName)
	_, err = neb.jsctx.Publish(subject, data)
	if err != nil {
		return err
	}

	return nil
}
