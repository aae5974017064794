package skillboard

const (
	DefaultPollIntervalMilliseconds = 1000
)

type BoardEngineSetting struct {
	BoardName    string    `json:"board_name"`    // 榜單名稱 (Unique)
	Meta         BoardMeta `json:"meta"`          // 榜單固定資料
	PollInterval int       `json:"poll_interval"` // 進行中對局輪詢間隔 (Milliseconds, 0 表示使用預設值 1000)
}
