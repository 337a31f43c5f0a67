package service

import (
	"time"

	"github.com/wricardo/ludo-game/game/engine"
)

// Event names shared by service results and websocket broadcasts.
const (
	EventStateUpdate    = "state_update"
	EventDiceRolled     = "dice_rolled"
	EventTokenMoved     = "token_moved"
	EventTurnAdvanced   = "turn_advanced"
	EventGameReset      = "game_reset"
	EventNoMoves        = "no_moves"
	EventTurnForfeited  = "turn_forfeited"
	EventExtraRoll      = "extra_roll"
	EventTokenFinished  = "token_finished"
	EventPlayerFinished = "player_finished"
	EventGameOver       = "game_over"
	EventDiceCleared    = "dice_cleared"
)

// Pending actions the service schedules after a transition.
const (
	ActionAdvance   = "advance"
	ActionClearDice = "clear_dice"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.GameState   `json:"game_state"`
	TableConfig    *engine.TableConfig `json:"table_config"`
}

// PendingAction describes work the server will perform on its own after a
// presentation delay.
type PendingAction struct {
	Action  string `json:"action"`
	DelayMS int64  `json:"delay_ms"`
}

// RollResult contains the result of a roll
type RollResult struct {
	*engine.RollResult
	Events  []GameEvent    `json:"events"`
	Pending *PendingAction `json:"pending,omitempty"`
}

// SelectResult contains the result of a token selection
type SelectResult struct {
	*engine.SelectResult
	Events  []GameEvent    `json:"events"`
	Pending *PendingAction `json:"pending,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Player    int              `json:"player"`
	Dice      int              `json:"dice,omitempty"`
	Token     *int             `json:"token,omitempty"`
	From      *engine.Position `json:"from,omitempty"`
	To        *engine.Position `json:"to,omitempty"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains a page of the turn log
type HistoryResponse struct {
	Records      []engine.TurnRecord `json:"records"`
	TotalRecords int                 `json:"total_records"`
	Page         int                 `json:"page"`
	PageSize     int                 `json:"page_size"`
	TotalPages   int                 `json:"total_pages"`
	HasNext      bool                `json:"has_next"`
	HasPrevious  bool                `json:"has_previous"`
}

// BoardInfo is the static board: topology tables plus a rendered grid
// indexed as Grid[y][x].
type BoardInfo struct {
	Size     int                 `json:"size"`
	Topology *engine.Topology    `json:"topology"`
	Grid     [][]engine.CellType `json:"grid"`
}

// ConfigInfo provides information about a table configuration
type ConfigInfo struct {
	Filename    string   `json:"filename"`
	ConfigID    string   `json:"config_id"` // The identifier to use for session creation
	Name        string   `json:"name"`      // Display name
	Description string   `json:"description"`
	Players     []string `json:"players"`
	AutoAdvance bool     `json:"auto_advance"`
}
