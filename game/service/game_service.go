package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/ludo-game/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Turn Operations
	Roll(ctx context.Context, sessionID string) (*RollResult, error)
	SelectToken(ctx context.Context, sessionID string, tokenIndex int) (*SelectResult, error)
	Advance(ctx context.Context, sessionID string) (*engine.GameState, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetBoard(ctx context.Context) (*BoardInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.TableConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.TableConfig) error

	// Close cancels pending presentation tasks.
	Close()
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.TableConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.TableConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles table configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.TableConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.TableConfig
	SaveConfig(name string, config *engine.TableConfig) error
}

// Notifier receives every state change, including the ones made by
// scheduled tasks.
type Notifier interface {
	BroadcastEvent(sessionID, event string, state *engine.GameState, data any)
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.TableConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
