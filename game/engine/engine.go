package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state
	GetState() *GameState
	Reset() *GameState
	IsGameOver() bool
	Phase() Phase
	CurrentPlayer() int
	Epoch() uint64
	Standings() []int

	// Turn operations
	Roll() (*RollResult, error)
	SelectToken(index int) (*SelectResult, error)
	Advance() (*GameState, error)
	ClearDice() (*GameState, error)

	// Board and configuration
	GetTopology() *Topology
	GetConfig() *TableConfig

	// History
	GetHistory() []TurnRecord
	GetLastRecord() *TurnRecord
}

// GameEngine implements Engine. All methods are safe for concurrent use and
// every transition is applied atomically.
type GameEngine struct {
	mu      sync.Mutex
	topo    *Topology
	dice    Dice
	config  *TableConfig
	now     func() time.Time
	state   *GameState
	history []TurnRecord
}

// Option configures a GameEngine.
type Option func(*GameEngine)

// WithClock sets the clock used to timestamp turn records.
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) {
		e.now = now
	}
}

// NewEngine creates an engine over a prebuilt topology. A nil config selects
// DefaultTableConfig.
func NewEngine(topo *Topology, dice Dice, config *TableConfig, opts ...Option) (*GameEngine, error) {
	if topo == nil || len(topo.Track) != TrackLength {
		return nil, fmt.Errorf("%w: engine requires a built topology", ErrTopology)
	}
	if dice == nil {
		return nil, errors.New("engine requires a dice source")
	}
	if config == nil {
		config = DefaultTableConfig()
	}
	if err := ValidateTableConfig(config); err != nil {
		return nil, err
	}
	cfg := *config
	cfg.Players = append([]PlayerConfig{}, config.Players...)
	cfg.ApplyDefaults()

	e := &GameEngine{
		topo:    topo,
		dice:    dice,
		config:  &cfg,
		now:     time.Now,
		history: []TurnRecord{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = e.initialState(0)
	return e, nil
}

func (e *GameEngine) initialState(epoch uint64) *GameState {
	s := &GameState{
		Tokens:        NewTokens(),
		CurrentPlayer: 0,
		MovableTokens: []int{},
		Phase:         PhaseAwaitingRoll,
		Epoch:         epoch,
		Standings:     []int{},
		ConfigName:    e.config.Name,
	}
	s.Message = e.message(e.config.Messages.Welcome, s.CurrentPlayer)
	e.refreshPlayers(s)
	return s
}

// GetState returns a snapshot of the current state
func (e *GameEngine) GetState() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// GetTopology returns the shared board tables
func (e *GameEngine) GetTopology() *Topology {
	return e.topo
}

// GetConfig returns the table configuration
func (e *GameEngine) GetConfig() *TableConfig {
	return e.config
}

func (e *GameEngine) IsGameOver() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Finished
}

func (e *GameEngine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Phase
}

func (e *GameEngine) CurrentPlayer() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CurrentPlayer
}

// Epoch increases on every transition. Deferred work captures it and is
// dropped when it no longer matches.
func (e *GameEngine) Epoch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Epoch
}

// Standings returns the players in the order they finished.
func (e *GameEngine) Standings() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int{}, e.state.Standings...)
}

// Roll draws the dice for the current player and resolves the legal moves.
//
// A third consecutive six forfeits the turn without resolving moves. When no
// token can move the turn waits in PhaseRolledNoMoves; both cases are left by
// Advance.
func (e *GameEngine) Roll() (*RollResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	if s.Finished {
		return nil, ErrGameOver
	}
	if s.Phase != PhaseAwaitingRoll {
		return nil, fmt.Errorf("%w in phase %s", ErrRollNotExpected, s.Phase)
	}

	value := e.dice.Roll()
	if value < MinDiceValue || value > MaxDiceValue {
		return nil, fmt.Errorf("%w: dice returned %d", ErrInvalidDice, value)
	}

	player := s.CurrentPlayer
	s.LastDice = &value
	if value == SixValue {
		s.ConsecutiveSixes++
	} else {
		s.ConsecutiveSixes = 0
	}
	e.record(RecordRoll, player, value, -1, 0, 0)

	result := &RollResult{Value: value, Player: player, NextPlayer: player}

	if s.ConsecutiveSixes >= MaxConsecutiveSix {
		s.ConsecutiveSixes = 0
		s.MovableTokens = []int{}
		s.CanMove = false
		s.Phase = PhaseRolledForfeited
		s.Message = e.message(e.config.Messages.Forfeit, player)
		e.record(RecordForfeit, player, value, -1, 0, 0)
		result.Forfeited = true
		result.NextPlayer = NextPlayer(player)
	} else {
		movable, canMove := ResolveMoves(e.topo, s.Tokens, player, value)
		s.MovableTokens = movable
		s.CanMove = canMove
		if canMove {
			s.Phase = PhaseRolledAwaitingSelection
			s.Message = e.message(e.config.Messages.Rolled, player, value)
		} else {
			s.Phase = PhaseRolledNoMoves
			s.Message = e.message(e.config.Messages.NoMoves, player, value)
			e.record(RecordNoMove, player, value, -1, 0, 0)
			result.NextPlayer = NextPlayer(player)
		}
	}
	s.Epoch++

	result.MovableTokens = append([]int{}, s.MovableTokens...)
	result.CanMove = s.CanMove
	result.Phase = s.Phase
	result.ConsecutiveSixes = s.ConsecutiveSixes
	result.State = s.Clone()
	return result, nil
}

// SelectToken moves one of the tokens offered by the last roll. A six keeps
// the turn with the same player; any other value passes it on.
func (e *GameEngine) SelectToken(index int) (*SelectResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	if s.Phase != PhaseRolledAwaitingSelection || s.LastDice == nil {
		return nil, fmt.Errorf("%w in phase %s", ErrSelectNotExpected, s.Phase)
	}
	if !lo.Contains(s.MovableTokens, index) {
		return nil, fmt.Errorf("%w: token %d, movable %v", ErrTokenNotMovable, index, s.MovableTokens)
	}

	player := s.CurrentPlayer
	dice := *s.LastDice
	from := s.Tokens[index].Position

	tokens, err := ApplyMove(e.topo, s.Tokens, index, player, dice)
	if err != nil {
		return nil, err
	}
	to := tokens[index].Position

	s.Tokens = tokens
	s.MovableTokens = []int{}
	s.CanMove = false
	s.Phase = PhaseAwaitingRoll
	e.record(RecordMove, player, dice, index, from, to)

	result := &SelectResult{
		TokenIndex:    index,
		From:          from,
		To:            to,
		TokenFinished: to.IsFinished(),
	}

	s.Message = e.message(e.config.Messages.Moved, player, index)
	if playerFinished(s.Tokens, player) && !lo.Contains(s.Standings, player) {
		s.Standings = append(s.Standings, player)
		s.Message = e.message(e.config.Messages.Finished, player)
		result.PlayerFinished = true
	}
	if allFinished(s.Tokens) {
		s.Finished = true
		s.Message = e.message(e.config.Messages.GameOver, player)
		result.GameOver = true
	}

	if dice == SixValue {
		result.GrantsExtraRoll = true
		if !s.Finished && !result.PlayerFinished {
			s.Message = e.message(e.config.Messages.ExtraRoll, player)
		}
	} else {
		s.CurrentPlayer = NextPlayer(player)
		s.ConsecutiveSixes = 0
		s.TurnCount++
	}
	s.Epoch++
	e.refreshPlayers(s)

	result.NextPlayer = s.CurrentPlayer
	result.Tokens = append([]Token{}, s.Tokens...)
	result.State = s.Clone()
	return result, nil
}

// Advance leaves a forfeited or blocked roll and hands the turn to the next
// player. A blocked six does not earn another roll.
func (e *GameEngine) Advance() (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	if s.Phase != PhaseRolledForfeited && s.Phase != PhaseRolledNoMoves {
		return nil, fmt.Errorf("%w in phase %s", ErrNothingToAdvance, s.Phase)
	}

	from := s.CurrentPlayer
	s.CurrentPlayer = NextPlayer(from)
	s.ConsecutiveSixes = 0
	s.LastDice = nil
	s.MovableTokens = []int{}
	s.CanMove = false
	s.Phase = PhaseAwaitingRoll
	s.TurnCount++
	s.Epoch++
	s.Message = e.message(e.config.Messages.Welcome, s.CurrentPlayer)
	e.record(RecordAdvance, from, 0, -1, 0, 0)

	return s.Clone(), nil
}

// ClearDice hides the last dice value once a move has been shown. It never
// changes whose turn it is.
func (e *GameEngine) ClearDice() (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	if s.Phase != PhaseAwaitingRoll || s.LastDice == nil {
		return nil, fmt.Errorf("%w: no dice to clear", ErrNothingToAdvance)
	}
	s.LastDice = nil
	s.Epoch++
	if !s.Finished {
		s.Message = e.message(e.config.Messages.Welcome, s.CurrentPlayer)
	}
	return s.Clone(), nil
}

// Reset starts a new game. The turn log is kept and the epoch keeps
// counting so work scheduled before the reset is discarded.
func (e *GameEngine) Reset() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = e.initialState(e.state.Epoch + 1)
	e.record(RecordReset, 0, 0, -1, 0, 0)
	return e.state.Clone()
}

// GetHistory returns the complete turn log
func (e *GameEngine) GetHistory() []TurnRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]TurnRecord{}, e.history...)
}

// GetLastRecord returns the latest turn record, or nil if there is none
func (e *GameEngine) GetLastRecord() *TurnRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) == 0 {
		return nil
	}
	rec := e.history[len(e.history)-1]
	return &rec
}

func (e *GameEngine) record(kind RecordKind, player, dice, token int, from, to Position) {
	e.history = append(e.history, TurnRecord{
		Seq:        len(e.history) + 1,
		Kind:       kind,
		Player:     player,
		Dice:       dice,
		TokenIndex: token,
		From:       from,
		To:         to,
		Timestamp:  e.now().Unix(),
	})
}

func (e *GameEngine) message(tmpl string, player int, args ...any) string {
	return e.config.Render(tmpl, player, args...)
}

func (e *GameEngine) refreshPlayers(s *GameState) {
	s.Players = PlayerStatuses(s.Tokens, e.config)
}
