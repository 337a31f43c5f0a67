package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/scheduler"
)

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithScheduler sets the scheduler used for presentation delays.
func WithScheduler(sch scheduler.Scheduler) Option {
	return func(s *gameServiceImpl) {
		s.scheduler = sch
	}
}

// WithNotifier sets the listener for state changes.
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) {
		s.notifier = n
	}
}

// WithClock sets the clock used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		s.now = now
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	topo      *engine.Topology
	scheduler scheduler.Scheduler
	notifier  Notifier
	now       func() time.Time

	// pending holds the scheduled task per session id
	pending map[string]int64
	mu      sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, topo *engine.Topology, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		topo:     topo,
		now:      time.Now,
		pending:  make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = scheduler.NewWheelScheduler()
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		TableConfig:    sess.Config,
	}
}

// session looks up a live session and marks it as accessed.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sess.ID)
	return sess, nil
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.TableConfig
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					configIDs := lo.Map(availableConfigs, func(c *ConfigInfo, _ int) string { return c.ConfigID })
					return nil, fmt.Errorf("%w: '%s', available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s', use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess, configName), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}
	return result, nil
}

// DeleteSession removes a session and drops its pending work
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	s.cancelPending(sess.ID)
	return s.sessions.Delete(sess.ID)
}

// Roll rolls the dice for the player whose turn it is
func (s *gameServiceImpl) Roll(ctx context.Context, sessionID string) (*RollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := sess.Engine.Roll()
	if err != nil {
		log.WithFields(log.Fields{"session": sess.ID, "error": err}).Debug("roll rejected")
		return nil, err
	}
	s.cancelPending(sess.ID)

	log.WithFields(log.Fields{
		"session": sess.ID,
		"player":  res.Player,
		"dice":    res.Value,
		"phase":   res.Phase.String(),
		"movable": res.MovableTokens,
	}).Info("dice rolled")

	rolled := s.newEvent(EventDiceRolled, res.Player, res.State.Message)
	rolled.Dice = res.Value
	out := &RollResult{RollResult: res, Events: []GameEvent{rolled}}
	s.notify(sess.ID, EventDiceRolled, res.State, rolled)

	var delay time.Duration
	switch res.Phase {
	case engine.PhaseRolledForfeited:
		out.Events = append(out.Events, s.newEvent(EventTurnForfeited, res.Player, res.State.Message))
		delay = sess.Config.Timing.ForfeitDelay()
	case engine.PhaseRolledNoMoves:
		out.Events = append(out.Events, s.newEvent(EventNoMoves, res.Player, res.State.Message))
		delay = sess.Config.Timing.NoMoveDelay()
	default:
		return out, nil
	}

	pending, followed, state := s.followUp(sess, ActionAdvance, delay)
	out.Pending = pending
	if followed != nil {
		out.Events = append(out.Events, *followed)
		out.State = state
	}
	return out, nil
}

// SelectToken moves one of the tokens offered by the last roll
func (s *gameServiceImpl) SelectToken(ctx context.Context, sessionID string, tokenIndex int) (*SelectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := sess.Engine.SelectToken(tokenIndex)
	if err != nil {
		log.WithFields(log.Fields{"session": sess.ID, "token": tokenIndex, "error": err}).Debug("selection rejected")
		return nil, err
	}
	s.cancelPending(sess.ID)

	mover := res.Tokens[res.TokenIndex].Player
	dice := lo.FromPtr(res.State.LastDice)
	log.WithFields(log.Fields{
		"session": sess.ID,
		"player":  mover,
		"token":   res.TokenIndex,
		"from":    res.From,
		"to":      res.To,
		"next":    res.NextPlayer,
	}).Info("token moved")

	moved := s.newEvent(EventTokenMoved, mover, sess.Config.Render(sess.Config.Messages.Moved, mover, res.TokenIndex))
	moved.Dice = dice
	moved.Token = lo.ToPtr(res.TokenIndex)
	moved.From = lo.ToPtr(res.From)
	moved.To = lo.ToPtr(res.To)
	out := &SelectResult{SelectResult: res, Events: []GameEvent{moved}}

	if res.TokenFinished {
		out.Events = append(out.Events, s.newEvent(EventTokenFinished, mover, fmt.Sprintf("Token %d reached the center", res.TokenIndex)))
	}
	if res.PlayerFinished {
		out.Events = append(out.Events, s.newEvent(EventPlayerFinished, mover, res.State.Message))
	}
	if res.GameOver {
		out.Events = append(out.Events, s.newEvent(EventGameOver, mover, res.State.Message))
		log.WithFields(log.Fields{"session": sess.ID, "standings": res.State.Standings}).Info("game over")
	} else if res.GrantsExtraRoll {
		out.Events = append(out.Events, s.newEvent(EventExtraRoll, mover, res.State.Message))
	}
	s.notify(sess.ID, EventTokenMoved, res.State, moved)

	pending, followed, state := s.followUp(sess, ActionClearDice, sess.Config.Timing.DiceClearDelay())
	out.Pending = pending
	if followed != nil {
		out.Events = append(out.Events, *followed)
		out.State = state
	}
	return out, nil
}

// Advance performs the presentation step the game is waiting for: passing
// the turn after a blocked or forfeited roll, or hiding the dice after a
// move.
func (s *gameServiceImpl) Advance(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var action string
	switch sess.Engine.Phase() {
	case engine.PhaseRolledForfeited, engine.PhaseRolledNoMoves:
		action = ActionAdvance
	case engine.PhaseAwaitingRoll:
		action = ActionClearDice
	default:
		return nil, fmt.Errorf("%w: a token must be selected first", engine.ErrNothingToAdvance)
	}

	_, state, err := s.apply(sess, action)
	if err != nil {
		return nil, err
	}
	s.cancelPending(sess.ID)
	return state, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.cancelPending(sess.ID)
	state := sess.Engine.Reset()
	log.WithFields(log.Fields{"session": sess.ID, "epoch": state.Epoch}).Info("game reset")

	s.notify(sess.ID, EventGameReset, state, s.newEvent(EventGameReset, state.CurrentPlayer, state.Message))
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetHistory returns a page of the turn log
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := min((opts.Page-1)*opts.Limit, total)
	end := min(start+opts.Limit, total)

	if opts.Order == "desc" {
		slices.Reverse(history)
	}
	records := append([]engine.TurnRecord{}, history[start:end]...)

	return &HistoryResponse{
		Records:      records,
		TotalRecords: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// GetBoard returns the static board layout
func (s *gameServiceImpl) GetBoard(ctx context.Context) (*BoardInfo, error) {
	if s.topo == nil {
		return nil, fmt.Errorf("%w: board not built", engine.ErrTopology)
	}

	grid := make([][]engine.CellType, engine.BoardSize)
	for y := range grid {
		grid[y] = make([]engine.CellType, engine.BoardSize)
		for x := range grid[y] {
			grid[y][x] = s.topo.CellAt(engine.Coord{X: x, Y: y})
		}
	}

	return &BoardInfo{
		Size:     engine.BoardSize,
		Topology: s.topo,
		Grid:     grid,
	}, nil
}

// ListConfigs returns available table configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific table configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.TableConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a table configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.TableConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) Close() {
	s.scheduler.Stop()
}

// followUp arranges the step that ends a presented transition. Without
// auto-advance nothing is arranged; a zero delay runs the step at once and
// returns its event and state. Caller holds s.mu.
func (s *gameServiceImpl) followUp(sess *Session, action string, delay time.Duration) (*PendingAction, *GameEvent, *engine.GameState) {
	if !sess.Config.Timing.AutoAdvance {
		return nil, nil, nil
	}

	if delay <= 0 {
		ev, state, err := s.apply(sess, action)
		if err != nil {
			log.WithFields(log.Fields{"session": sess.ID, "action": action, "error": err}).Warn("immediate follow-up failed")
			return nil, nil, nil
		}
		return nil, ev, state
	}

	epoch := sess.Engine.Epoch()
	sessionID := sess.ID
	taskID := new(int64)
	*taskID = s.scheduler.Once(delay, func() {
		s.runScheduled(sessionID, epoch, action, taskID)
	})
	if *taskID < 0 {
		return nil, nil, nil
	}
	s.pending[sessionID] = *taskID

	return &PendingAction{Action: action, DelayMS: delay.Milliseconds()}, nil, nil
}

// runScheduled is the body of every scheduled task. It does nothing when the
// game has moved on since the task was armed.
func (s *gameServiceImpl) runScheduled(sessionID string, epoch uint64, action string, taskID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending[sessionID] == *taskID {
		delete(s.pending, sessionID)
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return
	}
	if current := sess.Engine.Epoch(); current != epoch {
		log.WithFields(log.Fields{"session": sessionID, "action": action, "armed": epoch, "current": current}).Debug("stale task skipped")
		return
	}
	if _, _, err := s.apply(sess, action); err != nil {
		log.WithFields(log.Fields{"session": sessionID, "action": action, "error": err}).Warn("scheduled step failed")
	}
}

// apply performs a presentation step and notifies listeners. Caller holds
// s.mu.
func (s *gameServiceImpl) apply(sess *Session, action string) (*GameEvent, *engine.GameState, error) {
	switch action {
	case ActionAdvance:
		state, err := sess.Engine.Advance()
		if err != nil {
			return nil, nil, err
		}
		ev := s.newEvent(EventTurnAdvanced, state.CurrentPlayer, state.Message)
		log.WithFields(log.Fields{"session": sess.ID, "player": state.CurrentPlayer, "turn": state.TurnCount}).Info("turn advanced")
		s.notify(sess.ID, EventTurnAdvanced, state, ev)
		return &ev, state, nil
	case ActionClearDice:
		state, err := sess.Engine.ClearDice()
		if err != nil {
			return nil, nil, err
		}
		ev := s.newEvent(EventDiceCleared, state.CurrentPlayer, state.Message)
		s.notify(sess.ID, EventStateUpdate, state, ev)
		return &ev, state, nil
	default:
		return nil, nil, fmt.Errorf("unknown action %q", action)
	}
}

// cancelPending drops the scheduled task of a session. Caller holds s.mu.
func (s *gameServiceImpl) cancelPending(sessionID string) {
	if id, ok := s.pending[sessionID]; ok {
		s.scheduler.Cancel(id)
		delete(s.pending, sessionID)
	}
}

func (s *gameServiceImpl) notify(sessionID, event string, state *engine.GameState, data any) {
	if s.notifier != nil {
		s.notifier.BroadcastEvent(sessionID, event, state, data)
	}
}

func (s *gameServiceImpl) newEvent(typ string, player int, message string) GameEvent {
	return GameEvent{
		Type:      typ,
		Message:   message,
		Timestamp: s.now(),
		Player:    player,
	}
}
