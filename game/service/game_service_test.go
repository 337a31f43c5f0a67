package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/scheduler"
	"github.com/wricardo/ludo-game/game/service"
)

var testTopology = engine.MustBuildTopology()

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
	rolls    []int
}

func NewMockSessionManager(rolls ...int) *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		rolls:    rolls,
	}
}

func (m *MockSessionManager) Create(id string, config *engine.TableConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}

	eng, err := engine.NewEngine(testTopology, engine.NewSequenceDice(m.rolls...), config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         eng.GetConfig(),
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, id)
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.TableConfig) (*service.Session, error) {
	if session, err := m.Get(id); err == nil {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return fmt.Errorf("%w: %s", service.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return fmt.Errorf("%w: %s", service.ErrSessionNotFound, id)
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.TableConfig
}

func NewMockConfigManager() *MockConfigManager {
	classic := engine.DefaultTableConfig()

	manual := engine.DefaultTableConfig()
	manual.Name = "manual"
	manual.Description = "No automatic steps"
	manual.Timing = engine.TimingConfig{AutoAdvance: false}

	quick := engine.DefaultTableConfig()
	quick.Name = "quick"
	quick.Description = "Automatic steps without pauses"
	quick.Timing = engine.TimingConfig{AutoAdvance: true}

	return &MockConfigManager{
		configs: map[string]*engine.TableConfig{
			"classic": classic,
			"manual":  manual,
			"quick":   quick,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.TableConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, name)
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for id, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    id + ".yaml",
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			AutoAdvance: config.Timing.AutoAdvance,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ConfigID < result[j].ConfigID })
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.TableConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.TableConfig) error {
	if err := engine.ValidateTableConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

// recordingNotifier keeps the names of broadcast events
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	states []*engine.GameState
}

func (n *recordingNotifier) BroadcastEvent(sessionID, event string, state *engine.GameState, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.states = append(n.states, state)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.events...)
}

type fixture struct {
	svc       service.GameService
	sessions  *MockSessionManager
	scheduler *scheduler.Manual
	notifier  *recordingNotifier
	id        string
}

func newFixture(t *testing.T, configName string, rolls ...int) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  NewMockSessionManager(rolls...),
		scheduler: scheduler.NewManual(),
		notifier:  &recordingNotifier{},
	}
	f.svc = service.NewGameService(f.sessions, NewMockConfigManager(), testTopology,
		service.WithScheduler(f.scheduler),
		service.WithNotifier(f.notifier),
	)
	t.Cleanup(f.svc.Close)

	info, err := f.svc.CreateSession(context.Background(), configName)
	require.NoError(t, err)
	f.id = info.ID
	return f
}

func (f *fixture) state(t *testing.T) *engine.GameState {
	t.Helper()
	state, err := f.svc.GetGameState(context.Background(), f.id)
	require.NoError(t, err)
	return state
}

func eventTypes(events []service.GameEvent) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(1), NewMockConfigManager(), testTopology,
		service.WithScheduler(scheduler.NewManual()))
	defer svc.Close()

	t.Run("default config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "classic", info.ConfigName)
		assert.Equal(t, engine.PhaseAwaitingRoll, info.GameState.Phase)
		assert.Equal(t, "classic", info.TableConfig.Name)
	})

	t.Run("named config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "manual")
		require.NoError(t, err)
		assert.Equal(t, "manual", info.ConfigName)
		assert.False(t, info.TableConfig.Timing.AutoAdvance)
	})

	t.Run("unknown config lists the available ones", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "missing")
		require.ErrorIs(t, err, service.ErrConfigNotFound)
		assert.Contains(t, err.Error(), "classic manual quick")
	})
}

func TestGetAndListSessions(t *testing.T) {
	f := newFixture(t, "classic", 1)
	ctx := context.Background()

	info, err := f.svc.GetSession(ctx, f.id)
	require.NoError(t, err)
	assert.Equal(t, f.id, info.ID)

	second, err := f.svc.CreateSession(ctx, "quick")
	require.NoError(t, err)

	sessions, err := f.svc.ListSessions(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{f.id, second.ID}, ids)
}

func TestSessionNotFound(t *testing.T) {
	f := newFixture(t, "classic", 1)
	ctx := context.Background()

	_, err := f.svc.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = f.svc.Roll(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = f.svc.SelectToken(ctx, "nope", 0)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = f.svc.Advance(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = f.svc.Reset(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = f.svc.GetHistory(ctx, "nope", service.HistoryOptions{})
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.DeleteSession(ctx, "nope"), service.ErrSessionNotFound)
}

func TestRollWithoutMovesSchedulesAdvance(t *testing.T) {
	f := newFixture(t, "classic", 5)
	ctx := context.Background()

	result, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Value)
	assert.Equal(t, engine.PhaseRolledNoMoves, result.Phase)
	assert.Equal(t, []string{service.EventDiceRolled, service.EventNoMoves}, eventTypes(result.Events))
	require.NotNil(t, result.Pending)
	assert.Equal(t, service.ActionAdvance, result.Pending.Action)
	assert.Equal(t, int64(2000), result.Pending.DelayMS)
	assert.Equal(t, 1, f.scheduler.Len())

	// Still the same player until the pause is over
	assert.Equal(t, 0, f.state(t).CurrentPlayer)
	assert.Equal(t, 0, f.scheduler.Advance(1999*time.Millisecond))
	assert.Equal(t, 1, f.scheduler.Advance(time.Millisecond))

	state := f.state(t)
	assert.Equal(t, 1, state.CurrentPlayer)
	assert.Equal(t, engine.PhaseAwaitingRoll, state.Phase)
	assert.Nil(t, state.LastDice)
	assert.Equal(t, []string{service.EventDiceRolled, service.EventTurnAdvanced}, f.notifier.Events())
}

func TestRollOnManualTable(t *testing.T) {
	f := newFixture(t, "manual", 5)
	ctx := context.Background()

	result, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)
	assert.Nil(t, result.Pending)
	assert.Equal(t, 0, f.scheduler.Len())

	state, err := f.svc.Advance(ctx, f.id)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentPlayer)
	assert.Equal(t, engine.PhaseAwaitingRoll, state.Phase)
}

func TestRollOnQuickTableAdvancesAtOnce(t *testing.T) {
	f := newFixture(t, "quick", 5)

	result, err := f.svc.Roll(context.Background(), f.id)
	require.NoError(t, err)
	assert.Nil(t, result.Pending)
	assert.Equal(t, []string{service.EventDiceRolled, service.EventNoMoves, service.EventTurnAdvanced}, eventTypes(result.Events))
	assert.Equal(t, 1, result.State.CurrentPlayer)
	assert.Equal(t, engine.PhaseAwaitingRoll, result.State.Phase)
	// The roll itself is still reported
	assert.Equal(t, engine.PhaseRolledNoMoves, result.Phase)
	assert.Equal(t, 0, f.scheduler.Len())
}

func TestSelectSchedulesDiceClear(t *testing.T) {
	f := newFixture(t, "classic", 6)
	ctx := context.Background()

	roll, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, roll.MovableTokens)
	assert.Nil(t, roll.Pending)

	result, err := f.svc.SelectToken(ctx, f.id, 0)
	require.NoError(t, err)
	assert.True(t, result.GrantsExtraRoll)
	assert.Equal(t, engine.HomePosition, result.From)
	assert.Equal(t, engine.Position(testTopology.StartIndex(0)), result.To)
	assert.Equal(t, []string{service.EventTokenMoved, service.EventExtraRoll}, eventTypes(result.Events))
	require.NotNil(t, result.Events[0].Token)
	assert.Equal(t, 0, *result.Events[0].Token)
	assert.Equal(t, 6, result.Events[0].Dice)
	require.NotNil(t, result.Pending)
	assert.Equal(t, service.ActionClearDice, result.Pending.Action)

	require.NotNil(t, f.state(t).LastDice)
	assert.Equal(t, 1, f.scheduler.Advance(time.Second))

	state := f.state(t)
	assert.Nil(t, state.LastDice)
	assert.Equal(t, 0, state.CurrentPlayer)
	assert.Equal(t, engine.PhaseAwaitingRoll, state.Phase)
	events := f.notifier.Events()
	assert.Equal(t, service.EventStateUpdate, events[len(events)-1])
}

func TestMovedEventUsesTableTemplate(t *testing.T) {
	f := newFixture(t, "classic", 6)
	ctx := context.Background()

	custom := engine.DefaultTableConfig()
	custom.Name = "custom"
	custom.Players[0].Name = "Ann"
	custom.Messages.Moved = "%s advanced piece %d"
	require.NoError(t, f.svc.SaveConfig(ctx, "custom", custom))

	info, err := f.svc.CreateSession(ctx, "custom")
	require.NoError(t, err)
	_, err = f.svc.Roll(ctx, info.ID)
	require.NoError(t, err)

	result, err := f.svc.SelectToken(ctx, info.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, result.Events)
	assert.Equal(t, service.EventTokenMoved, result.Events[0].Type)
	assert.Equal(t, "Ann advanced piece 0", result.Events[0].Message)
}

func TestForfeitAfterThreeSixes(t *testing.T) {
	f := newFixture(t, "classic", 6)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Roll(ctx, f.id)
		require.NoError(t, err)
		// The next roll drops the pending dice clear
		assert.Equal(t, 0, f.scheduler.Len())
		_, err = f.svc.SelectToken(ctx, f.id, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, f.scheduler.Len())
	}

	result, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)
	assert.True(t, result.Forfeited)
	assert.Equal(t, engine.PhaseRolledForfeited, result.Phase)
	assert.Equal(t, []string{service.EventDiceRolled, service.EventTurnForfeited}, eventTypes(result.Events))
	require.NotNil(t, result.Pending)
	assert.Equal(t, service.ActionAdvance, result.Pending.Action)
	assert.Equal(t, 1, f.scheduler.Len())

	f.scheduler.Advance(2 * time.Second)
	state := f.state(t)
	assert.Equal(t, 1, state.CurrentPlayer)
	assert.Equal(t, 0, state.ConsecutiveSixes)
}

func TestStaleTaskIsSkipped(t *testing.T) {
	f := newFixture(t, "classic", 5, 4)
	ctx := context.Background()

	_, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)
	require.Equal(t, 1, f.scheduler.Len())

	// Move the engine on behind the service's back
	sess, err := f.sessions.Get(f.id)
	require.NoError(t, err)
	_, err = sess.Engine.Advance()
	require.NoError(t, err)
	_, err = sess.Engine.Roll()
	require.NoError(t, err)

	assert.Equal(t, 1, f.scheduler.Advance(2*time.Second))

	state := f.state(t)
	assert.Equal(t, 1, state.CurrentPlayer)
	assert.Equal(t, engine.PhaseRolledNoMoves, state.Phase)
}

func TestRejectedOperationsKeepPendingWork(t *testing.T) {
	f := newFixture(t, "classic", 5)
	ctx := context.Background()

	_, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)

	_, err = f.svc.Roll(ctx, f.id)
	assert.ErrorIs(t, err, engine.ErrRollNotExpected)
	assert.ErrorIs(t, err, engine.ErrIgnored)

	_, err = f.svc.SelectToken(ctx, f.id, 0)
	assert.ErrorIs(t, err, engine.ErrSelectNotExpected)

	assert.Equal(t, 1, f.scheduler.Len())
	f.scheduler.Advance(2 * time.Second)
	assert.Equal(t, 1, f.state(t).CurrentPlayer)
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to advance at the start", func(t *testing.T) {
		f := newFixture(t, "manual", 6)
		_, err := f.svc.Advance(ctx, f.id)
		assert.ErrorIs(t, err, engine.ErrNothingToAdvance)
	})

	t.Run("selection pending", func(t *testing.T) {
		f := newFixture(t, "manual", 6)
		_, err := f.svc.Roll(ctx, f.id)
		require.NoError(t, err)
		_, err = f.svc.Advance(ctx, f.id)
		assert.ErrorIs(t, err, engine.ErrNothingToAdvance)
	})

	t.Run("clears the dice after a move", func(t *testing.T) {
		f := newFixture(t, "manual", 6, 2)
		_, err := f.svc.Roll(ctx, f.id)
		require.NoError(t, err)
		_, err = f.svc.SelectToken(ctx, f.id, 1)
		require.NoError(t, err)

		state, err := f.svc.Advance(ctx, f.id)
		require.NoError(t, err)
		assert.Nil(t, state.LastDice)
		assert.Equal(t, 0, state.CurrentPlayer)
	})

	t.Run("cancels the scheduled advance", func(t *testing.T) {
		f := newFixture(t, "classic", 5)
		_, err := f.svc.Roll(ctx, f.id)
		require.NoError(t, err)
		require.Equal(t, 1, f.scheduler.Len())

		state, err := f.svc.Advance(ctx, f.id)
		require.NoError(t, err)
		assert.Equal(t, 1, state.CurrentPlayer)
		assert.Equal(t, 0, f.scheduler.Len())
	})
}

func TestResetCancelsPendingWork(t *testing.T) {
	f := newFixture(t, "classic", 5)
	ctx := context.Background()

	_, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)
	before := f.state(t).Epoch

	state, err := f.svc.Reset(ctx, f.id)
	require.NoError(t, err)
	assert.Greater(t, state.Epoch, before)
	assert.Equal(t, engine.PhaseAwaitingRoll, state.Phase)
	assert.Equal(t, 0, f.scheduler.Len())
	assert.Contains(t, f.notifier.Events(), service.EventGameReset)
}

func TestDeleteSessionCancelsPendingWork(t *testing.T) {
	f := newFixture(t, "classic", 5)
	ctx := context.Background()

	_, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteSession(ctx, f.id))
	assert.Equal(t, 0, f.scheduler.Len())

	_, err = f.svc.GetGameState(ctx, f.id)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestGetHistory(t *testing.T) {
	f := newFixture(t, "manual", 5)
	ctx := context.Background()

	// roll, no_move, advance, roll, no_move
	_, err := f.svc.Roll(ctx, f.id)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, f.id)
	require.NoError(t, err)
	_, err = f.svc.Roll(ctx, f.id)
	require.NoError(t, err)

	page, err := f.svc.GetHistory(ctx, f.id, service.HistoryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalRecords)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
	require.Len(t, page.Records, 2)
	assert.Equal(t, 5, page.Records[0].Seq)
	assert.Equal(t, engine.RecordNoMove, page.Records[0].Kind)
	assert.Equal(t, 1, page.Records[0].Player)

	page, err = f.svc.GetHistory(ctx, f.id, service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, 5, page.Records[0].Seq)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)

	page, err = f.svc.GetHistory(ctx, f.id, service.HistoryOptions{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.NotNil(t, page.Records)
}

func TestGetBoard(t *testing.T) {
	f := newFixture(t, "classic", 1)

	board, err := f.svc.GetBoard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.BoardSize, board.Size)
	require.Len(t, board.Grid, engine.BoardSize)
	assert.Len(t, board.Topology.Track, engine.TrackLength)

	assert.Equal(t, engine.CellStart, board.Grid[6][1])
	assert.Equal(t, engine.CellHomeRun, board.Grid[7][1])
	assert.Equal(t, engine.CellCenter, board.Grid[7][7])
	assert.Equal(t, engine.CellYard, board.Grid[0][0])
	assert.Equal(t, engine.CellTrack, board.Grid[6][2])

	counts := map[engine.CellType]int{}
	for _, row := range board.Grid {
		for _, cell := range row {
			counts[cell]++
		}
	}
	assert.Equal(t, engine.TrackLength, counts[engine.CellTrack]+counts[engine.CellSafe]+counts[engine.CellStart])
	assert.Equal(t, engine.PlayerCount, counts[engine.CellStart])
	assert.Equal(t, engine.PlayerCount*engine.HomeRunLength, counts[engine.CellHomeRun])
}

func TestConfigPassThrough(t *testing.T) {
	f := newFixture(t, "classic", 1)
	ctx := context.Background()

	configs, err := f.svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 3)

	custom := engine.DefaultTableConfig()
	custom.Name = "custom"
	require.NoError(t, f.svc.SaveConfig(ctx, "custom", custom))

	loaded, err := f.svc.LoadConfig(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", loaded.Name)

	_, err = f.svc.LoadConfig(ctx, "nope")
	assert.True(t, strings.Contains(err.Error(), "nope"))
}
