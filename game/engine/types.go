package engine

import (
	"fmt"
	"slices"
)

const (
	// Board geometry
	BoardSize       = 15
	TrackLength     = 52
	HomeRunLength   = 5
	TokensPerPlayer = 4
	PlayerCount     = 4
	TokenCount      = PlayerCount * TokensPerPlayer

	// Position encoding
	HomePosition     Position = -1
	FinishedPosition Position = 999
	homeRunBase               = 100
	homeRunStride             = 10

	// Turn rules
	SixValue            = 6
	MaxConsecutiveSix   = 3
	MinDiceValue        = 1
	MaxDiceValue        = 6
	SafeOffsetFromStart = 8

	// Path builder bound
	MaxWalkSteps = 200

	// Validation constants
	MaxPresentationDelayMS = 10000
	WebSocketBufferSize    = 256
)

// Player colors in seating order.
const (
	Red    = "red"
	Blue   = "blue"
	Green  = "green"
	Yellow = "yellow"
)

// PlayerColors lists the seat colors indexed by player.
var PlayerColors = [PlayerCount]string{Red, Blue, Green, Yellow}

// Coord is a cell on the 15x15 board.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Position encodes where a token is:
//
//	-1                       home yard
//	0..51                    outer track index
//	100 + player*10 + k      home-run cell k (0..4) of player
//	999                      finished
type Position int

// HomeRunPosition returns the encoded position of home-run cell k for player.
func HomeRunPosition(player, k int) Position {
	return Position(homeRunBase + player*homeRunStride + k)
}

func (p Position) IsHome() bool     { return p == HomePosition }
func (p Position) IsFinished() bool { return p == FinishedPosition }
func (p Position) IsOnTrack() bool  { return p >= 0 && p < TrackLength }

// HomeRunOffset returns the lane offset of p for player, or false when p is
// not one of that player's home-run cells.
func (p Position) HomeRunOffset(player int) (int, bool) {
	local := int(p) - (homeRunBase + player*homeRunStride)
	if local < 0 || local >= HomeRunLength {
		return 0, false
	}
	return local, true
}

// Token is one game piece. Its player never changes and its position only advances.
type Token struct {
	Player   int      `json:"player"`
	Position Position `json:"position"`
}

// Phase is the turn state machine state.
type Phase int

const (
	PhaseAwaitingRoll Phase = iota
	PhaseRolledForfeited
	PhaseRolledNoMoves
	PhaseRolledAwaitingSelection
)

var phaseNames = map[Phase]string{
	PhaseAwaitingRoll:            "awaiting_roll",
	PhaseRolledForfeited:         "rolled_forfeited",
	PhaseRolledNoMoves:           "rolled_no_moves",
	PhaseRolledAwaitingSelection: "rolled_awaiting_selection",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// PlayerStatus counts where a player's tokens are.
type PlayerStatus struct {
	Player   int    `json:"player"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Home     int    `json:"home"`
	OnBoard  int    `json:"on_board"`
	Finished int    `json:"finished"`
}

// GameState is a snapshot of one game.
type GameState struct {
	Tokens           []Token        `json:"tokens"`
	CurrentPlayer    int            `json:"current_player"`
	LastDice         *int           `json:"last_dice"`
	ConsecutiveSixes int            `json:"consecutive_sixes"`
	MovableTokens    []int          `json:"movable_tokens"`
	CanMove          bool           `json:"can_move"`
	Phase            Phase          `json:"phase"`
	Epoch            uint64         `json:"epoch"`
	Finished         bool           `json:"finished"`
	Standings        []int          `json:"standings"`
	Players          []PlayerStatus `json:"players"`
	Message          string         `json:"message"`
	TurnCount        int            `json:"turn_count"`
	ConfigName       string         `json:"config_name"`
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Tokens = slices.Clone(s.Tokens)
	c.MovableTokens = slices.Clone(s.MovableTokens)
	c.Standings = slices.Clone(s.Standings)
	c.Players = slices.Clone(s.Players)
	if s.LastDice != nil {
		v := *s.LastDice
		c.LastDice = &v
	}
	return &c
}

// RecordKind names a turn log entry.
type RecordKind string

const (
	RecordRoll    RecordKind = "roll"
	RecordMove    RecordKind = "move"
	RecordNoMove  RecordKind = "no_move"
	RecordForfeit RecordKind = "forfeit"
	RecordAdvance RecordKind = "advance"
	RecordReset   RecordKind = "reset"
)

// TurnRecord is a single entry in the turn log.
type TurnRecord struct {
	Seq        int        `json:"seq"`
	Kind       RecordKind `json:"kind"`
	Player     int        `json:"player"`
	Dice       int        `json:"dice,omitempty"`
	TokenIndex int        `json:"token_index"`
	From       Position   `json:"from"`
	To         Position   `json:"to"`
	Timestamp  int64      `json:"timestamp"`
}

// RollResult is returned by Roll.
type RollResult struct {
	Value            int        `json:"value"`
	Player           int        `json:"player"`
	MovableTokens    []int      `json:"movable_tokens"`
	CanMove          bool       `json:"can_move"`
	Forfeited        bool       `json:"forfeited"`
	Phase            Phase      `json:"phase"`
	NextPlayer       int        `json:"next_player"`
	ConsecutiveSixes int        `json:"consecutive_sixes"`
	State            *GameState `json:"game_state"`
}

// SelectResult is returned by SelectToken.
type SelectResult struct {
	TokenIndex      int        `json:"token_index"`
	From            Position   `json:"from"`
	To              Position   `json:"to"`
	Tokens          []Token    `json:"tokens"`
	NextPlayer      int        `json:"next_player"`
	GrantsExtraRoll bool       `json:"grants_extra_roll"`
	TokenFinished   bool       `json:"token_finished"`
	PlayerFinished  bool       `json:"player_finished"`
	GameOver        bool       `json:"game_over"`
	State           *GameState `json:"game_state"`
}

// NewTokens returns the sixteen tokens in their home yards.
func NewTokens() []Token {
	tokens := make([]Token, TokenCount)
	for i := range tokens {
		tokens[i] = Token{Player: i / TokensPerPlayer, Position: HomePosition}
	}
	return tokens
}

// NextPlayer returns the seat after p.
func NextPlayer(p int) int {
	return (p + 1) % PlayerCount
}
