package engine

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// CellType classifies a board cell for rendering.
type CellType string

const (
	CellEmpty   CellType = "empty"
	CellTrack   CellType = "track"
	CellSafe    CellType = "safe"
	CellStart   CellType = "start"
	CellHomeRun CellType = "home_run"
	CellYard    CellType = "yard"
	CellCenter  CellType = "center"
)

type rect struct {
	minX, minY, maxX, maxY int
}

func (r rect) contains(c Coord) bool {
	return c.X >= r.minX && c.X <= r.maxX && c.Y >= r.minY && c.Y <= r.maxY
}

var (
	yardRects = [PlayerCount]rect{
		{0, 0, 5, 5},
		{9, 0, 14, 5},
		{9, 9, 14, 14},
		{0, 9, 5, 14},
	}

	centerRect = rect{6, 6, 8, 8}

	entryCoords = [PlayerCount]Coord{
		{X: 1, Y: 6},
		{X: 8, Y: 1},
		{X: 13, Y: 8},
		{X: 6, Y: 13},
	}

	// Lanes run from the track toward the center.
	homeRunLanes = [PlayerCount][HomeRunLength]Coord{
		{{1, 7}, {2, 7}, {3, 7}, {4, 7}, {5, 7}},
		{{7, 1}, {7, 2}, {7, 3}, {7, 4}, {7, 5}},
		{{13, 7}, {12, 7}, {11, 7}, {10, 7}, {9, 7}},
		{{7, 13}, {7, 12}, {7, 11}, {7, 10}, {7, 9}},
	}

	yardSlots = [PlayerCount][TokensPerPlayer]Coord{
		{{1, 1}, {2, 1}, {1, 2}, {2, 2}},
		{{10, 1}, {11, 1}, {10, 2}, {11, 2}},
		{{10, 10}, {11, 10}, {10, 11}, {11, 11}},
		{{1, 10}, {2, 10}, {1, 11}, {2, 11}},
	}

	centerCoord = Coord{X: 7, Y: 7}
)

func yardOwner(c Coord) (int, bool) {
	for player, r := range yardRects {
		if r.contains(c) {
			return player, true
		}
	}
	return 0, false
}

// Topology holds the immutable board tables. It is built once and shared
// read-only by every engine.
type Topology struct {
	Track        []Coord                             `json:"track"`
	HomeRuns     [PlayerCount][HomeRunLength]Coord   `json:"home_runs"`
	HomeYards    [PlayerCount][TokensPerPlayer]Coord `json:"home_yards"`
	Entries      [PlayerCount]Coord                  `json:"entries"`
	StartIndices [PlayerCount]int                    `json:"start_indices"`
	SafeIndices  []int                               `json:"safe_indices"`
	Center       Coord                               `json:"center"`

	trackIndex map[Coord]int
	safe       map[int]bool
}

// BuildTopology derives the track and assembles the board tables. It fails
// when the derived track is not a closed 52-cell loop outside the yards that
// passes through every entry square.
func BuildTopology() (*Topology, error) {
	return buildTopology(defaultPathBuilder())
}

func buildTopology(b pathBuilder) (*Topology, error) {
	track, err := b.build()
	if err != nil {
		return nil, fmt.Errorf("build track: %w", err)
	}

	t := &Topology{
		Track:      track,
		HomeRuns:   homeRunLanes,
		HomeYards:  yardSlots,
		Entries:    entryCoords,
		Center:     centerCoord,
		trackIndex: make(map[Coord]int, len(track)),
		safe:       make(map[int]bool),
	}
	for i, c := range track {
		t.trackIndex[c] = i
	}
	for player, entry := range entryCoords {
		start := t.trackIndex[entry]
		t.StartIndices[player] = start
		t.safe[start] = true
		t.safe[(start+SafeOffsetFromStart)%TrackLength] = true
	}
	t.SafeIndices = lo.Keys(t.safe)
	slices.Sort(t.SafeIndices)

	return t, nil
}

// MustBuildTopology is BuildTopology for tests and tools; it panics on error.
func MustBuildTopology() *Topology {
	t, err := BuildTopology()
	if err != nil {
		panic(err)
	}
	return t
}

// StartIndex returns the track index where player's tokens enter.
func (t *Topology) StartIndex(player int) int {
	return t.StartIndices[player]
}

// TrackCoordinate returns the cell at track index i.
func (t *Topology) TrackCoordinate(i int) (Coord, error) {
	if i < 0 || i >= len(t.Track) {
		return Coord{}, fmt.Errorf("%w: track index %d", ErrOutOfRange, i)
	}
	return t.Track[i], nil
}

// HomeRunCoordinate returns cell k of player's home-run lane.
func (t *Topology) HomeRunCoordinate(player, k int) (Coord, error) {
	if !validPlayer(player) || k < 0 || k >= HomeRunLength {
		return Coord{}, fmt.Errorf("%w: home run %d/%d", ErrOutOfRange, player, k)
	}
	return t.HomeRuns[player][k], nil
}

// HomeYardCoordinate returns the yard slot for a token waiting at home.
func (t *Topology) HomeYardCoordinate(player, slot int) (Coord, error) {
	if !validPlayer(player) || slot < 0 || slot >= TokensPerPlayer {
		return Coord{}, fmt.Errorf("%w: yard slot %d/%d", ErrOutOfRange, player, slot)
	}
	return t.HomeYards[player][slot], nil
}

// TokenCoordinate places token i of tokens on the board. Finished tokens sit
// on the center cell.
func (t *Topology) TokenCoordinate(tokens []Token, i int) (Coord, error) {
	if i < 0 || i >= len(tokens) {
		return Coord{}, fmt.Errorf("%w: token %d", ErrInvalidToken, i)
	}
	tok := tokens[i]
	switch {
	case tok.Position.IsHome():
		return t.HomeYardCoordinate(tok.Player, i%TokensPerPlayer)
	case tok.Position.IsFinished():
		return t.Center, nil
	case tok.Position.IsOnTrack():
		return t.TrackCoordinate(int(tok.Position))
	}
	if k, ok := tok.Position.HomeRunOffset(tok.Player); ok {
		return t.HomeRunCoordinate(tok.Player, k)
	}
	return Coord{}, fmt.Errorf("%w: position %d", ErrOutOfRange, tok.Position)
}

// TrackIndex returns the track index of c.
func (t *Topology) TrackIndex(c Coord) (int, bool) {
	i, ok := t.trackIndex[c]
	return i, ok
}

// IsSafe reports whether track index i is a safe square. Safe squares are
// marked for display only.
func (t *Topology) IsSafe(i int) bool {
	return t.safe[i]
}

// CellAt classifies c.
func (t *Topology) CellAt(c Coord) CellType {
	if i, ok := t.trackIndex[c]; ok {
		if lo.Contains(t.StartIndices[:], i) {
			return CellStart
		}
		if t.safe[i] {
			return CellSafe
		}
		return CellTrack
	}
	for _, lane := range t.HomeRuns {
		if lo.Contains(lane[:], c) {
			return CellHomeRun
		}
	}
	if centerRect.contains(c) {
		return CellCenter
	}
	if _, ok := yardOwner(c); ok {
		return CellYard
	}
	return CellEmpty
}

func validPlayer(p int) bool {
	return p >= 0 && p < PlayerCount
}
