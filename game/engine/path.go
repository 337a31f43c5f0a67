package engine

import (
	"fmt"

	"github.com/samber/lo"
)

// Walk directions, clockwise on screen (y grows downward).
const (
	dirRight = iota
	dirDown
	dirLeft
	dirUp
)

var directionSteps = [4]Coord{
	dirRight: {X: 1, Y: 0},
	dirDown:  {X: 0, Y: 1},
	dirLeft:  {X: -1, Y: 0},
	dirUp:    {X: 0, Y: -1},
}

var armEnds = map[Coord]bool{
	{X: 7, Y: 0}:  true,
	{X: 14, Y: 7}: true,
	{X: 7, Y: 14}: true,
	{X: 0, Y: 7}:  true,
}

func (c Coord) add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

// InBounds reports whether c lies on the board.
func (c Coord) InBounds() bool {
	return c.X >= 0 && c.X < BoardSize && c.Y >= 0 && c.Y < BoardSize
}

func inBand(v int) bool {
	return v >= 6 && v <= 8
}

// IsTrackCell reports whether c belongs to the outer track: the two neutral
// lanes of every arm of the cross plus the cell joining them at the arm's end.
// The middle lane of each arm is the home run and the 3x3 block is the center.
func IsTrackCell(c Coord) bool {
	if !c.InBounds() {
		return false
	}
	if !inBand(c.X) && !inBand(c.Y) {
		return false
	}
	if inBand(c.X) && inBand(c.Y) {
		return false
	}
	if c.X == 7 || c.Y == 7 {
		return armEnds[c]
	}
	return true
}

// pathBuilder derives the track from a cell predicate.
type pathBuilder struct {
	isTrack  func(Coord) bool
	anchor   Coord
	maxSteps int
}

func defaultPathBuilder() pathBuilder {
	return pathBuilder{
		isTrack:  IsTrackCell,
		anchor:   entryCoords[0],
		maxSteps: MaxWalkSteps,
	}
}

// build walks the predicate from the anchor, rejects walks that revisit a
// cell, rotates the anchor to index 0 and validates the result.
func (b pathBuilder) build() ([]Coord, error) {
	if !b.isTrack(b.anchor) {
		return nil, fmt.Errorf("%w: %s", ErrNoTrackCells, b.anchor)
	}

	walked, err := b.walk(b.anchor)
	if err != nil {
		return nil, err
	}

	unique := lo.Uniq(walked)
	if len(unique) != len(walked) {
		return nil, fmt.Errorf("%w: %d of %d cells repeated", ErrWalkRevisit, len(walked)-len(unique), len(walked))
	}

	track := rotateTo(unique, b.anchor)
	if err := validateTrack(track); err != nil {
		return nil, err
	}
	return track, nil
}

// walk follows the track clockwise until it returns to origin.
func (b pathBuilder) walk(origin Coord) ([]Coord, error) {
	path := []Coord{origin}
	cur, dir := origin, dirRight

	for step := 0; step < b.maxSteps; step++ {
		next, nextDir, ok := b.step(cur, dir)
		if !ok {
			return nil, fmt.Errorf("%w at %s after %d steps", ErrWalkDeadEnd, cur, step)
		}
		if next == origin {
			return path, nil
		}
		path = append(path, next)
		cur, dir = next, nextDir
	}
	return nil, fmt.Errorf("%w within %d steps", ErrWalkUnbounded, b.maxSteps)
}

// step scans the orthogonal neighbours clockwise from dir, never reversing.
// At an inner corner of the cross there is no orthogonal neighbour and the
// walk cuts the corner diagonally, turning counter-clockwise.
func (b pathBuilder) step(cur Coord, dir int) (Coord, int, bool) {
	reverse := (dir + 2) % 4
	for i := 0; i < 4; i++ {
		d := (dir + i) % 4
		if d == reverse {
			continue
		}
		if next := cur.add(directionSteps[d]); b.isTrack(next) {
			return next, d, true
		}
	}

	ccw := (dir + 3) % 4
	if next := cur.add(directionSteps[dir]).add(directionSteps[ccw]); b.isTrack(next) {
		return next, ccw, true
	}
	return Coord{}, dir, false
}

// rotateTo returns cells rotated so anchor comes first. Cells are returned
// unchanged when anchor is absent; validation reports that case.
func rotateTo(cells []Coord, anchor Coord) []Coord {
	for i, c := range cells {
		if c == anchor {
			return append(append([]Coord{}, cells[i:]...), cells[:i]...)
		}
	}
	return cells
}

func validateTrack(track []Coord) error {
	if len(track) != TrackLength {
		return fmt.Errorf("%w: expected %d cells, got %d", ErrTrackLength, TrackLength, len(track))
	}
	for i, c := range track {
		if player, ok := yardOwner(c); ok {
			return fmt.Errorf("%w: index %d at %s is in the %s yard", ErrTrackInYard, i, c, PlayerColors[player])
		}
	}
	for player, entry := range entryCoords {
		if !lo.Contains(track, entry) {
			return fmt.Errorf("%w: %s entry %s", ErrEntryMissing, PlayerColors[player], entry)
		}
	}
	return nil
}
