package engine

import (
	"errors"
	"fmt"
)

// Board construction errors. All wrap ErrTopology.
var (
	ErrTopology      = errors.New("topology")
	ErrNoTrackCells  = fmt.Errorf("%w: walk anchor is not a track cell", ErrTopology)
	ErrWalkUnbounded = fmt.Errorf("%w: track walk did not close", ErrTopology)
	ErrWalkDeadEnd   = fmt.Errorf("%w: track walk reached a dead end", ErrTopology)
	ErrWalkRevisit   = fmt.Errorf("%w: track walk revisited a cell", ErrTopology)
	ErrTrackLength   = fmt.Errorf("%w: track length", ErrTopology)
	ErrTrackInYard   = fmt.Errorf("%w: track cell inside a home yard", ErrTopology)
	ErrEntryMissing  = fmt.Errorf("%w: entry coordinate missing from track", ErrTopology)
)

// Usage errors. Operations returning one of these leave the state unchanged.
var (
	ErrIgnored           = errors.New("ignored")
	ErrRollNotExpected   = fmt.Errorf("%w: roll not expected", ErrIgnored)
	ErrSelectNotExpected = fmt.Errorf("%w: no selection pending", ErrIgnored)
	ErrTokenNotMovable   = fmt.Errorf("%w: token not movable", ErrIgnored)
	ErrNothingToAdvance  = fmt.Errorf("%w: nothing to advance", ErrIgnored)
	ErrGameOver          = fmt.Errorf("%w: game over", ErrIgnored)
)

// Argument errors
var (
	ErrInvalidToken  = errors.New("invalid token index")
	ErrNotYourToken  = errors.New("token belongs to another player")
	ErrInvalidDice   = errors.New("invalid dice value")
	ErrInvalidPlayer = errors.New("invalid player")
	ErrOutOfRange    = errors.New("coordinate lookup out of range")
)
