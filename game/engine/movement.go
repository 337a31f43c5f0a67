package engine

import "fmt"

// Destination returns where a token of player at pos lands after moving dice
// cells, and false when the move is not legal. Landing must be exact: a token
// may reach the end of its home run but never pass it.
//
// Tokens at home leave only on a six and enter at the player's start index.
// Stacking is always permitted, so occupancy is never consulted.
func Destination(topo *Topology, player int, pos Position, dice int) (Position, bool) {
	if dice < MinDiceValue || dice > MaxDiceValue || !validPlayer(player) {
		return 0, false
	}

	switch {
	case pos.IsHome():
		if dice != SixValue {
			return 0, false
		}
		return Position(topo.StartIndex(player)), true

	case pos.IsFinished():
		return 0, false

	case pos.IsOnTrack():
		start := topo.StartIndex(player)
		traveled := (int(pos) - start + TrackLength) % TrackLength
		next := traveled + dice
		if next < TrackLength {
			return Position((start + next) % TrackLength), true
		}
		return homeRunDestination(player, next-TrackLength)
	}

	local, ok := pos.HomeRunOffset(player)
	if !ok {
		return 0, false
	}
	return homeRunDestination(player, local+dice)
}

// homeRunDestination maps a lane offset to a position. Offset 5 is the
// finish; anything past it overshoots.
func homeRunDestination(player, offset int) (Position, bool) {
	switch {
	case offset < HomeRunLength:
		return HomeRunPosition(player, offset), true
	case offset == HomeRunLength:
		return FinishedPosition, true
	default:
		return 0, false
	}
}

// ResolveMoves returns the indices of player's tokens that can legally move
// by dice, in ascending order, and whether any can. It does not modify tokens.
func ResolveMoves(topo *Topology, tokens []Token, player, dice int) ([]int, bool) {
	movable := []int{}
	for i, tok := range tokens {
		if tok.Player != player {
			continue
		}
		if _, ok := Destination(topo, player, tok.Position, dice); ok {
			movable = append(movable, i)
		}
	}
	return movable, len(movable) > 0
}

// ApplyMove moves token index by dice and returns the updated tokens. The
// input slice is left untouched.
func ApplyMove(topo *Topology, tokens []Token, index, player, dice int) ([]Token, error) {
	if index < 0 || index >= len(tokens) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidToken, index)
	}
	if dice < MinDiceValue || dice > MaxDiceValue {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDice, dice)
	}
	tok := tokens[index]
	if tok.Player != player {
		owner := fmt.Sprintf("player %d", tok.Player)
		if validPlayer(tok.Player) {
			owner = PlayerColors[tok.Player]
		}
		return nil, fmt.Errorf("%w: token %d belongs to %s", ErrNotYourToken, index, owner)
	}

	dest, ok := Destination(topo, player, tok.Position, dice)
	if !ok {
		return nil, fmt.Errorf("%w: token %d at %d with %d", ErrTokenNotMovable, index, tok.Position, dice)
	}

	next := make([]Token, len(tokens))
	copy(next, tokens)
	next[index].Position = dest
	return next, nil
}

// CanMove reports whether token index of player may move by dice.
func CanMove(topo *Topology, tokens []Token, index, player, dice int) bool {
	if index < 0 || index >= len(tokens) || tokens[index].Player != player {
		return false
	}
	_, ok := Destination(topo, player, tokens[index].Position, dice)
	return ok
}
