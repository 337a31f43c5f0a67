package engine

import "github.com/samber/lo"

// PlayerTokens returns the indices of player's tokens.
func PlayerTokens(player int) []int {
	return lo.RangeFrom(player*TokensPerPlayer, TokensPerPlayer)
}

// Progress returns how many cells a token has covered: 0 at home, 1 on its
// start square, 58 when finished.
func Progress(topo *Topology, tok Token) int {
	switch {
	case tok.Position.IsHome():
		return 0
	case tok.Position.IsFinished():
		return TrackLength + HomeRunLength + 1
	case tok.Position.IsOnTrack():
		start := topo.StartIndex(tok.Player)
		return (int(tok.Position)-start+TrackLength)%TrackLength + 1
	}
	if k, ok := tok.Position.HomeRunOffset(tok.Player); ok {
		return TrackLength + k + 1
	}
	return 0
}

// PlayerStatuses counts each player's tokens at home, on the board and finished.
func PlayerStatuses(tokens []Token, config *TableConfig) []PlayerStatus {
	statuses := make([]PlayerStatus, PlayerCount)
	for p := range statuses {
		statuses[p] = PlayerStatus{
			Player: p,
			Name:   config.PlayerName(p),
			Color:  config.PlayerColor(p),
		}
	}
	for _, tok := range tokens {
		if !validPlayer(tok.Player) {
			continue
		}
		st := &statuses[tok.Player]
		switch {
		case tok.Position.IsHome():
			st.Home++
		case tok.Position.IsFinished():
			st.Finished++
		default:
			st.OnBoard++
		}
	}
	return statuses
}

func playerFinished(tokens []Token, player int) bool {
	mine := lo.Filter(tokens, func(t Token, _ int) bool { return t.Player == player })
	return len(mine) > 0 && lo.EveryBy(mine, func(t Token) bool { return t.Position.IsFinished() })
}

func allFinished(tokens []Token) bool {
	return lo.EveryBy(tokens, func(t Token) bool { return t.Position.IsFinished() })
}
