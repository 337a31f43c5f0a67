// Package engine provides the rules of four-player Ludo.
//
// The engine package implements:
//   - Procedural construction of the 52-cell outer track on a 15x15 cross board
//   - Home-run lanes, home yards and the start square of every player
//   - Move legality and application under the exact-landing rule
//   - The turn state machine with extra rolls and three-sixes forfeiture
//   - Table configuration validation
//
// Core Types:
//
// Topology holds the immutable board tables and is built once by
// BuildTopology, which fails when the derived track is malformed. The
// Engine interface defines the turn operations and is implemented by
// GameEngine; GameState is a snapshot of one game.
//
// Usage:
//
//	topo, err := engine.BuildTopology()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.NewEngine(topo, engine.NewCryptoDice(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	roll, _ := game.Roll()
//	if roll.CanMove {
//		game.SelectToken(roll.MovableTokens[0])
//	} else {
//		game.Advance()
//	}
//
// Token Positions:
//
// A token is -1 while in its yard, 0..51 on the outer track, 100+player*10+k
// on cell k of its home run and 999 once finished. Tokens leave the yard only
// on a six. A token may land on the last home-run cell by exact count but
// never overshoot it. Stacking is always allowed and there are no captures.
//
// Turns:
//
// A six grants another roll after the move; the third six in a row forfeits
// the turn. A roll with no legal move, and a forfeited roll, wait for Advance
// so a presentation layer can show the dice before the turn passes. Timing
// of that pause is not the engine's concern.
package engine
