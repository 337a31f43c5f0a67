// Package service provides the business logic layer for the Ludo server.
//
// The service package implements:
//   - Multi-session game management
//   - Table configuration loading
//   - Turn operations (roll, select, advance, reset)
//   - Presentation pauses after blocked rolls, forfeits and moves
//   - Turn history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages table configuration loading and validation.
// Notifier receives every state change; the websocket hub implements it.
//
// Presentation pauses:
//
// The rule engine never waits. When a table has auto_advance enabled the
// service asks its scheduler to pass the turn after a blocked or forfeited
// roll, and to hide the dice after a move. Each task remembers the engine
// epoch it was armed at and does nothing if the game has changed since, so
// a reset or a manual advance can never be undone by a late timer.
//
// Usage:
//
//	topo := engine.MustBuildTopology()
//	sessions := session.NewManager(topo)
//	configs, _ := config.NewManager("configs")
//	svc := service.NewGameService(sessions, configs, topo,
//		service.WithNotifier(hub))
//	defer svc.Close()
//
//	info, err := svc.CreateSession(ctx, "classic")
//	roll, err := svc.Roll(ctx, info.ID)
//	if roll.CanMove {
//		_, err = svc.SelectToken(ctx, info.ID, roll.MovableTokens[0])
//	}
package service
