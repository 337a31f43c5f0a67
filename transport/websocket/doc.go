// Package websocket provides WebSocket transport for the Ludo server.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Broadcasting of every state change, including the ones made by
//     scheduled presentation steps
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a pair of
// goroutines that manage reading, writing, and cleanup. The Hub implements
// service.Notifier, so the game service pushes events into it directly.
//
// Message Protocol:
//
// Each frame carries one JSON document:
//
//	{"session_id": "k3x9qa", "event": "dice_rolled", "game_state": {...}, "data": {...}}
//
// Events are state_update, dice_rolled, token_moved, turn_advanced and
// game_reset. Clients do not send actions over the socket; they use the
// REST API.
//
// Session Integration:
//
// Clients specify their session with ?session=ID when connecting and receive
// the current state immediately, then every later change of that session.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	svc := service.NewGameService(sessions, configs, topo, service.WithNotifier(hub))
package websocket
