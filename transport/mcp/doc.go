// Package mcp exposes the Ludo table server to Model Context Protocol clients.
//
// The Client is a thin proxy: every tool calls the REST API of a running
// server and renders the answer as text. Boards are drawn from the locally
// derived topology, so only token positions travel over the wire.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - game_state, roll_dice, select_token, advance_turn, reset_game
//   - turn_history, board_layout, describe_cell
//   - list_configs, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", topo)
//	server.ServeStdio(client.GetMCPServer())
package mcp
