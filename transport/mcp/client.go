package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	topo       *engine.Topology
}

// NewClient creates a new MCP client that calls the REST API. The board
// topology is derived locally to render states; it is the same on every
// server.
func NewClient(baseURL string, topo *engine.Topology) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		topo: topo,
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Ludo",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Ludo - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Four players race four tokens each from their yard, once around the track and
up their home column to the center.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage tables
- game_state: current board, phase and movable tokens
- roll_dice: roll for the current player
- select_token: move one of the tokens offered by the roll
- advance_turn: pass a blocked or forfeited turn, or clear the dice
- reset_game: start the game over
- turn_history: the turn log
- board_layout: track coordinates and safe squares
- describe_cell: what a board coordinate is
- list_configs: available table presets
- game_instructions: the full rules`),
	)

	// Register all tools
	c.registerTools()
}

func sessionProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new table with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_id": map[string]any{
					"type":        "string",
					"description": "ID of the table preset to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active tables",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific table",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Turn operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state with a rendered board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "roll_dice",
		Description: "Roll the dice for the current player. Only valid while the game awaits a roll.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleRoll)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_token",
		Description: "Move one of the movable tokens offered by the last roll",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionProperty(),
				"token_index": map[string]any{
					"type":        "integer",
					"minimum":     0,
					"maximum":     engine.TokenCount - 1,
					"description": "Global token index (player*4 + k)",
				},
			},
			Required: []string{"session_id", "token_index"},
		},
	}, c.handleSelect)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance_turn",
		Description: "Pass the turn after a roll with no legal move or a forfeit, or clear the dice after a move",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleAdvance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to initial state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the turn log for a table",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionProperty(),
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]any{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHistory)

	// Board and configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_layout",
		Description: "List the track coordinates, start and safe squares, and home columns",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleBoardLayout)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one board coordinate: its cell type, track index and any tokens on it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionProperty(),
				"x": map[string]any{
					"type":        "integer",
					"description": "Column (0-14)",
				},
				"y": map[string]any{
					"type":        "integer",
					"description": "Row (0-14)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available table presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"].(string); ok {
			if ignored, _ := errResp["ignored"].(bool); ignored {
				return fmt.Errorf("%s (game state unchanged)", msg)
			}
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID := request.GetString("config_id", "")

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName,
		formatGameState(c.topo, session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil {
			if s.GameState.Finished {
				status = "finished"
			} else {
				status = fmt.Sprintf("%s, %s", playerName(s.GameState, s.GameState.CurrentPlayer), s.GameState.Phase)
			}
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s, %s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), status)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(c.topo, &session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(c.topo, &state)), nil
}

func (c *Client) handleRoll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var result service.RollResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/roll", sessionID), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRollResult(c.topo, &result)), nil
}

func (c *Client) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	tokenIndex := request.GetInt("token_index", -1)
	if tokenIndex < 0 {
		return mcp.NewToolResultError("token_index is required"), nil
	}

	var result service.SelectResult
	body := map[string]int{"token_index": tokenIndex}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/select", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSelectResult(c.topo, &result)), nil
}

func (c *Client) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/advance", sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(c.topo, &state)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/reset", sessionID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(c.topo, response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	page := request.GetInt("page", 1)
	limit := request.GetInt("limit", 20)
	order := request.GetString("order", "desc")

	path := fmt.Sprintf("/api/sessions/%s/history?page=%d&limit=%d&order=%s", sessionID, page, limit, order)
	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleBoardLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var board service.BoardInfo
	if err := c.apiCall(ctx, "GET", "/api/board", nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if board.Topology == nil {
		return mcp.NewToolResultError("board topology missing from response"), nil
	}

	return mcp.NewToolResultText(formatBoardLayout(board.Topology)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	cell := engine.Coord{X: request.GetInt("x", -1), Y: request.GetInt("y", -1)}
	if !cell.InBounds() {
		return mcp.NewToolResultError(fmt.Sprintf("coordinate %s out of bounds (board is %dx%d)",
			cell, engine.BoardSize, engine.BoardSize)), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell %s: %s\n", cell, c.topo.CellAt(cell))
	if idx, ok := c.topo.TrackIndex(cell); ok {
		fmt.Fprintf(&b, "Track index: %d\n", idx)
		if c.topo.IsSafe(idx) {
			b.WriteString("Safe square\n")
		}
	}

	tokens := tokensAt(c.topo, state.Tokens, cell)
	if len(tokens) == 0 {
		b.WriteString("No tokens here\n")
	}
	for _, i := range tokens {
		fmt.Fprintf(&b, "Token %d (%s) at position %d\n", i, playerName(&state, state.Tokens[i].Player), state.Tokens[i].Position)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		mode := "manual advance"
		if cfg.AutoAdvance {
			mode = "auto advance"
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n  Players: %s\n", cfg.ConfigID, cfg.Description, mode, strings.Join(cfg.Players, ", "))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `Ludo - Complete Instructions

GAME OBJECTIVE:
Bring all four of your tokens from your yard to the center. Players finish in
order; the game ends when every token of every player is home.

SEATS:
Player 0 Red, 1 Blue, 2 Green, 3 Yellow. Tokens are numbered globally:
player p owns tokens 4p .. 4p+3.

TURN FLOW:
1. roll_dice - the current player rolls 1-6.
2. If tokens can move, the roll lists them. Call select_token with one.
3. If no token can move the turn waits in rolled_no_moves; call advance_turn
   (tables with auto advance do this on their own after a short pause).
4. A six grants another roll. Three sixes in a row forfeit the turn.

MOVEMENT:
- A token leaves the yard only on a six, onto its start square.
- Tokens travel clockwise once around the 52-square track, then enter their
  own five-cell home column.
- The center must be reached by exact count. A roll that would overshoot does
  not move that token.
- Tokens may share squares; there are no captures.

BOARD LEGEND (game_state):
- R B G Y  tokens of Red, Blue, Green, Yellow (lowercase: two or more stacked)
- *        several colors on one cell
- o        track        s  safe square     S  start square
- =        home column  #  yard            C  center

STATES:
- awaiting_roll: roll_dice
- rolled_awaiting_selection: select_token with one of the movable tokens
- rolled_no_moves / rolled_forfeited: advance_turn

Actions sent in the wrong state are ignored and leave the game unchanged.`

// Formatting helpers

func formatSessionInfo(topo *engine.Topology, session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(topo, session.GameState))
}

func playerName(state *engine.GameState, player int) string {
	if state != nil && player >= 0 && player < len(state.Players) && state.Players[player].Name != "" {
		return state.Players[player].Name
	}
	if player >= 0 && player < engine.PlayerCount {
		return engine.PlayerColors[player]
	}
	return fmt.Sprintf("player %d", player)
}

func tokensAt(topo *engine.Topology, tokens []engine.Token, cell engine.Coord) []int {
	var out []int
	for i := range tokens {
		if c, err := topo.TokenCoordinate(tokens, i); err == nil && c == cell {
			out = append(out, i)
		}
	}
	return out
}

var cellChars = map[engine.CellType]byte{
	engine.CellEmpty:   ' ',
	engine.CellTrack:   'o',
	engine.CellSafe:    's',
	engine.CellStart:   'S',
	engine.CellHomeRun: '=',
	engine.CellYard:    '#',
	engine.CellCenter:  'C',
}

// renderBoard draws the 15x15 board with tokens on top of cell types.
func renderBoard(topo *engine.Topology, tokens []engine.Token) []string {
	occupants := make(map[engine.Coord][]int)
	for i := range tokens {
		if tokens[i].Position.IsFinished() {
			continue
		}
		if c, err := topo.TokenCoordinate(tokens, i); err == nil {
			occupants[c] = append(occupants[c], tokens[i].Player)
		}
	}

	rows := make([]string, engine.BoardSize)
	for y := 0; y < engine.BoardSize; y++ {
		row := make([]byte, engine.BoardSize)
		for x := 0; x < engine.BoardSize; x++ {
			c := engine.Coord{X: x, Y: y}
			players := lo.Uniq(occupants[c])
			switch {
			case len(players) > 1:
				row[x] = '*'
			case len(players) == 1:
				letter := strings.ToUpper(engine.PlayerColors[players[0]][:1])
				if len(occupants[c]) > 1 {
					letter = strings.ToLower(letter)
				}
				row[x] = letter[0]
			default:
				row[x] = cellChars[topo.CellAt(c)]
			}
		}
		rows[y] = string(row)
	}
	return rows
}

func formatGameState(topo *engine.Topology, state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	dice := "-"
	if state.LastDice != nil {
		dice = fmt.Sprint(*state.LastDice)
	}
	fmt.Fprintf(&b, "Turn: %s (player %d) | Phase: %s | Dice: %s | Sixes: %d | Turns: %d\n",
		playerName(state, state.CurrentPlayer), state.CurrentPlayer, state.Phase, dice,
		state.ConsecutiveSixes, state.TurnCount)
	if len(state.MovableTokens) > 0 {
		fmt.Fprintf(&b, "Movable tokens: %s\n", strings.Join(lo.Map(state.MovableTokens, func(i int, _ int) string {
			return fmt.Sprint(i)
		}), ", "))
	}

	for _, p := range state.Players {
		fmt.Fprintf(&b, "  %s: home %d, on board %d, finished %d\n", p.Name, p.Home, p.OnBoard, p.Finished)
	}
	b.WriteString("\n")

	if topo != nil && len(state.Tokens) == engine.TokenCount {
		for _, row := range renderBoard(topo, state.Tokens) {
			b.WriteString(row)
			b.WriteString("\n")
		}
	}

	if state.Finished {
		names := lo.Map(state.Standings, func(p int, _ int) string { return playerName(state, p) })
		fmt.Fprintf(&b, "\nGAME OVER. Standings: %s", strings.Join(names, ", "))
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatPending(p *service.PendingAction) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("Server will %s in %dms\n", strings.ReplaceAll(p.Action, "_", " "), p.DelayMS)
}

func formatRollResult(topo *engine.Topology, result *service.RollResult) string {
	if result.RollResult == nil {
		return "No roll result"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rolled %d\n", result.Value)
	switch {
	case result.Forfeited:
		b.WriteString("Third six in a row, turn forfeited\n")
	case !result.CanMove:
		b.WriteString("No legal move\n")
	default:
		fmt.Fprintf(&b, "Movable tokens: %v\n", result.MovableTokens)
	}
	b.WriteString(formatPending(result.Pending))
	b.WriteString("\n")
	b.WriteString(formatGameState(topo, result.State))
	return b.String()
}

func formatSelectResult(topo *engine.Topology, result *service.SelectResult) string {
	if result.SelectResult == nil {
		return "No move result"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Token %d moved %d -> %d\n", result.TokenIndex, result.From, result.To)
	for _, ev := range result.Events[1:] {
		fmt.Fprintf(&b, "- %s: %s\n", ev.Type, ev.Message)
	}
	b.WriteString(formatPending(result.Pending))
	b.WriteString("\n")
	b.WriteString(formatGameState(topo, result.State))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (Page %d/%d), total records: %d\n\n",
		history.Page, history.TotalPages, history.TotalRecords)

	for _, rec := range history.Records {
		fmt.Fprintf(&b, "%d. player %d %s", rec.Seq, rec.Player, rec.Kind)
		if rec.Dice > 0 {
			fmt.Fprintf(&b, " dice=%d", rec.Dice)
		}
		if rec.Kind == engine.RecordMove {
			fmt.Fprintf(&b, " token=%d %d->%d", rec.TokenIndex, rec.From, rec.To)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatBoardLayout(topo *engine.Topology) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Track (%d squares, clockwise):\n", len(topo.Track))
	for i, c := range topo.Track {
		marker := ""
		if lo.Contains(topo.StartIndices[:], i) {
			marker = " start"
		} else if lo.Contains(topo.SafeIndices, i) {
			marker = " safe"
		}
		fmt.Fprintf(&b, "%2d %s%s\n", i, c, marker)
	}

	b.WriteString("\nHome columns:\n")
	for p, lane := range topo.HomeRuns {
		cells := lo.Map(lane[:], func(c engine.Coord, _ int) string { return c.String() })
		fmt.Fprintf(&b, "%s: start %d, %s\n", engine.PlayerColors[p], topo.StartIndices[p], strings.Join(cells, " "))
	}
	fmt.Fprintf(&b, "Center: %s\n", topo.Center)
	return b.String()
}
