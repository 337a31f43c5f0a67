// Package api provides the HTTP REST handlers for the Ludo table server.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 create a table ({"config_id": "classic"})
//   - GET    /api/sessions                 list tables (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified         several tables at once (?sessionIds=a,b or ?configName=x)
//   - GET    /api/sessions/{id}            session details with the current state
//   - DELETE /api/sessions/{id}            close a table
//
// Turns:
//   - GET  /api/sessions/{id}/state       current game state
//   - POST /api/sessions/{id}/roll        roll the dice for the current player
//   - POST /api/sessions/{id}/select      move a token ({"token_index": 2})
//   - POST /api/sessions/{id}/advance     pass a blocked turn or clear the dice
//   - POST /api/sessions/{id}/reset       start the game over
//   - GET  /api/sessions/{id}/history     turn log (?page=1&limit=20&order=desc)
//
// Board and configuration:
//   - GET  /api/board                     derived topology and a cell grid
//   - GET  /api/configs                   table presets
//   - GET  /api/configs/{name}            one preset
//   - POST /api/configs                   save a preset
//
// Other:
//   - GET /healthz
//   - GET /ws?session={id}                live events for one table
//
// Errors are JSON objects with an "error" field. Unknown sessions and
// configs answer 404, malformed requests 400. An action the game is not
// waiting for (a roll while a selection is pending, a token that cannot
// move) answers 409 with "ignored": true and leaves the state untouched.
package api
