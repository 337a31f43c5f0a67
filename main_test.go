package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/ludo-game/api"
	"github.com/wricardo/ludo-game/transport/mcp"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "Ludo Table Server", AppName)
}

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := loadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "configs", cfg.ConfigDir)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.True(t, cfg.WatchConfigs)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	t.Setenv("LUDO_PORT", "9191")
	t.Setenv("CONFIG_DIR", "/srv/tables")
	t.Setenv("LUDO_SESSION_TTL", "30m")
	t.Setenv("NGROK_AUTH_TOKEN", "secret")

	cfg, err := loadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "/srv/tables", cfg.ConfigDir)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "secret", cfg.NgrokAuth)
}

func TestLoadServerConfigInvalidEnv(t *testing.T) {
	t.Setenv("LUDO_PORT", "not-a-port")

	_, err := loadServerConfig()
	assert.Error(t, err)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LUDO_PORT", "9191")

	var got *ServerConfig
	app := newApp()
	app.Action = func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadServerConfig()
		if err != nil {
			return err
		}
		applyFlags(cfg, cmd)
		got = cfg
		return nil
	}

	require.NoError(t, app.Run(context.Background(), []string{"ludo", "--port", "7070", "--config-dir", "tables"}))
	require.NotNil(t, got)
	assert.Equal(t, 7070, got.Port)
	assert.Equal(t, "tables", got.ConfigDir)
	assert.Equal(t, "localhost", got.Host)
}

func TestInitializeServices(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	svcs, err := initializeServices(&ServerConfig{ConfigDir: "configs"})
	require.NoError(t, err)
	defer svcs.game.Close()

	assert.NotNil(t, svcs.topo)
	assert.NotNil(t, svcs.hub)

	configs, err := svcs.game.ListConfigs(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(configs))
	for _, c := range configs {
		ids = append(ids, c.ConfigID)
	}
	assert.Contains(t, ids, "classic")
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	_, err := initializeServices(&ServerConfig{ConfigDir: "/non/existent/path"})
	assert.Error(t, err)
}

func TestSessionCleanupRoutineStops(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	svcs, err := initializeServices(&ServerConfig{ConfigDir: "configs"})
	require.NoError(t, err)
	defer svcs.game.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sessionCleanupRoutine(ctx, svcs.sessions, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup routine did not stop")
	}
}

func TestMCPEndpoint(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	svcs, err := initializeServices(&ServerConfig{ConfigDir: "configs"})
	require.NoError(t, err)
	defer svcs.game.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svcs.hub.Run(ctx)

	// The MCP client needs the API's address, so the API is served first
	apiServer := httptest.NewServer(api.NewServer(svcs.game, svcs.hub))
	defer apiServer.Close()
	router := newRouter(api.NewServer(svcs.game, svcs.hub), mcp.NewClient(apiServer.URL, svcs.topo))

	t.Run("rejects GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("lists tools", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  "tools/list",
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", bytes.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code)

		for _, tool := range []string{"roll_dice", "select_token", "advance_turn", "board_layout"} {
			assert.Contains(t, w.Body.String(), tool)
		}
	})

	t.Run("calls through to the API", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      2,
			"method":  "tools/call",
			"params": map[string]any{
				"name":      "create_session",
				"arguments": map[string]any{},
			},
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", bytes.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Created session")

		sessions, err := svcs.game.ListSessions(context.Background())
		require.NoError(t, err)
		assert.Len(t, sessions, 1)
	})

	t.Run("api still served", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestExternalAPIAvailable(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	assert.True(t, externalAPIAvailable(healthy.URL))
	assert.False(t, externalAPIAvailable("http://127.0.0.1:1"))
}
