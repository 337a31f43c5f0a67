// Command ludo starts the Ludo table server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket
//     events and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if
//     none is available
//
// Settings come from the environment (a .env file is loaded when present)
// and can be overridden with flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/ludo-game/api"
	"github.com/wricardo/ludo-game/game/config"
	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
	"github.com/wricardo/ludo-game/game/session"
	"github.com/wricardo/ludo-game/transport/mcp"
	"github.com/wricardo/ludo-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Ludo Table Server"
)

const shutdownTimeout = 10 * time.Second

// services bundles what every mode needs.
type services struct {
	topo     *engine.Topology
	hub      *websocket.Hub
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.WithError(err).Fatal("ludo exited")
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "HTTP server host (env LUDO_HOST)"},
		&cli.IntFlag{Name: "port", Usage: "HTTP server port (env LUDO_PORT)"},
		&cli.StringFlag{Name: "config-dir", Usage: "Directory containing table configurations (env CONFIG_DIR)"},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging (env LUDO_DEBUG)"},
		&cli.StringFlag{Name: "log-file", Usage: "Also write logs to this rotated file (env LUDO_LOG_FILE)"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (env NGROK_ENABLED)"},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (env NGROK_AUTHTOKEN)"},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (env NGROK_DOMAIN)"},
	}
}

// newApp builds the command tree.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "ludo",
		Usage:   AppName,
		Version: Version,
		Flags:   globalFlags(),
		Action:  runMode(runHTTPServer),
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runMode(runHTTPServer),
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runMode(runStdioMCP),
			},
		},
	}
}

// runMode resolves settings and services before handing over to run.
func runMode(run func(context.Context, *ServerConfig, *services) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadServerConfig()
		if err != nil {
			return err
		}
		applyFlags(cfg, cmd)
		setupLogging(cfg)

		log.WithFields(log.Fields{"version": Version, "mode": cmd.Name}).Infof("starting %s", AppName)

		svcs, err := initializeServices(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svcs.game.Close()

		return run(ctx, cfg, svcs)
	}
}

// initializeServices derives the board and wires the session and config
// managers into the game service. Game events are published on the hub,
// which the selected mode runs.
func initializeServices(cfg *ServerConfig) (*services, error) {
	topo, err := engine.BuildTopology()
	if err != nil {
		return nil, fmt.Errorf("failed to build board: %w", err)
	}

	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager(topo)
	hub := websocket.NewHub()

	return &services{
		topo:     topo,
		hub:      hub,
		game:     service.NewGameService(sessionManager, configManager, topo, service.WithNotifier(hub)),
		sessions: sessionManager,
		configs:  configManager,
	}, nil
}

// newRouter combines the REST API and the /mcp endpoint.
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer serves the API, the WebSocket hub and the /mcp proxy until
// ctx is cancelled. With ngrok enabled the same router is also served through
// a public tunnel.
func runHTTPServer(ctx context.Context, cfg *ServerConfig, svcs *services) error {
	hub := svcs.hub
	addr := cfg.Addr()
	apiServer := api.NewServer(svcs.game, hub)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr), svcs.topo)
	router := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithFields(log.Fields{
			"rest": fmt.Sprintf("http://%s/api", addr),
			"ws":   fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":  fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		sessionCleanupRoutine(gctx, svcs.sessions, cfg.CleanupInterval, cfg.SessionTTL)
		return nil
	})

	if cfg.WatchConfigs {
		g.Go(func() error {
			if err := svcs.configs.Watch(gctx); err != nil {
				log.WithError(err).Warn("config watcher stopped")
			}
			return nil
		})
	}

	if cfg.NgrokEnabled {
		g.Go(func() error {
			serveNgrok(gctx, cfg, router)
			return nil
		})
	}

	err := g.Wait()
	log.Info("server stopped")
	return err
}

// serveNgrok exposes router through an ngrok tunnel until ctx is cancelled.
// Tunnel failures are logged and do not stop the server.
func serveNgrok(ctx context.Context, cfg *ServerConfig, router http.Handler) {
	if cfg.NgrokAuth == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.WithField("domain", cfg.NgrokDomain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	ngrokURL := tun.URL()
	log.WithFields(log.Fields{
		"rest": ngrokURL + "/api",
		"ws":   ngrokURL + "/ws?session=<session_id>",
		"mcp":  ngrokURL + "/mcp",
	}).Infof("ngrok tunnel established: %s", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	if err := http.Serve(tun, router); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.WithError(err).Warn("ngrok server error")
	}
	log.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, ttl time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.WithField("removed", removed).Info("cleaned up expired sessions")
			}
		}
	}
}

// externalAPIAvailable reports whether a table server answers at baseURL.
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses the API at
// cfg.ExternalAPI when one answers; otherwise it starts an internal HTTP API
// on a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cfg *ServerConfig, svcs *services) error {
	baseURL := cfg.ExternalAPI
	log.WithField("url", baseURL).Info("checking for external API server")

	if externalAPIAvailable(baseURL) {
		log.WithField("url", baseURL).Info("external API server found, using it for MCP")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		log.WithField("url", baseURL).Info("no external API server found, starting internal HTTP server")

		go svcs.hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(svcs.game, svcs.hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()
	}

	mcpClient := mcp.NewClient(baseURL, svcs.topo)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
