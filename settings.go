package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ServerConfig holds the process settings. Environment variables provide
// the defaults; command-line flags override them.
type ServerConfig struct {
	Host      string `env:"LUDO_HOST" envDefault:"localhost"`
	Port      int    `env:"LUDO_PORT" envDefault:"8080"`
	ConfigDir string `env:"CONFIG_DIR" envDefault:"configs"`

	Debug      bool   `env:"LUDO_DEBUG"`
	LogFile    string `env:"LUDO_LOG_FILE"`
	LogMaxSize int    `env:"LUDO_LOG_MAX_SIZE_MB" envDefault:"10"`

	SessionTTL      time.Duration `env:"LUDO_SESSION_TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"LUDO_CLEANUP_INTERVAL" envDefault:"1h"`
	WatchConfigs    bool          `env:"LUDO_WATCH_CONFIGS" envDefault:"true"`

	// ExternalAPI is probed by stdio-mcp before it starts its own server.
	ExternalAPI string `env:"LUDO_API_URL" envDefault:"http://localhost:8080"`

	NgrokEnabled bool   `env:"NGROK_ENABLED"`
	NgrokAuth    string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain  string `env:"NGROK_DOMAIN"`
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadServerConfig parses the environment.
func loadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	// NGROK_AUTH_TOKEN is accepted as well
	if cfg.NgrokAuth == "" {
		cfg.NgrokAuth = os.Getenv("NGROK_AUTH_TOKEN")
	}
	return cfg, nil
}

// applyFlags overrides cfg with the flags set on cmd.
func applyFlags(cfg *ServerConfig, cmd *cli.Command) {
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("config-dir") {
		cfg.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("log-file") {
		cfg.LogFile = cmd.String("log-file")
	}
	if cmd.IsSet("ngrok") {
		cfg.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.NgrokAuth = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.NgrokDomain = cmd.String("ngrok-domain")
	}
}

// setupLogging configures the standard logrus logger. Logs always go to
// stderr so stdout stays free for the MCP stdio transport.
func setupLogging(cfg *ServerConfig) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxAge:     7,
			MaxBackups: 3,
			LocalTime:  true,
			Compress:   true,
		})
	}
	log.SetOutput(out)
}
