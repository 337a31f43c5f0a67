package engine

import (
	"fmt"
	"strings"
	"time"
)

// PlayerConfig names one seat at the table.
type PlayerConfig struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// TimingConfig holds the presentation delays applied outside the rules.
type TimingConfig struct {
	// AutoAdvance schedules the clear/advance after a roll instead of waiting
	// for an explicit advance call.
	AutoAdvance      bool `json:"auto_advance" yaml:"auto_advance"`
	DiceClearDelayMS int  `json:"dice_clear_delay_ms" yaml:"dice_clear_delay_ms"`
	NoMoveDelayMS    int  `json:"no_move_delay_ms" yaml:"no_move_delay_ms"`
	ForfeitDelayMS   int  `json:"forfeit_delay_ms" yaml:"forfeit_delay_ms"`
}

func (t TimingConfig) DiceClearDelay() time.Duration {
	return time.Duration(t.DiceClearDelayMS) * time.Millisecond
}

func (t TimingConfig) NoMoveDelay() time.Duration {
	return time.Duration(t.NoMoveDelayMS) * time.Millisecond
}

func (t TimingConfig) ForfeitDelay() time.Duration {
	return time.Duration(t.ForfeitDelayMS) * time.Millisecond
}

// MessageConfig holds the status line templates. Every template takes the
// player name as its first argument.
type MessageConfig struct {
	Welcome   string `json:"welcome" yaml:"welcome"`
	Rolled    string `json:"rolled" yaml:"rolled"`
	NoMoves   string `json:"no_moves" yaml:"no_moves"`
	Forfeit   string `json:"forfeit" yaml:"forfeit"`
	Moved     string `json:"moved" yaml:"moved"`
	ExtraRoll string `json:"extra_roll" yaml:"extra_roll"`
	Finished  string `json:"finished" yaml:"finished"`
	GameOver  string `json:"game_over" yaml:"game_over"`
}

// TableConfig describes one table preset.
type TableConfig struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Players     []PlayerConfig `json:"players" yaml:"players"`
	Timing      TimingConfig   `json:"timing" yaml:"timing"`
	Messages    MessageConfig  `json:"messages" yaml:"messages"`
}

var defaultMessages = MessageConfig{
	Welcome:   "%s to roll",
	Rolled:    "%s rolled %d",
	NoMoves:   "%s rolled %d and has no legal move",
	Forfeit:   "%s rolled three sixes and forfeits the turn",
	Moved:     "%s moved token %d",
	ExtraRoll: "%s rolled a six and rolls again",
	Finished:  "%s brought every token home",
	GameOver:  "Game over, %s finished last",
}

// DefaultTableConfig returns the classic four-seat table.
func DefaultTableConfig() *TableConfig {
	cfg := &TableConfig{
		Name:        "classic",
		Description: "Classic four-player table",
		Timing: TimingConfig{
			AutoAdvance:      true,
			DiceClearDelayMS: 1000,
			NoMoveDelayMS:    2000,
			ForfeitDelayMS:   2000,
		},
		Messages: defaultMessages,
	}
	for _, color := range PlayerColors {
		cfg.Players = append(cfg.Players, PlayerConfig{
			Name:  strings.ToUpper(color[:1]) + color[1:],
			Color: color,
		})
	}
	return cfg
}

// ApplyDefaults fills empty message templates.
func (c *TableConfig) ApplyDefaults() {
	m := &c.Messages
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.Welcome, defaultMessages.Welcome)
	fill(&m.Rolled, defaultMessages.Rolled)
	fill(&m.NoMoves, defaultMessages.NoMoves)
	fill(&m.Forfeit, defaultMessages.Forfeit)
	fill(&m.Moved, defaultMessages.Moved)
	fill(&m.ExtraRoll, defaultMessages.ExtraRoll)
	fill(&m.Finished, defaultMessages.Finished)
	fill(&m.GameOver, defaultMessages.GameOver)
}

// PlayerName returns the configured name of seat p.
func (c *TableConfig) PlayerName(p int) string {
	if c != nil && p >= 0 && p < len(c.Players) && c.Players[p].Name != "" {
		return c.Players[p].Name
	}
	if validPlayer(p) {
		return PlayerColors[p]
	}
	return fmt.Sprintf("player %d", p)
}

// Render fills tmpl with seat p's name followed by args.
func (c *TableConfig) Render(tmpl string, p int, args ...any) string {
	return fmt.Sprintf(tmpl, append([]any{c.PlayerName(p)}, args...)...)
}

// PlayerColor returns the configured color of seat p.
func (c *TableConfig) PlayerColor(p int) string {
	if c != nil && p >= 0 && p < len(c.Players) && c.Players[p].Color != "" {
		return c.Players[p].Color
	}
	if validPlayer(p) {
		return PlayerColors[p]
	}
	return ""
}

// ValidateTableConfig checks a table preset for completeness.
func ValidateTableConfig(config *TableConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if len(config.Players) != PlayerCount {
		return fmt.Errorf("config validation: exactly %d players required, got %d", PlayerCount, len(config.Players))
	}
	colors := make(map[string]int, PlayerCount)
	for i, p := range config.Players {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("config validation: players[%d].name is required", i)
		}
		if p.Color == "" {
			return fmt.Errorf("config validation: players[%d].color is required", i)
		}
		if prev, dup := colors[p.Color]; dup {
			return fmt.Errorf("config validation: players[%d] and players[%d] share color %q", prev, i, p.Color)
		}
		colors[p.Color] = i
	}

	delays := map[string]int{
		"dice_clear_delay_ms": config.Timing.DiceClearDelayMS,
		"no_move_delay_ms":    config.Timing.NoMoveDelayMS,
		"forfeit_delay_ms":    config.Timing.ForfeitDelayMS,
	}
	for name, v := range delays {
		if v < 0 || v > MaxPresentationDelayMS {
			return fmt.Errorf("config validation: timing.%s must be between 0 and %d, got %d", name, MaxPresentationDelayMS, v)
		}
	}

	templates := map[string]string{
		"welcome":    config.Messages.Welcome,
		"rolled":     config.Messages.Rolled,
		"no_moves":   config.Messages.NoMoves,
		"forfeit":    config.Messages.Forfeit,
		"moved":      config.Messages.Moved,
		"extra_roll": config.Messages.ExtraRoll,
		"finished":   config.Messages.Finished,
		"game_over":  config.Messages.GameOver,
	}
	for name, tmpl := range templates {
		if tmpl == "" {
			continue
		}
		if i := strings.Index(tmpl, "%"); i < 0 || !strings.HasPrefix(tmpl[i:], "%s") {
			return fmt.Errorf("config validation: messages.%s must use %%s for the player name first", name)
		}
	}

	// Templates that receive a number after the name
	numeric := map[string]string{
		"rolled":   config.Messages.Rolled,
		"no_moves": config.Messages.NoMoves,
		"moved":    config.Messages.Moved,
	}
	for name, tmpl := range numeric {
		if tmpl != "" && !strings.Contains(tmpl, "%d") {
			return fmt.Errorf("config validation: messages.%s must contain %%d", name)
		}
	}
	return nil
}
