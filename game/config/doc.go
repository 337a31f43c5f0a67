// Package config provides table configuration management for the Ludo server.
//
// The config package handles:
//   - Loading table presets from YAML or JSON files
//   - Configuration validation through engine.ValidateTableConfig
//   - Default configuration management
//   - Configuration discovery, listing and saving
//   - Reloading presets when files in the directory change
//
// Configuration Format:
//
// Table presets live in the configs directory as name.yaml, name.yml or
// name.json. Each preset defines:
//   - The four seats (display name and color)
//   - Presentation timing: whether the server advances turns by itself and
//     how long the dice stay visible after a move, a blocked roll or a forfeit
//   - Status message templates
//
// The board and rules are fixed and are not part of a preset.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	table, err := manager.LoadConfig("quick")
//
//	// Get default configuration
//	defaultTable := manager.GetDefault()
//
//	// Keep the cache fresh while serving
//	go manager.Watch(ctx)
package config
