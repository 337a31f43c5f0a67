package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/ludo-game/game/engine"
)

func createTestConfigDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir
}

func createValidConfig() *engine.TableConfig {
	cfg := engine.DefaultTableConfig()
	cfg.Name = "Test Table"
	cfg.Description = "Test configuration"
	return cfg
}

func writeConfigFile(t *testing.T, dir, filename string, config *engine.TableConfig) {
	var (
		data []byte
		err  error
	)
	if filepath.Ext(filename) == ".json" {
		data, err = json.MarshalIndent(config, "", "  ")
	} else {
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		classic := createValidConfig()
		classic.Name = "Classic"
		writeConfigFile(t, dir, "classic.yaml", classic)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected classic to be the default, got %q", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got error: %v", err)
		}

		defaultConfig := manager.GetDefault()
		if defaultConfig == nil || defaultConfig.Name != "classic" {
			t.Errorf("Expected built-in classic default, got %+v", defaultConfig)
		}
	})

	t.Run("first config becomes default", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		writeConfigFile(t, dir, "zeta.yaml", createValidConfig())
		alpha := createValidConfig()
		alpha.Name = "Alpha"
		writeConfigFile(t, dir, "alpha.json", alpha)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Alpha" {
			t.Errorf("Expected Alpha as default, got %q", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	quick := createValidConfig()
	quick.Name = "Quick"
	quick.Timing.AutoAdvance = false
	quick.Timing.DiceClearDelayMS = 0
	writeConfigFile(t, dir, "quick.yaml", quick)

	family := createValidConfig()
	family.Name = "Family"
	family.Players[0].Name = "Mum"
	writeConfigFile(t, dir, "family.json", family)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load yaml config", func(t *testing.T) {
		config, err := manager.LoadConfig("quick")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Quick" {
			t.Errorf("Expected config name 'Quick', got '%s'", config.Name)
		}
		if config.Timing.AutoAdvance {
			t.Error("Expected auto advance to be off")
		}
	})

	t.Run("load json config", func(t *testing.T) {
		config, err := manager.LoadConfig("family")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Players[0].Name != "Mum" {
			t.Errorf("Expected first player 'Mum', got '%s'", config.Players[0].Name)
		}
	})

	t.Run("load with extension", func(t *testing.T) {
		config, err := manager.LoadConfig("family.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Family" {
			t.Errorf("Expected config name 'Family', got '%s'", config.Name)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("quick")
		config2, err := manager.LoadConfig("quick")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "invalid.yaml"), []byte("name: \"\"\n"), 0644); err != nil {
			t.Fatalf("Failed to write invalid config: %v", err)
		}

		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "malformed.json"), []byte(`{"name": "Malformed", invalid json}`), 0644); err != nil {
			t.Fatalf("Failed to write malformed config: %v", err)
		}

		if _, err := manager.LoadConfig("malformed"); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})
}

func TestParseFillsDefaultMessages(t *testing.T) {
	data := []byte(`
name: sparse
description: Only the required fields
players:
  - {name: Ann, color: red}
  - {name: Ben, color: blue}
  - {name: Cat, color: green}
  - {name: Dan, color: yellow}
messages:
  rolled: "%s threw %d"
`)
	config, err := Parse(data, ".yaml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if config.Messages.Rolled != "%s threw %d" {
		t.Errorf("Expected custom rolled message, got %q", config.Messages.Rolled)
	}
	if config.Messages.Welcome == "" {
		t.Error("Expected default welcome message")
	}
	if config.Timing.AutoAdvance {
		t.Error("Expected auto advance to default to false")
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "classic.yaml", createValidConfig())
	writeConfigFile(t, dir, "family.json", createValidConfig())
	if err := os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("players: 3"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	if configs[0].ConfigID != "classic" || configs[1].ConfigID != "family" {
		t.Errorf("Expected classic and family, got %s and %s", configs[0].ConfigID, configs[1].ConfigID)
	}
	if len(configs[0].Players) != engine.PlayerCount {
		t.Errorf("Expected %d player names, got %v", engine.PlayerCount, configs[0].Players)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	other := createValidConfig()
	other.Name = "Other"
	writeConfigFile(t, dir, "other.yaml", other)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("other"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Name != "Other" {
		t.Errorf("Expected default 'Other', got %q", manager.GetDefault().Name)
	}

	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config := createValidConfig()
	config.Name = "Saved"
	if err := manager.SaveConfig("saved", config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "saved.yaml")); err != nil {
		t.Fatalf("Expected saved.yaml on disk: %v", err)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	loaded, err := manager.LoadConfig("saved")
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Name != "Saved" || len(loaded.Players) != engine.PlayerCount {
		t.Errorf("Reloaded config mismatch: %+v", loaded)
	}

	bad := createValidConfig()
	bad.Players = nil
	if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := manager.SaveConfig("../escape", createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for a path id, got %v", err)
	}
}

func TestManager_ConcurrentLoads(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)
	writeConfigFile(t, dir, "classic.yaml", createValidConfig())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("classic"); err != nil {
				t.Errorf("LoadConfig failed: %v", err)
			}
			_ = manager.GetDefault()
		}()
	}
	wg.Wait()
}

func TestManager_WatchRefreshesCache(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	config := createValidConfig()
	config.Description = "before"
	writeConfigFile(t, dir, "classic.yaml", config)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- manager.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	config.Description = "after"
	writeConfigFile(t, dir, "classic.yaml", config)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		loaded, err := manager.LoadConfig("classic")
		if err == nil && loaded.Description == "after" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("Expected watcher to pick up the rewritten config")
}
