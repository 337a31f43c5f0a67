// Command validate checks the table presets in a configs directory
// (../configs unless a directory is given). It checks:
//   - YAML/JSON structure and required fields
//   - four players with distinct colors
//   - presentation delays within range
//   - message templates that take the player name first
//
// It also warns about settings that have no effect, and verifies once that
// the board topology derives cleanly.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/wricardo/ludo-game/game/config"
	"github.com/wricardo/ludo-game/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages and warnings;
// otherwise it accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

var configExtensions = []string{".yaml", ".yml", ".json"}

// validateConfig loads and validates a single table preset.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	cfg, err := config.Parse(data, filepath.Ext(filePath))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Errors = append(result.Errors, lintConfig(filePath, cfg)...)

	names := lo.Map(cfg.Players, func(p engine.PlayerConfig, _ int) string { return p.Name })
	mode := "manual advance"
	if cfg.Timing.AutoAdvance {
		mode = fmt.Sprintf("auto advance (clear %dms, no move %dms, forfeit %dms)",
			cfg.Timing.DiceClearDelayMS, cfg.Timing.NoMoveDelayMS, cfg.Timing.ForfeitDelayMS)
	}
	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ Name: %s", cfg.Name),
		fmt.Sprintf("✓ Players: %s", strings.Join(names, ", ")),
		fmt.Sprintf("✓ Timing: %s", mode),
	)

	return result
}

// lintConfig reports settings that are valid but probably not intended.
func lintConfig(filePath string, cfg *engine.TableConfig) []string {
	var warnings []string

	t := cfg.Timing
	if !t.AutoAdvance && (t.DiceClearDelayMS > 0 || t.NoMoveDelayMS > 0 || t.ForfeitDelayMS > 0) {
		warnings = append(warnings, "⚠ timing delays are ignored while auto_advance is off")
	}

	dupes := lo.FindDuplicates(lo.Map(cfg.Players, func(p engine.PlayerConfig, _ int) string {
		return strings.ToLower(p.Name)
	}))
	if len(dupes) > 0 {
		warnings = append(warnings, fmt.Sprintf("⚠ duplicate player names: %s", strings.Join(dupes, ", ")))
	}

	for i, p := range cfg.Players {
		if i < engine.PlayerCount && p.Color != engine.PlayerColors[i] {
			warnings = append(warnings, fmt.Sprintf("⚠ seat %d is %s on the board but configured as %q",
				i, engine.PlayerColors[i], p.Color))
		}
	}

	id := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	if !strings.EqualFold(id, cfg.Name) {
		warnings = append(warnings, fmt.Sprintf("⚠ sessions select this table as %q, its name is %q", id, cfg.Name))
	}

	return warnings
}

// validateBoard derives the topology and summarizes it.
func validateBoard() ValidationResult {
	result := ValidationResult{File: "board", Valid: true, Errors: []string{}}

	topo, err := engine.BuildTopology()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ Track: %d cells starting at %s", len(topo.Track), topo.Track[0]),
		fmt.Sprintf("✓ Start squares: %v", topo.StartIndices),
		fmt.Sprintf("✓ Safe squares: %v", topo.SafeIndices),
	)
	return result
}

// configFiles lists the table presets in dir.
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range configExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func printResult(result ValidationResult) bool {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Errors {
			fmt.Println("  " + info)
		}
		return true
	}

	fmt.Println("❌ INVALID")
	for _, err := range result.Errors {
		if !strings.HasPrefix(err, "✓") {
			fmt.Println("  ❌ " + err)
		}
	}
	return false
}

// main validates every preset and the board, printing a concise report and
// exiting with non-zero status if anything is invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := configFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No table configs found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := printResult(validateBoard())
	for _, file := range files {
		if !printResult(validateConfig(file)) {
			allValid = false
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
