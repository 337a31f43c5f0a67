// Command analyze prints quick, human-readable facts about the board and the
// table presets in the project's configs directory. It draws the derived
// board, counts cells by type, measures how far each token has to travel and
// highlights the longest stretch of the track without a safe square.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/wricardo/ludo-game/game/config"
	"github.com/wricardo/ludo-game/game/engine"
)

// BoardAnalysis summarizes the derived topology.
type BoardAnalysis struct {
	CellCounts     map[engine.CellType]int
	PipsToFinish   int // cells covered from the start square to the finish
	MinRolls       int // fewest rolls from the yard to the finish, entry six included
	LongestExposed int // most consecutive unsafe track cells a token must cross
}

var cellChars = map[engine.CellType]rune{
	engine.CellEmpty:   ' ',
	engine.CellTrack:   'o',
	engine.CellSafe:    's',
	engine.CellStart:   'S',
	engine.CellHomeRun: '=',
	engine.CellYard:    '#',
	engine.CellCenter:  'C',
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	topo, err := engine.BuildTopology()
	if err != nil {
		fmt.Printf("Error building board: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Board ===")
	fmt.Print(renderMap(topo))
	printBoardAnalysis(topo, analyzeBoard(topo))

	fmt.Printf("\n=== Presets in %s ===\n", configDir)
	analyzePresets(configDir)
}

// renderMap draws the board one character per cell.
func renderMap(topo *engine.Topology) string {
	var sb strings.Builder
	for y := 0; y < engine.BoardSize; y++ {
		for x := 0; x < engine.BoardSize; x++ {
			sb.WriteRune(cellChars[topo.CellAt(engine.Coord{X: x, Y: y})])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func analyzeBoard(topo *engine.Topology) BoardAnalysis {
	var cells []engine.CellType
	for y := 0; y < engine.BoardSize; y++ {
		for x := 0; x < engine.BoardSize; x++ {
			cells = append(cells, topo.CellAt(engine.Coord{X: x, Y: y}))
		}
	}

	return BoardAnalysis{
		CellCounts:     lo.CountValues(cells),
		PipsToFinish:   pipsToFinish(topo, 0),
		MinRolls:       minRolls(topo, 0),
		LongestExposed: longestExposed(topo, 0),
	}
}

// pipsToFinish walks player's token one cell at a time from its start square.
func pipsToFinish(topo *engine.Topology, player int) int {
	pos := engine.Position(topo.StartIndex(player))
	pips := 0
	for !pos.IsFinished() {
		next, ok := engine.Destination(topo, player, pos, 1)
		if !ok {
			return -1
		}
		pos = next
		pips++
	}
	return pips
}

// minRolls searches positions breadth first, one roll per level.
func minRolls(topo *engine.Topology, player int) int {
	dist := map[engine.Position]int{engine.HomePosition: 0}
	queue := []engine.Position{engine.HomePosition}
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		if pos.IsFinished() {
			return dist[pos]
		}
		for dice := engine.MinDiceValue; dice <= engine.MaxDiceValue; dice++ {
			next, ok := engine.Destination(topo, player, pos, dice)
			if !ok {
				continue
			}
			if _, seen := dist[next]; !seen {
				dist[next] = dist[pos] + 1
				queue = append(queue, next)
			}
		}
	}
	return -1
}

// longestExposed follows player's lap of the track and returns the longest
// run of consecutive unsafe cells.
func longestExposed(topo *engine.Topology, player int) int {
	start := topo.StartIndex(player)
	longest, run := 0, 0
	for traveled := 0; traveled < engine.TrackLength; traveled++ {
		if topo.IsSafe((start + traveled) % engine.TrackLength) {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

func printBoardAnalysis(topo *engine.Topology, a BoardAnalysis) {
	types := lo.Keys(a.CellCounts)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Printf("%-9s %3d\n", t, a.CellCounts[t])
	}

	for p := 0; p < engine.PlayerCount; p++ {
		start := topo.StartIndex(p)
		lane, _ := topo.HomeRunCoordinate(p, 0)
		fmt.Printf("%-6s start %2d at %s, home run from %s\n",
			engine.PlayerColors[p], start, topo.Track[start], lane)
	}

	fmt.Printf("Pips from start to finish: %d\n", a.PipsToFinish)
	fmt.Printf("Fewest rolls from yard to finish: %d\n", a.MinRolls)
	if a.LongestExposed > engine.MaxDiceValue {
		fmt.Printf("⚠️  Longest unsafe stretch is %d cells, more than one roll\n", a.LongestExposed)
	} else {
		fmt.Printf("✅ Longest unsafe stretch is %d cells\n", a.LongestExposed)
	}
}

// analyzePresets summarizes every preset and the worst pause a turn can take.
func analyzePresets(dir string) {
	manager, err := config.NewManager(dir)
	if err != nil {
		fmt.Printf("Error loading configs: %v\n", err)
		return
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		fmt.Printf("Error listing configs: %v\n", err)
		return
	}

	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Printf("%s: %v\n", info.Filename, err)
			continue
		}
		fmt.Printf("%-10s %s\n", info.ConfigID, strings.Join(info.Players, ", "))
		if !cfg.Timing.AutoAdvance {
			fmt.Println("           manual advance")
			continue
		}
		fmt.Printf("           longest pause %dms\n", worstPauseMS(cfg.Timing))
	}
}

// worstPauseMS is the longest delay the server inserts before the next roll.
func worstPauseMS(t engine.TimingConfig) int {
	return max(t.DiceClearDelayMS, t.NoMoveDelayMS, t.ForfeitDelayMS)
}
