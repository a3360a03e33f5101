// Package cmd implements DAWN's command-line surface: run, replay,
// replay-ticks, verify, and the peripheral tui viewer, dispatched the way
// the teacher's cmd/root.go dispatches its mode flags — manual
// flag.FlagSet per subcommand, a typed Config, and a printUsage function.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dawnlabs/dawn-core/config"
	"github.com/dawnlabs/dawn-core/eventlog"
	"github.com/dawnlabs/dawn-core/memory"
	"github.com/dawnlabs/dawn-core/memory/sqlitemirror"
	"github.com/dawnlabs/dawn-core/profiles"
	"github.com/dawnlabs/dawn-core/tick"
	"github.com/dawnlabs/dawn-core/ui"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// ExitCodeError signals a non-zero exit code without calling os.Exit
// directly, so Run can be tested and main stays a thin dispatcher.
type ExitCodeError struct{ Code int }

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit %d", e.Code) }

// Exit codes per the Core's CLI contract: 0 success, 2 bad arguments,
// 3 persistence error, 4 internal invariant violation.
const (
	exitBadArgs     = 2
	exitPersistence = 3
	exitInvariant   = 4
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `dawn v%s — synthetic-cognition tick runtime

Usage:
  dawn <command> [options]

Commands:
  run [-ticks N] [-interval SEC] [-profile NAME] [-datadir DIR] [-record FILE]
                       Run the Core. Indefinite until SIGINT (exit 0) unless
                       -ticks bounds it. -record captures every TickResult
                       for later replay-ticks.
  replay <jsonl>       Load a memory JSON Lines file and report what loaded.
  replay-ticks <file>  Read back a -record file tick by tick.
  verify <jsonl>       Validate a memory or event log JSON Lines file.
  tui [-datadir DIR]   Peripheral read-only snapshot viewer.
  version             Print version and exit.

Environment:
  DAWN_PROFILE         Default run profile (minimum|default|aggressive),
                       overridden by -profile.

Examples:
  dawn run -ticks 100 -profile aggressive
  dawn run -datadir ~/.dawn
  dawn run -record ~/.dawn/run.rec
  dawn replay ~/.dawn/memory.jsonl
  dawn replay-ticks ~/.dawn/run.rec
  dawn verify ~/.dawn/events.jsonl
  dawn tui -datadir ~/.dawn
`, Version)
}

// Run parses os.Args and dispatches to the selected subcommand.
func Run() error {
	if len(os.Args) < 2 {
		printUsage()
		return ExitCodeError{Code: exitBadArgs}
	}

	switch os.Args[1] {
	case "run":
		return runRun(os.Args[2:])
	case "replay":
		return runReplay(os.Args[2:])
	case "replay-ticks":
		return runReplayTicks(os.Args[2:])
	case "verify":
		return runVerify(os.Args[2:])
	case "tui":
		return runTUI(os.Args[2:])
	case "version":
		fmt.Printf("dawn v%s\n", Version)
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", os.Args[1])
		printUsage()
		return ExitCodeError{Code: exitBadArgs}
	}
}

// resolveProfile applies DAWN_PROFILE then an explicit -profile flag, the
// same config-then-flag precedence the teacher uses for its threshold
// profile in cmd/root.go.
func resolveProfile(flagValue string) profiles.Profile {
	name := os.Getenv("DAWN_PROFILE")
	if flagValue != "" {
		name = flagValue
	}
	return profiles.Get(name)
}

func resolveDataDir(flagValue string, cfg config.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return cfg.ResolvedDataDir()
}

// runRun implements `dawn run`.
func runRun(args []string) error {
	fs := newFlagSet("run")
	ticks := fs.Int("ticks", 0, "number of ticks to run before exiting (0 = indefinite until SIGINT)")
	intervalSec := fs.Float64("interval", 0, "initial tick interval in seconds (0 = profile minimum)")
	profileName := fs.String("profile", "", "run profile: minimum|default|aggressive")
	dataDir := fs.String("datadir", "", "data directory (default: config or ~/.dawn)")
	recordPath := fs.String("record", "", "record every TickResult to FILE for later `replay-ticks`")
	if err := fs.Parse(args); err != nil {
		return ExitCodeError{Code: exitBadArgs}
	}

	cfg := config.Load()
	profile := resolveProfile(*profileName)
	dir, err := resolveDataDir(*dataDir, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCodeError{Code: exitBadArgs}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create data dir: %v\n", err)
		return ExitCodeError{Code: exitPersistence}
	}

	log := eventlog.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := log.StartWriter(ctx, dir+"/events.jsonl"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot start event log writer: %v\n", err)
		return ExitCodeError{Code: exitPersistence}
	}

	mirror, err := sqlitemirror.Open(dir + "/memory.sqlite")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open memory mirror: %v\n", err)
		return ExitCodeError{Code: exitPersistence}
	}

	core := tick.New(profile, log)
	core.Memory.SetMirror(mirror)
	if *intervalSec > 0 {
		core.SetInterval(time.Duration(*intervalSec * float64(time.Second)))
	}

	var runner tick.Runner = core
	var recordFile *os.File
	if *recordPath != "" {
		recordFile, err = os.OpenFile(*recordPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot create record file: %v\n", err)
			return ExitCodeError{Code: exitPersistence}
		}
		runner = tick.NewRecorder(core, recordFile)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	count := 0
	invariantBroken := false
	runErr := runner.Run(sigCtx, tick.RunConfig{
		OnTick: func(result tick.TickResult) {
			count++
			fmt.Printf("tick %d: zone=%s mood=%s heat=%.1f pressure=%.1f(%s) next=%s\n",
				result.Tick, result.Pulse.Zone, result.Pulse.Mood, result.Pulse.Heat,
				result.Pressure.Value, result.Pressure.Level, result.NextInterval)
			if _, ok := result.RouteError.(*memory.DuplicateContentMismatchError); ok {
				fmt.Fprintf(os.Stderr, "Error: %v\n", result.RouteError)
				invariantBroken = true
				stop()
				return
			}
			if *ticks > 0 && count >= *ticks {
				stop()
			}
		},
	})
	if recordFile != nil {
		if cerr := recordFile.Close(); cerr != nil && runErr == nil {
			runErr = fmt.Errorf("close record file: %w", cerr)
		}
	}

	if err := flushAndClose(core, mirror, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCodeError{Code: exitPersistence}
	}
	if invariantBroken {
		return ExitCodeError{Code: exitInvariant}
	}

	if runErr != nil && runErr != context.Canceled {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return ExitCodeError{Code: exitInvariant}
	}
	return nil
}

// flushAndClose persists unsaved memories, closes the event log, and closes
// the sqlite mirror, the shutdown sequence spec.md §7 requires: a final
// flush before exit.
func flushAndClose(core *tick.Core, mirror *sqlitemirror.Mirror, dataDir string) error {
	unsaved := core.Memory.UnsavedChunks()
	if len(unsaved) > 0 {
		if err := memory.Append(dataDir+"/memory.jsonl", unsaved); err != nil {
			return fmt.Errorf("flush memory: %w", err)
		}
		core.Memory.MarkSaved()
	}
	if err := core.Log.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}
	if err := mirror.Close(); err != nil {
		return fmt.Errorf("close memory mirror: %w", err)
	}
	return nil
}

// runReplay implements `dawn replay <jsonl>`: load memories and stop.
func runReplay(args []string) error {
	fs := newFlagSet("replay")
	if err := fs.Parse(args); err != nil {
		return ExitCodeError{Code: exitBadArgs}
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: replay requires exactly one <jsonl> path")
		return ExitCodeError{Code: exitBadArgs}
	}

	router := memory.NewRouter()
	routed, parseErrors, err := memory.RouteAll(router, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCodeError{Code: exitPersistence}
	}

	fmt.Printf("loaded %d memory chunks (%d parse errors)\n", routed, parseErrors)
	stats := router.Stats()
	fmt.Printf("tiers: working=%d recent=%d significant=%d\n",
		stats.WorkingCount, stats.RecentCount, stats.SignificantCount)
	return nil
}

// runReplayTicks implements `dawn replay-ticks <file>`: read back a -record
// file tick by tick, printing the same one-line summary `dawn run` prints
// live, recovering the teacher's -replay-through-the-TUI workflow as a
// headless readback instead.
func runReplayTicks(args []string) error {
	fs := newFlagSet("replay-ticks")
	if err := fs.Parse(args); err != nil {
		return ExitCodeError{Code: exitBadArgs}
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: replay-ticks requires exactly one <file> path")
		return ExitCodeError{Code: exitBadArgs}
	}

	player, parseErrors, err := tick.OpenPlayer(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCodeError{Code: exitPersistence}
	}

	for {
		result, ok := player.Next()
		if !ok {
			break
		}
		fmt.Printf("tick %d: zone=%s mood=%s heat=%.1f pressure=%.1f(%s) next=%s\n",
			result.Tick, result.Pulse.Zone, result.Pulse.Mood, result.Pulse.Heat,
			result.Pressure.Value, result.Pressure.Level, result.NextInterval)
	}
	fmt.Printf("replayed %d ticks (%d parse errors)\n", player.Len(), parseErrors)
	return nil
}

// runVerify implements `dawn verify <jsonl>`: validate format only,
// without routing chunks through tier logic.
func runVerify(args []string) error {
	fs := newFlagSet("verify")
	if err := fs.Parse(args); err != nil {
		return ExitCodeError{Code: exitBadArgs}
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: verify requires exactly one <jsonl> path")
		return ExitCodeError{Code: exitBadArgs}
	}
	path := fs.Arg(0)

	if looksLikeEventLog(path) {
		events, parseErrors, err := eventlog.ReadLog(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitCodeError{Code: exitPersistence}
		}
		fmt.Printf("event log: %d valid lines, %d parse errors\n", len(events), parseErrors)
		return nil
	}

	chunks, parseErrors, err := memory.LoadAll(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCodeError{Code: exitPersistence}
	}
	fmt.Printf("memory log: %d valid lines, %d parse errors\n", len(chunks), parseErrors)
	return nil
}

// looksLikeEventLog sniffs the first non-empty line for an event log's
// "type" field versus a memory log's "memory_id" field.
func looksLikeEventLog(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, _ := f.Read(buf)
	line := string(buf[:n])
	return containsField(line, `"type"`) && !containsField(line, `"memory_id"`)
}

func containsField(s, field string) bool {
	for i := 0; i+len(field) <= len(s); i++ {
		if s[i:i+len(field)] == field {
			return true
		}
	}
	return false
}

// runTUI implements `dawn tui`: the peripheral snapshot viewer.
func runTUI(args []string) error {
	fs := newFlagSet("tui")
	dataDir := fs.String("datadir", "", "data directory to watch (default: config or ~/.dawn)")
	if err := fs.Parse(args); err != nil {
		return ExitCodeError{Code: exitBadArgs}
	}

	cfg := config.Load()
	dir, err := resolveDataDir(*dataDir, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCodeError{Code: exitBadArgs}
	}

	m := ui.NewModel(dir + "/events.jsonl")
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}
