package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/standardbeagle/refscope/internal/config"
	"github.com/standardbeagle/refscope/internal/debug"
	"github.com/standardbeagle/refscope/internal/display"
	"github.com/standardbeagle/refscope/internal/engine"
	"github.com/standardbeagle/refscope/internal/protocol"
	"github.com/standardbeagle/refscope/internal/refsearch"
	"github.com/standardbeagle/refscope/internal/types"
	"github.com/standardbeagle/refscope/internal/version"
	"github.com/standardbeagle/refscope/pkg/pathutil"

	"github.com/urfave/cli/v2"
)

var Version = version.Version

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	// If root is specified and config path is default, look for config in root directory
	if rootFlag := c.String("root"); rootFlag != "" && configPath == config.ConfigFileName {
		configPath = filepath.Join(rootFlag, config.ConfigFileName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if engineFlag := c.String("engine"); engineFlag != "" {
		cfg.Engine.Command = strings.Fields(engineFlag)
	}

	return cfg, nil
}

// engineClient defers the engine connection: the coordinator is built
// before the subprocess launches (it is the protocol handler), so the
// real client is plugged in afterwards.
type engineClient struct {
	mu     sync.Mutex
	client refsearch.ServiceClient
}

func (e *engineClient) set(c refsearch.ServiceClient) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.client = c
}

func (e *engineClient) get() (refsearch.ServiceClient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, errors.New("engine not started")
	}
	return e.client, nil
}

func (e *engineClient) SendSearch(ctx context.Context, kind types.SearchKind, pos types.Position, newName string) (protocol.RequestID, error) {
	c, err := e.get()
	if err != nil {
		return 0, err
	}
	return c.SendSearch(ctx, kind, pos, newName)
}

func (e *engineClient) CancelSearch(id protocol.RequestID, source types.CancellationSource) error {
	c, err := e.get()
	if err != nil {
		return err
	}
	return c.CancelSearch(id, source)
}

// debugObserver traces coordinator lifecycle events into the debug log.
type debugObserver struct{}

func (debugObserver) OnProgress(gen uint64, s types.ProgressSnapshot) {
	debug.LogProgress("generation %d phase=%s confirmed=%d/%d\n",
		gen, s.Phase, s.Status.FinishedConfirming, s.TargetCount)
}

func (debugObserver) OnResult(gen uint64, r types.SearchResult) {
	debug.LogSearch("generation %d result refs=%d finished=%t canceled=%t\n",
		gen, len(r.Refs), r.Finished, r.Canceled)
}

func (debugObserver) OnModeChanged(mode types.SearchKind) {
	debug.LogSearch("mode -> %s\n", mode)
}

// parsePosition parses file:line:col with one-based line and column, the
// way editors print locations.
func parsePosition(arg string) (types.Position, error) {
	lastColon := strings.LastIndex(arg, ":")
	if lastColon <= 0 {
		return types.Position{}, fmt.Errorf("expected file:line:col, got %q", arg)
	}
	secondColon := strings.LastIndex(arg[:lastColon], ":")
	if secondColon <= 0 {
		return types.Position{}, fmt.Errorf("expected file:line:col, got %q", arg)
	}

	line, err := strconv.Atoi(arg[secondColon+1 : lastColon])
	if err != nil || line < 1 {
		return types.Position{}, fmt.Errorf("invalid line in %q", arg)
	}
	col, err := strconv.Atoi(arg[lastColon+1:])
	if err != nil || col < 1 {
		return types.Position{}, fmt.Errorf("invalid column in %q", arg)
	}

	return types.Position{
		Path:      arg[:secondColon],
		Line:      line - 1,
		Character: col - 1,
	}, nil
}

// searchSession is everything a search command needs once the engine is up.
type searchSession struct {
	cfg     *config.Config
	coord   *refsearch.Coordinator
	proc    *engine.Process
	watcher *config.StateWatcher
	stop    func()
}

func (s *searchSession) close() {
	s.stop()
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if err := s.proc.Close(); err != nil {
		debug.Log("ENGINE", "shutdown: %v\n", err)
	}
}

// startSession launches the engine and wires the coordinator, display,
// persisted UI state, and interrupt handling together. The returned
// context ends on the second interrupt (the first one only cancels the
// in-flight search).
func startSession(c *cli.Context) (context.Context, *searchSession, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, nil, err
	}
	if len(cfg.Engine.Command) == 0 {
		return nil, nil, errors.New("no engine command configured: set engine { command ... } in " + config.ConfigFileName + " or pass --engine")
	}

	if c.Bool("verbose") {
		debug.EnableRuntime()
		debug.SetDebugOutput(os.Stderr)
	}
	if c.Bool("log-file") {
		debug.EnableRuntime()
		if path, err := debug.InitDebugLogFile(); err == nil {
			fmt.Fprintf(os.Stderr, "debug log: %s\n", path)
		}
	}

	statePath := config.StatePath(cfg.Project.Root)
	state, err := config.LoadState(statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	view := display.NewTextView(os.Stdout, cfg.Project.Root, cfg.Include, cfg.Exclude)
	sink := display.NewTerminalSink(os.Stderr)

	ec := &engineClient{}
	coord := refsearch.NewCoordinator(ec, view, sink, refsearch.Config{
		ProgressDelay: time.Duration(cfg.Search.ProgressDelayMs) * time.Millisecond,
		ProgressPoll:  time.Duration(cfg.Search.ProgressPollMs) * time.Millisecond,
		PeekWindow:    time.Duration(cfg.Search.PeekWindowMs) * time.Millisecond,
	})
	coord.AddObserver(debugObserver{})
	coord.SetGroupByFile(state.GroupResultsByFile)
	if c.IsSet("group") {
		coord.SetGroupByFile(c.Bool("group"))
	}

	ctx, cancel := context.WithCancel(c.Context)
	proc, err := engine.Launch(ctx, cfg.Engine.Command, coord)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start engine: %w", err)
	}
	ec.set(proc.Client())

	// Another editor instance may flip the grouping preference while we
	// run; pick it up live.
	watcher := config.NewStateWatcher(statePath, 100*time.Millisecond, func(s config.UIState) {
		coord.SetGroupByFile(s.GroupResultsByFile)
	})
	if err := watcher.Start(); err != nil {
		debug.Log("STATE", "watcher unavailable: %v\n", err)
		watcher = nil
	}

	// First interrupt cancels the search; a second one tears the
	// session down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		interrupts := 0
		for {
			select {
			case <-sigCh:
				interrupts++
				if interrupts == 1 {
					coord.CancelActive(types.CancelUser)
					continue
				}
				cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	session := &searchSession{
		cfg:     cfg,
		coord:   coord,
		proc:    proc,
		watcher: watcher,
		stop: func() {
			signal.Stop(sigCh)
			cancel()
		},
	}
	return ctx, session, nil
}

func findCommand(c *cli.Context) error {
	return locationsCommand(c, false)
}

func peekCommand(c *cli.Context) error {
	return locationsCommand(c, true)
}

func locationsCommand(c *cli.Context, peek bool) error {
	if c.NArg() < 1 {
		return errors.New("usage: refscope " + c.Command.Name + " <file:line:col>")
	}
	pos, err := parsePosition(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, session, err := startSession(c)
	if err != nil {
		return err
	}
	defer session.close()

	if peek {
		// An inline preview shows as a viewport shrink right before the
		// request; replay that so the search classifies as a peek.
		session.coord.RecordVisibleRange(100)
		session.coord.RecordVisibleRange(20)
	}

	refs, err := session.coord.Find(ctx, pos)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(refs) == 0 {
		fmt.Println("No references found")
	}
	return nil
}

func renameCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("usage: refscope rename <file:line:col> <new-name>")
	}
	pos, err := parsePosition(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	newName := c.Args().Get(1)
	if err := refsearch.ValidateNewName(newName); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, session, err := startSession(c)
	if err != nil {
		return err
	}
	defer session.close()

	edit, err := session.coord.Rename(ctx, pos, newName)
	if err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}
	if edit.Empty() {
		fmt.Println("No changes")
		return nil
	}

	printWorkspaceEdit(pathutil.ToRelativeEdit(edit, session.cfg.Project.Root))
	if c.Bool("apply") {
		if err := applyWorkspaceEdit(edit); err != nil {
			return fmt.Errorf("failed to apply edits: %w", err)
		}
		fmt.Printf("Applied %d edit(s)\n", edit.Size())
	}
	return nil
}

func callersCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: refscope callers <file:line:col>")
	}
	pos, err := parsePosition(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, session, err := startSession(c)
	if err != nil {
		return err
	}
	defer session.close()

	refs, err := session.coord.CallHierarchy(ctx, pos)
	if err != nil {
		return fmt.Errorf("call hierarchy failed: %w", err)
	}
	if len(refs) == 0 {
		fmt.Println("No callers found")
	}
	return nil
}

// toggleGroupCommand flips the persisted grouping preference. Running
// sessions pick the change up through their state watchers.
func toggleGroupCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	statePath := config.StatePath(cfg.Project.Root)
	state, err := config.LoadState(statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}
	state.GroupResultsByFile = !state.GroupResultsByFile
	if err := config.SaveState(statePath, state); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	if state.GroupResultsByFile {
		fmt.Println("Results will be grouped by file")
	} else {
		fmt.Println("Results will be shown as a flat list")
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:                   "refscope",
		Usage:                  "Reference search front-end for stdio analysis engines",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.ConfigFileName,
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringFlag{
				Name:    "engine",
				Aliases: []string{"e"},
				Usage:   "Engine command line (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Show only results matching glob patterns (e.g., --include 'src/**/*.c')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Hide results matching glob patterns (e.g., --exclude '**/generated/**')",
			},
			&cli.BoolFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Group results by file (overrides persisted preference)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show debug information on stderr",
			},
			&cli.BoolFlag{
				Name:  "log-file",
				Usage: "Write the debug log to a file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "find",
				Aliases:   []string{"f"},
				Usage:     "Find all references to the symbol at a position",
				ArgsUsage: "<file:line:col>",
				Action:    findCommand,
			},
			{
				Name:      "peek",
				Aliases:   []string{"p"},
				Usage:     "Find references as an inline preview (no focus handoff)",
				ArgsUsage: "<file:line:col>",
				Action:    peekCommand,
			},
			{
				Name:      "rename",
				Aliases:   []string{"rn"},
				Usage:     "Rename the symbol at a position across the project",
				ArgsUsage: "<file:line:col> <new-name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "apply",
						Usage: "Apply the edits to disk instead of just printing them",
					},
				},
				Action: renameCommand,
			},
			{
				Name:      "callers",
				Aliases:   []string{"ch"},
				Usage:     "Show call sites of the function at a position",
				ArgsUsage: "<file:line:col>",
				Action:    callersCommand,
			},
			{
				Name:    "toggle-group",
				Aliases: []string{"tg"},
				Usage:   "Toggle the persisted group-results-by-file preference",
				Action:  toggleGroupCommand,
			},
		},
	}

	err := app.Run(os.Args)
	_ = debug.CloseDebugLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
