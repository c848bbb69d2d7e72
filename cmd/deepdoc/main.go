package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/deepdoc/internal/capability"
	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/daemon"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/history"
	"git.home.luguber.info/inful/deepdoc/internal/pipeline"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path (default: deepdoc.yaml when present)"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct {
		Project  string `arg:"" optional:"" help:"Project path to analyze" default:"."`
		Output   string `short:"o" help:"Output directory for generated documents"`
		Depth    int    `short:"d" help:"Analysis depth (1-5)"`
		Type     string `short:"t" help:"Project type (framework|library|application|plugin|auto)"`
		Force    bool   `help:"Overwrite existing output"`
		Parallel bool   `help:"Invoke focus areas concurrently"`
		Git      bool   `help:"Commit generated documents to git"`
	} `cmd:"" help:"Analyze a project and generate tiered documentation"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write an example configuration file"`

	Validate struct{} `cmd:"" help:"Load and validate the configuration without running"`

	History struct {
		DB    string `help:"Run store database path (defaults to the configured one)"`
		Limit int    `help:"Maximum runs to list" default:"10"`
	} `cmd:"" help:"List recent analysis runs"`

	Daemon struct {
		Project     string        `arg:"" optional:"" help:"Project path to analyze" default:"."`
		Interval    time.Duration `help:"Re-analysis interval (overrides configuration)"`
		MetricsAddr string        `help:"Prometheus metrics listen address (overrides configuration)"`
	} `cmd:"" help:"Periodically re-analyze the project"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())

	var err error
	switch kctx.Command() {
	case "run", "run <project>":
		err = runAnalysis()
	case "init":
		err = config.Init(initPath(), CLI.Init.Force)
	case "validate":
		err = runValidate()
	case "history":
		err = runHistory()
	case "daemon", "daemon <project>":
		err = runDaemon()
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}

func runAnalysis() error {
	file, err := config.LoadOrDefault(CLI.Config)
	if err != nil {
		return err
	}
	var gitFlag *bool
	if CLI.Run.Git {
		enabled := true
		gitFlag = &enabled
	}
	var parallelFlag *bool
	if CLI.Run.Parallel {
		on := true
		parallelFlag = &on
	}
	cfg, err := config.Resolve(file, CLI.Run.Project, config.Overrides{
		Depth:       CLI.Run.Depth,
		ProjectType: CLI.Run.Type,
		Output:      CLI.Run.Output,
		Parallel:    parallelFlag,
		Git:         gitFlag,
		Force:       CLI.Run.Force,
	})
	if err != nil {
		return err
	}

	opts := []pipeline.Option{}
	if cfg.History.Path != "" {
		store, storeErr := history.Open(cfg.History.Path)
		if storeErr != nil {
			slog.Warn("History store unavailable", "error", storeErr)
		} else {
			defer store.Close()
			opts = append(opts, pipeline.WithHistory(store))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := pipeline.New(cfg, capability.NewCommandCapability(cfg.Analyzer), opts...).Execute(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Generated %d documents in %s (quality %.2f, status %s)\n",
		len(run.Documents), cfg.OutputPath, run.Quality.Overall, run.Status)
	return nil
}

// initPath is where `deepdoc init` writes: the --config flag, or the default
// file name.
func initPath() string {
	if CLI.Config != "" {
		return CLI.Config
	}
	return config.DefaultConfigName
}

// configFile resolves --config for commands that need an existing file: an
// explicit flag wins, otherwise the default file when present.
func configFile() string {
	if CLI.Config != "" {
		return CLI.Config
	}
	if _, err := os.Stat(config.DefaultConfigName); err == nil {
		return config.DefaultConfigName
	}
	return ""
}

func runValidate() error {
	path := configFile()
	if path == "" {
		return errors.ConfigNotFound(config.DefaultConfigName)
	}
	file, err := config.Load(path)
	if err != nil {
		return err
	}
	if _, err := config.Resolve(file, ".", config.Overrides{}); err != nil {
		return err
	}
	fmt.Printf("Configuration %s is valid\n", path)
	return nil
}

func runHistory() error {
	dbPath := CLI.History.DB
	if dbPath == "" {
		file, err := config.LoadOrDefault(CLI.Config)
		if err != nil {
			return err
		}
		dbPath = file.History.Path
	}
	if dbPath == "" {
		return errors.ConfigValidation("history", "no run store configured (set history.path or pass --db)")
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), "", CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-24s %-10s depth=%d docs=%d quality=%.2f  %s\n",
			r.FinishedAt.Format(time.RFC3339), r.Project, r.Status, r.Depth, r.Documents, r.Quality, r.RunID)
	}
	return nil
}

func runDaemon() error {
	opts := []daemon.Option{}
	if CLI.Daemon.Interval > 0 {
		opts = append(opts, daemon.WithInterval(CLI.Daemon.Interval))
	}
	if CLI.Daemon.MetricsAddr != "" {
		opts = append(opts, daemon.WithMetricsAddr(CLI.Daemon.MetricsAddr))
	}
	d, err := daemon.New(configFile(), CLI.Daemon.Project, config.Overrides{}, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}
