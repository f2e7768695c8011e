package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tasklab/workgraph/pkg/config"
	"github.com/tasklab/workgraph/pkg/cycles"
	"github.com/tasklab/workgraph/pkg/engine"
	"github.com/tasklab/workgraph/pkg/layout"
	"github.com/tasklab/workgraph/pkg/logging"
	"github.com/tasklab/workgraph/pkg/output"
	"github.com/tasklab/workgraph/pkg/pubsub"
	"github.com/tasklab/workgraph/pkg/store"
	"github.com/tasklab/workgraph/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("workgraph", pflag.ExitOnError)
	flags.String("graph", "workgraph.json", "Path to the workflow graph file")
	flags.Bool("web", false, "Start the web editor instead of printing a console report")
	flags.Int("port", 8080, "Port for the web editor (only used with --web)")
	flags.Bool("watch", false, "Reload when the graph file changes externally")
	flags.Bool("open", true, "Open the browser when the web editor starts")
	flags.String("verbosity", "", "Log level: debug, info, warn, error")
	flags.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyVerbosity(cfg)

	broker := pubsub.NewBroker()
	defer broker.Close()
	broker.ConfigureTopic(pubsub.TopicGraph, pubsub.TopicConfig{BufferSize: 10})
	broker.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{BufferSize: 5})

	eng := engine.New(broker, engine.Options{
		HistoryDepth: cfg.History.Depth,
		Layout: layout.Config{
			HSpacing: cfg.Layout.HSpacing,
			VSpacing: cfg.Layout.VSpacing,
			MarginX:  cfg.Layout.Margin,
			MarginY:  cfg.Layout.Margin,
		},
	})

	fileStore := store.New(cfg.GraphFile)
	graph, err := fileStore.Load()
	if err != nil {
		logging.Fatal("loading graph file failed", "path", cfg.GraphFile, "error", err)
	}
	eng.Load(graph)
	logging.Info("graph loaded", "path", cfg.GraphFile,
		"nodes", len(graph.Nodes), "edges", len(graph.Edges))

	if cfg.WebMode {
		runWeb(cfg, eng, broker, fileStore)
		return
	}

	// Console mode: report and a layout preview, no mutation
	g := eng.Graph()
	output.PrintGraphReport(cfg.GraphFile, g, eng.ComputeLayout(), cycles.FindCycles(g))
}

func runWeb(cfg *config.Config, eng *engine.Engine, broker *pubsub.Broker, fileStore *store.Store) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	saver := store.NewDebouncedSaver(fileStore, eng, broker, 0, 0)
	if err := saver.Start(ctx); err != nil {
		logging.Fatal("starting debounced saver failed", "error", err)
	}

	if cfg.Watch {
		watcher, err := store.NewWatcher(fileStore, broker, func() {
			if g, err := fileStore.Load(); err == nil {
				eng.Load(g)
			} else {
				logging.Error("reloading graph file failed", "error", err)
			}
		})
		if err != nil {
			logging.Fatal("creating file watcher failed", "error", err)
		}
		if err := watcher.Start(ctx); err != nil {
			logging.Fatal("starting file watcher failed", "error", err)
		}
	}

	if cfg.OpenBrowser {
		openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	server := web.NewServer(eng, broker)
	if err := server.Start(cfg.Port); err != nil {
		logging.Fatal("web server failed", "error", err)
	}
}

// applyVerbosity maps --verbosity / -v flags onto the log level
func applyVerbosity(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Verbosity {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	case "":
		if cfg.VerboseCnt > 0 {
			level = slog.LevelDebug
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown verbosity %q, using info\n", cfg.Verbosity)
	}
	logging.SetLevel(level)
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
