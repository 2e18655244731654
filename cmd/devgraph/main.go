package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lastwinnersllc/devgraph/pkg/config"
	"github.com/lastwinnersllc/devgraph/pkg/embed"
	"github.com/lastwinnersllc/devgraph/pkg/engine"
	"github.com/lastwinnersllc/devgraph/pkg/vector"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		handleScan()
	case "daemon":
		handleDaemon()
	case "query":
		handleQuery()
	case "search":
		handleSearch()
	case "impact":
		handleImpact()
	case "map":
		handleMap()
	case "stats":
		handleStats()
	case "version":
		fmt.Printf("devgraph version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Println("Unknown command:", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: devgraph <command> [flags]

Commands:
  scan     Scan the project and build index, graph and vector store
  daemon   Scan, then watch for changes until interrupted
  query    Answer a natural-language question about the codebase
  search   Semantic search over structural summaries
  impact   Impact analysis for one file
  map      Export the code map as JSON
  stats    Show engine statistics
  version  Print version`)
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// commonFlags registers the flags shared by every engine-backed command
func commonFlags(fs *flag.FlagSet) (configPath, root, logLevel *string) {
	configPath = fs.String("config", config.DefaultPath(), "Config file path")
	root = fs.String("root", "", "Project root (overrides config)")
	logLevel = fs.String("loglevel", "info", "Log level (debug, info, warn, error)")
	return
}

func loadConfig(configPath, root string) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		if root == "" {
			fmt.Fprintf(os.Stderr, "Error: %v (and no -root given)\n", err)
			os.Exit(1)
		}
		slog.Warn("Config not found, using defaults", "error", err)
		cfg = config.Default()
		cfg.Store.Path = config.DefaultStorePath()
	}
	if root != "" {
		cfg.Root = root
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// buildEngine wires provider, store and engine from config
func buildEngine(cfg *config.Config) (*engine.Engine, *vector.SQLiteStore) {
	provider := embed.NewClient(&embed.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
	})

	store, err := vector.Open(vector.Config{
		Path:         cfg.Store.Path,
		EmbeddingDim: cfg.Store.EmbeddingDim,
		Model:        cfg.Provider.Model,
	}, provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open vector store: %v\n", err)
		os.Exit(1)
	}

	eng, err := engine.New(&engine.Config{
		Root:        cfg.Root,
		Extensions:  cfg.Extensions,
		ExcludeDirs: cfg.ExcludeDirs,
	}, store)
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return eng, store
}

func handleScan() {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath, root, logLevel := commonFlags(fs)
	fs.Parse(os.Args[2:])
	setupLogging(*logLevel)

	eng, store := buildEngine(loadConfig(*configPath, *root))
	defer store.Close()

	if err := eng.ScanProject(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stats := eng.GetSystemStats()
	fmt.Printf("Scanned %d files: %d nodes, %d edges, %d vector items\n",
		stats.FileCount, stats.NodeCount, stats.EdgeCount, stats.VectorItemCount)
}

func handleDaemon() {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	configPath, root, logLevel := commonFlags(fs)
	fs.Parse(os.Args[2:])
	setupLogging(*logLevel)

	eng, store := buildEngine(loadConfig(*configPath, *root))
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.ScanProject(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := eng.StartWatching(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", eng.Root())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	eng.StopWatching()
	fmt.Println("Stopped")
}

func handleQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath, root, logLevel := commonFlags(fs)
	fs.Parse(os.Args[2:])
	setupLogging(*logLevel)

	if fs.NArg() < 1 {
		fmt.Println("Usage: devgraph query [flags] \"question\"")
		os.Exit(1)
	}

	eng, store := buildEngine(loadConfig(*configPath, *root))
	defer store.Close()

	ctx := context.Background()
	if err := eng.ScanProject(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printJSON(eng.ProcessQuery(ctx, fs.Arg(0)))
}

func handleSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath, root, logLevel := commonFlags(fs)
	n := fs.Int("n", 5, "Number of results")
	fs.Parse(os.Args[2:])
	setupLogging(*logLevel)

	if fs.NArg() < 1 {
		fmt.Println("Usage: devgraph search [flags] \"query\"")
		os.Exit(1)
	}

	eng, store := buildEngine(loadConfig(*configPath, *root))
	defer store.Close()

	results := eng.SearchCode(context.Background(), fs.Arg(0), *n)
	if len(results) == 0 {
		fmt.Println("No results")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. %s (score %.4f)\n", i+1, r.ID, r.Score)
	}
}

func handleImpact() {
	fs := flag.NewFlagSet("impact", flag.ExitOnError)
	configPath, root, logLevel := commonFlags(fs)
	fs.Parse(os.Args[2:])
	setupLogging(*logLevel)

	if fs.NArg() < 1 {
		fmt.Println("Usage: devgraph impact [flags] <file>")
		os.Exit(1)
	}

	eng, store := buildEngine(loadConfig(*configPath, *root))
	defer store.Close()

	ctx := context.Background()
	if err := eng.ScanProject(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printJSON(eng.GetImpactAnalysis(fs.Arg(0)))
}

func handleMap() {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
	configPath, root, logLevel := commonFlags(fs)
	out := fs.String("o", "", "Write map to file instead of stdout")
	fs.Parse(os.Args[2:])
	setupLogging(*logLevel)

	eng, store := buildEngine(loadConfig(*configPath, *root))
	defer store.Close()

	ctx := context.Background()
	if err := eng.ScanProject(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		if err := eng.WriteCodeMap(*out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Code map written to", *out)
		return
	}
	printJSON(eng.GenerateCodeMap())
}

func handleStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath, root, logLevel := commonFlags(fs)
	fs.Parse(os.Args[2:])
	setupLogging(*logLevel)

	eng, store := buildEngine(loadConfig(*configPath, *root))
	defer store.Close()

	ctx := context.Background()
	if err := eng.ScanProject(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printJSON(eng.GetSystemStats())
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
