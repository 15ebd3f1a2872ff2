// Package main is the Shirabe CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/assemble"
	"github.com/hyperjump/shirabe/internal/cli"
	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/engine"
	"github.com/hyperjump/shirabe/internal/index"
	"github.com/hyperjump/shirabe/internal/ingest"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/retrieve"
	"github.com/hyperjump/shirabe/internal/server"
	"github.com/hyperjump/shirabe/internal/store"
	"github.com/hyperjump/shirabe/internal/watcher"
	"github.com/hyperjump/shirabe/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shirabe/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "shirabe server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "delete":
		runDelete()
	case "documents":
		runDocuments()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("shirabe version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, retrieval stages, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ing := components.Ingester
	exts := cfg.Watch.Extensions
	roots := cfg.Watch.Directories
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		roots,
		exts,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			folder := watchFolder(roots, path)
			if _, err := ing.IngestFile(context.Background(), path, folder, exts); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			folder := watchFolder(roots, path)
			if err := ing.DeleteDocument(context.Background(), folder, filepath.Base(path)); err != nil {
				logger.Warn("watch delete failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(roots) > 0 {
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(
		components.Engine,
		components.Ingester,
		components.Registry,
		components.Pages,
		components.Signer,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// watchFolder derives a document folder from where the file sits under a
// watched root: the first path segment below the root, or "" for files
// dropped directly into the root.
func watchFolder(roots []string, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	for _, root := range roots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(rootAbs, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) > 1 {
			return parts[0]
		}
		return ""
	}
	return ""
}

// printAskUsage prints ask subcommand usage.
func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: shirabe ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces. Multi-word questions work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
The result is the evidence context for the question, plus its citations.
  • Use --documents to restrict search to specific files (comma-separated); each is guaranteed to contribute.
  • Use --policy rank to order pages purely by relevance instead of interleaving across documents.
  • Use --output context to print only the assembled context, ready for prompt injection.

Examples:
  shirabe ask what is the design pressure of tank T-101
  shirabe ask --folder site9 "P&ID 도면 목록 보여줘"
  shirabe ask --documents "A-101.pdf,A-102.pdf" --strict-scope valve list
  shirabe ask --output json "your question"   # structured JSON for other apps
`)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the
// question to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "shirabe ask \"question\"
// -folder site9" would otherwise leave -folder unparsed.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitDocuments parses the comma-separated --documents value.
func splitDocuments(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	folder := fs.String("folder", "", "folder to scope citations and strict filtering to")
	documents := fs.String("documents", "", "comma-separated document names to restrict search to")
	policy := fs.String("policy", "", "assembly policy: diversity or rank (default from config)")
	strictScope := fs.Bool("strict-scope", false, "drop pages outside the selected documents")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), context (bare context), or json (parseable)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	case "context":
		format = cli.OutputContext
	default:
		fmt.Printf("Unknown output format %q; use text, context, or json\n", *outputFormat)
		os.Exit(1)
	}

	req := &models.AskRequest{
		Question:          question,
		SelectedDocuments: splitDocuments(*documents),
		Folder:            *folder,
		Policy:            models.AssemblyPolicy(*policy),
		StrictScope:       *strictScope,
	}

	if *serverURL != "" {
		// Use HTTP API when server is running (avoids Bleve/SQLite lock conflict).
		result, err := askViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAskResult(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Engine.Ask(context.Background(), req)
	if err == assemble.ErrNoEvidence {
		fmt.Println("No matching documents found.")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAskResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL string, req *models.AskRequest) (*models.AskResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.AskResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	folder := fs.String("folder", "", "folder to register the document(s) under")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := components.Ingester.IngestDirectory(ctx, path, *folder, cfg.Watch.Extensions)
		if err != nil {
			fmt.Printf("Ingesting directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d file(s) from %s\n", n, path)
		return
	}
	// Single file: no extension filter
	doc, err := components.Ingester.IngestFile(ctx, path, *folder, nil)
	if err != nil {
		fmt.Printf("Ingesting failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document ingested: %s (%d pages)\n", doc.Path, doc.Pages)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	folder := fs.String("folder", "", "folder the document is registered under")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe delete [flags] <document-name>")
		os.Exit(1)
	}
	name := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Ingester.DeleteDocument(context.Background(), *folder, name); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", name)
}

func runDocuments() {
	fs := flag.NewFlagSet("documents", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	folder := fs.String("folder", "", "restrict listing to one folder")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}

	var docs []*models.Document
	if *serverURL != "" {
		res, err := documentsViaHTTP(*serverURL, *folder)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		docs = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		docs, err = components.Registry.ListByFolder(context.Background(), *folder)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cli.WriteDocuments(os.Stdout, docs, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func documentsViaHTTP(serverURL, folder string) ([]*models.Document, error) {
	u := serverURL + "/api/v1/documents"
	if folder != "" {
		u += "?folder=" + url.QueryEscape(folder)
	}
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Documents []*models.Document `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Documents, nil
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	DatabasePath        string `json:"database_path,omitempty"`
	BleveIndexPath      string `json:"bleve_index_path,omitempty"`
	ExactMatchThreshold int    `json:"exact_match_threshold,omitempty"`
	PageBudget          int    `json:"page_budget,omitempty"`
	CharBudget          int    `json:"char_budget,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents int64                 `json:"documents"`
	Pages     uint64                `json:"pages"`
	Config    *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		docCount, err := components.Registry.CountDocuments(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		pageCount, err := components.Pages.DocCount()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Page count failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Documents: docCount,
			Pages:     pageCount,
			Config: &statusConfigResponse{
				DatabasePath:        cfg.Storage.DatabasePath,
				BleveIndexPath:      cfg.Storage.BleveIndexPath,
				ExactMatchThreshold: cfg.Retrieval.ExactMatchThreshold,
				PageBudget:          cfg.Assembly.PageBudget,
				CharBudget:          cfg.Assembly.CharBudget,
			},
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:  %d   # count of registered documents\n", status.Documents)
		fmt.Printf("pages:      %d   # count of indexed pages\n", status.Pages)
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			if status.Config.DatabasePath != "" {
				fmt.Printf("database_path:         %s\n", status.Config.DatabasePath)
			}
			if status.Config.BleveIndexPath != "" {
				fmt.Printf("bleve_index_path:      %s\n", status.Config.BleveIndexPath)
			}
			if status.Config.ExactMatchThreshold > 0 {
				fmt.Printf("exact_match_threshold: %d\n", status.Config.ExactMatchThreshold)
			}
			if status.Config.PageBudget > 0 {
				fmt.Printf("page_budget:           %d\n", status.Config.PageBudget)
			}
			if status.Config.CharBudget > 0 {
				fmt.Printf("char_budget:           %d\n", status.Config.CharBudget)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Registry *store.SQLiteStore
	Pages    *index.PageIndex
	Signer   *store.LinkSigner
	Ingester *ingest.Ingester
	Engine   *engine.Engine
}

func (c *Components) Close() {
	if c.Registry != nil {
		_ = c.Registry.Close()
	}
	if c.Pages != nil {
		_ = c.Pages.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	registry, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize registry: %w", err)
	}

	pages, err := index.NewPageIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = registry.Close()
		return nil, fmt.Errorf("failed to initialize page index: %w", err)
	}

	signer := store.NewLinkSigner(cfg.Storage.LinkSecret,
		time.Duration(cfg.Storage.LinkTTLSeconds)*time.Second)

	ingOpts := []ingest.Option{}
	if debug && logger != nil {
		ingOpts = append(ingOpts, ingest.WithLogger(logger))
	}
	ing := ingest.NewIngester(registry, pages, nil, ingOpts...)

	engOpts := []engine.Option{engine.WithLinkResolver(signer, registry)}
	if debug && logger != nil {
		engOpts = append([]engine.Option{engine.WithLogger(logger)}, engOpts...)
	}
	eng := engine.New(pages, engine.Options{
		Container: cfg.Storage.Container,
		Retrieve: retrieve.Options{
			ExactMatchThreshold: cfg.Retrieval.ExactMatchThreshold,
			PrecisionLimit:      cfg.Retrieval.PrecisionLimit,
			RecallLimit:         cfg.Retrieval.RecallLimit,
			ForcedLimit:         cfg.Retrieval.ForcedLimit,
			SearchTimeout:       time.Duration(cfg.Retrieval.SearchTimeoutSeconds) * time.Second,
		},
		Assemble: assemble.Options{
			PageBudget:    cfg.Assembly.PageBudget,
			CharBudget:    cfg.Assembly.CharBudget,
			DefaultPolicy: models.AssemblyPolicy(cfg.Assembly.Policy),
		},
	}, engOpts...)

	return &Components{
		Registry: registry,
		Pages:    pages,
		Signer:   signer,
		Ingester: ing,
		Engine:   eng,
	}, nil
}

func printUsage() {
	fmt.Println(`shirabe - Document retrieval and context assembly for engineering drawings

Usage:
  shirabe server [flags]             Start the HTTP server
  shirabe ask [flags] <question>     Build the evidence context for a question
  shirabe ingest [flags] <file>      Ingest a document (or directory)
  shirabe delete [flags] <name>      Delete a document
  shirabe documents [flags]          List registered documents
  shirabe status [flags]             Show registry/index status
  shirabe version                    Show version
  shirabe help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/shirabe/config.yaml)
  --debug            Enable debug logging (file events, retrieval stages, etc.)

Ask Flags:
  --config string       Config file path (for direct storage mode)
  --server string       Server URL (default: http://localhost:8080). Use empty (--server "") to use direct storage when server is not running.
  --folder string       Folder to scope citations and strict filtering to
  --documents string    Comma-separated document names to restrict search to
  --policy string       Assembly policy: diversity or rank (default from config)
  --strict-scope        Drop pages outside the selected documents
  --output string       Output format: text, context, or json (default: text)

Ingest Flags:
  --config string    Config file path
  --folder string    Folder to register the document(s) under

Delete Flags:
  --config string    Config file path
  --folder string    Folder the document is registered under

Documents Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty for direct storage.
  --folder string    Restrict listing to one folder
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  shirabe server
  shirabe ask "design pressure of tank T-101"
  shirabe ask --folder site9 --documents "A-101.pdf" valve list
  shirabe ask --output json "query"   # structured JSON for other apps
  shirabe ingest --folder site9 drawings/
  shirabe delete --folder site9 A-101.pdf
  shirabe documents --folder site9
  shirabe status --output json`)
}
