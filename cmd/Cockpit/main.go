package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/CausalDeck/Cockpit/internal/api"
	"github.com/CausalDeck/Cockpit/internal/backend"
	"github.com/CausalDeck/Cockpit/internal/catalog"
	"github.com/CausalDeck/Cockpit/internal/dialogue"
	"github.com/CausalDeck/Cockpit/internal/dispatch"
	"github.com/CausalDeck/Cockpit/internal/lockfile"
	"github.com/CausalDeck/Cockpit/internal/session"
	"github.com/CausalDeck/Cockpit/internal/store"
	"github.com/CausalDeck/Cockpit/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Cockpit state data
	DefaultStateDir = "/var/lib/cockpit"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "cockpit.db"
	// DefaultBackendURL is the default analysis backend address
	DefaultBackendURL = "http://localhost:8000"
	// shutdownGracePeriod bounds graceful API shutdown
	shutdownGracePeriod = 10 * time.Second
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// One instance per state directory; the lock is released on exit.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err, "stateDir", *flags.stateDir)
		os.Exit(1)
	}
	defer lock.Release()

	storeOpts := buildStoreOptions(flags)
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping Cockpit with configured modules")
	slog.Debug("Final configuration", "stateDir", *flags.stateDir, "dsnSet", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr, "backendURL", *flags.backendURL, "openaiKeySet", *flags.openaiKey != "")

	if err := run(flags, storeOpts, apiOpts); err != nil {
		slog.Error("Cockpit failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Cockpit exited successfully")
}

func run(flags Flags, storeOpts []store.Option, apiOpts []api.Option) error {
	st, err := buildStore(storeOpts)
	if err != nil {
		return err
	}
	defer st.Close()

	backendClient, err := backend.NewClient(backend.ClientOpts{BaseURL: *flags.backendURL})
	if err != nil {
		return err
	}

	var chat session.ChatService
	if *flags.openaiKey != "" {
		chatClient, err := backend.NewChatClient(backend.ChatOpts{APIKey: *flags.openaiKey, Model: *flags.openaiModel})
		if err != nil {
			return err
		}
		chat = chatClient
	} else {
		slog.Warn("No OpenAI API key configured; free-form replies degrade to command guidance")
	}

	engine := dialogue.NewEngine(catalog.New())
	manager := session.NewManager(session.Opts{
		Engine: engine,
		Chat:   chat,
		Store:  st,
		Dispatch: func(snaps dispatch.SnapshotProvider) *dispatch.Dispatcher {
			return dispatch.New(dispatch.Opts{
				Queries:    backendClient,
				Benchmarks: backendClient,
				Summaries:  backendClient,
				Snapshots:  snaps,
				Panels:     backendClient,
			})
		},
	})

	server := api.NewServer(manager, apiOpts...)

	// Shut down cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("API shutdown failed", "error", err)
		}
	}()

	return server.Start()
}

// buildStore constructs the transcript store from options, falling back to
// the in-memory store when no DSN was configured.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	switch cfg.Driver {
	case "postgres":
		return store.NewPostgresStore(storeOpts...)
	case "sqlite3":
		return store.NewSQLiteStore(storeOpts...)
	default:
		slog.Debug("No database DSN provided, using in-memory transcript store")
		return store.NewInMemoryStore(), nil
	}
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	OpenAIModel string
	APIAddr     string
	BackendURL  string
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	openaiKey   *string
	openaiModel *string
	apiAddr     *string
	backendURL  *string
}

// initializeLogger sets up structured logging; COCKPIT_DEBUG=1 enables debug
// level.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("COCKPIT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("COCKPIT_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		APIAddr:     os.Getenv("API_ADDR"),
		BackendURL:  os.Getenv("BACKEND_URL"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No COCKPIT_STATE_DIR set, using default", "stateDir", config.StateDir)
	}
	if config.BackendURL == "" {
		config.BackendURL = DefaultBackendURL
		slog.Debug("No BACKEND_URL set, using default", "backendURL", config.BackendURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"COCKPIT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"BACKEND_URL", config.BackendURL)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for Cockpit data (overrides $COCKPIT_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN for the transcript store (overrides $DATABASE_URL)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for free-form replies (overrides $OPENAI_API_KEY)"),
		openaiModel: flag.String("openai-model", config.OpenAIModel, "OpenAI model name (overrides $OPENAI_MODEL)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		backendURL:  flag.String("backend-url", config.BackendURL, "analysis backend base URL (overrides $BACKEND_URL)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"backendURL", *flags.backendURL)

	return flags
}

// ensureDirectoriesExist creates the state directory for file-based storage.
func ensureDirectoriesExist(flags Flags) error {
	if *flags.dbDSN != "" && store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	if err := os.MkdirAll(*flags.stateDir, 0755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "stateDir", *flags.stateDir)
		return err
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsnType", "postgresql")
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsnType", "sqlite", "dbPath", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		sqlitePath := filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite in the state directory", "dbPath", sqlitePath)
		storeOpts = append(storeOpts, store.WithSQLiteDSN(sqlitePath))
	}
	return storeOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
