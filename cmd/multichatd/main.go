package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/aschepis/backscratcher/multichat/auth"
	"github.com/aschepis/backscratcher/multichat/config"
	"github.com/aschepis/backscratcher/multichat/conversations"
	multichatlogger "github.com/aschepis/backscratcher/multichat/logger"
	"github.com/aschepis/backscratcher/multichat/migrations"
	"github.com/aschepis/backscratcher/multichat/server"
	"github.com/aschepis/backscratcher/multichat/users"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command-line flags
	var (
		configPath  = flag.String("config", config.GetServerConfigPath(), "Path to YAML config file")
		envFile     = flag.String("env-file", ".env", "Path to .env file loaded before reading the environment")
		addr        = flag.String("addr", "", "HTTP listen address (overrides http_addr)")
		dbPath      = flag.String("db", "", "Path to SQLite database file (overrides database_path)")
		pepperPath  = flag.String("pepper", "", "Path to pepper file (overrides pepper_file)")
		logFile     = flag.String("logfile", "", "Path to log file. If not set, logs to stdout")
		pretty      = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
		debug       = flag.Bool("debug-replies", false, "Answer chats locally without calling providers")
		writeConfig = flag.String("write-config", "", "Write the resolved configuration to this path and exit")
	)
	flag.Parse()

	appConfig, err := config.LoadServerConfig(*configPath, *envFile)
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	// Command-line flags win over file and environment
	if *addr != "" {
		appConfig.HTTPAddr = *addr
	}
	if *dbPath != "" {
		appConfig.DatabasePath = *dbPath
	}
	if *pepperPath != "" {
		appConfig.PepperFile = *pepperPath
	}
	if *logFile != "" {
		appConfig.LogFile = *logFile
	}
	if *pretty {
		appConfig.LogPretty = true
	}
	if *debug {
		appConfig.DebugReplies = true
	}

	if *writeConfig != "" {
		if err := config.SaveServerConfig(appConfig, *writeConfig); err != nil {
			return err
		}
		fmt.Printf("Wrote configuration to %s\n", *writeConfig)
		return nil
	}

	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Validate that --logfile and --pretty are mutually exclusive
	if appConfig.LogFile != "" && appConfig.LogPretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	logger, logCloser, err := multichatlogger.New(multichatlogger.Options{
		File:   appConfig.LogFile,
		Pretty: appConfig.LogPretty,
		Level:  appConfig.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logCloser.Close() //nolint:errcheck // Nothing to do on log close errors

	logger.Info().
		Str("addr", appConfig.HTTPAddr).
		Str("db", appConfig.DatabasePath).
		Str("config", *configPath).
		Bool("debug_replies", appConfig.DebugReplies).
		Msg("multichatd starting")

	// ---------------------------
	// 1. Open SQLite and migrate
	// ---------------------------

	db, err := migrations.Open(appConfig.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // No remedy for db close errors

	if err := migrations.Run(db, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ---------------------------
	// 2. Credentials
	// ---------------------------

	pepper, err := auth.LoadPepper(appConfig.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper (create one with the pepper command): %w", err)
	}
	hasher, err := auth.NewHasher(pepper)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}

	secret := []byte(appConfig.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		logger.Warn().Msg("SESSION_SECRET not set; sessions will not survive a restart")
	}
	sessions := auth.NewSessionStore(db, secret, appConfig.SessionTTL())

	ctx := context.Background()
	if removed, err := sessions.DeleteExpired(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to remove expired sessions")
	} else if removed > 0 {
		logger.Info().Int64("removed", removed).Msg("Removed expired sessions")
	}

	// ---------------------------
	// 3. LLM providers
	// ---------------------------

	registry, err := config.BuildRegistry(ctx, appConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to build LLM registry: %w", err)
	}
	defer registry.Close() //nolint:errcheck // Best effort on shutdown

	// ---------------------------
	// 4. HTTP server
	// ---------------------------

	srv := server.New(server.Config{
		Logger:       logger,
		Registry:     registry,
		Manager:      conversations.NewManager(conversations.NewStore(db), logger),
		Accounts:     users.NewAccounts(users.NewStore(db), hasher, logger),
		Sessions:     sessions,
		HistoryTurns: appConfig.HistoryTurns,
		DebugReplies: appConfig.DebugReplies,
	})

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ServeTCP(appConfig.HTTPAddr)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Graceful shutdown did not complete")
		}
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info().Msg("multichatd shutdown complete")
	return nil
}
