package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/themobileprof/voicepilot/internal/agent"
	"github.com/themobileprof/voicepilot/internal/backend"
	"github.com/themobileprof/voicepilot/internal/config"
	"github.com/themobileprof/voicepilot/internal/db"
	"github.com/themobileprof/voicepilot/internal/intent"
	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/internal/journey"
	"github.com/themobileprof/voicepilot/internal/resolve"
	"github.com/themobileprof/voicepilot/internal/ui"
)

var (
	version       = "1.0.0"
	configPath    string
	dbPath        string
	pagePath      string
	routePath     string
	userID        string
	authenticated bool
	showVersion   bool
)

func init() {
	flag.StringVar(&configPath, "config", config.GetConfigPath(), "Path to configuration file")
	flag.StringVar(&dbPath, "db", "", "Path to the conversation log database (overrides config)")
	flag.StringVar(&pagePath, "page", "", "HTML page snapshot to load at startup")
	flag.StringVar(&routePath, "route", "/", "Browser route the snapshot was taken on")
	flag.StringVar(&userID, "user", "", "User id to attribute the session to")
	flag.BoolVar(&authenticated, "authenticated", false, "Treat the user as already signed in")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
}

func main() {
	// A local .env is optional
	_ = godotenv.Load()
	flag.Parse()

	if showVersion {
		fmt.Printf("VoicePilot v%s\n", version)
		fmt.Println("Voice assistant console for TheMobileProf LMS")
		return
	}

	// Load configuration (creates with defaults if doesn't exist)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	color.NoColor = !cfg.ColorOutput

	database, err := db.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to open conversation log: %v", err)
	}
	defer database.Close()

	machine, err := buildMachine(cfg, database)
	if err != nil {
		log.Fatalf("Failed to build session: %v", err)
	}
	machine.SetUserID(userID)
	machine.SetAuthenticated(authenticated)

	repl := ui.NewREPL(machine)
	if err := repl.Preload(routePath, pagePath); err != nil {
		log.Fatalf("Failed to load page snapshot: %v", err)
	}

	ctx := context.Background()

	// Non-interactive mode: join all args as a single line of input
	if args := flag.Args(); len(args) > 0 {
		command := strings.Join(args, " ")
		if err := repl.ExecuteNonInteractive(ctx, command); err != nil {
			log.Fatalf("Command failed: %v", err)
		}
		return
	}

	if err := repl.Start(ctx); err != nil {
		log.Fatalf("REPL error: %v", err)
	}
}

// buildMachine wires a session machine from the configuration
func buildMachine(cfg *config.Config, database *db.DB) (*agent.Machine, error) {
	catalog := resolve.NewCatalog()
	if cfg.CatalogPath != "" {
		loaded, err := resolve.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("loading region catalog: %w", err)
		}
		catalog = loaded
	}

	classifier := intent.NewClassifier()
	if cfg.KeywordsPath != "" {
		sets, err := intent.LoadKeywordSets(cfg.KeywordsPath)
		if err != nil {
			return nil, fmt.Errorf("loading keyword sets: %w", err)
		}
		classifier = intent.NewClassifierWithSets(sets)
	}

	resolver := resolve.NewResolver(catalog)
	if cfg.Thresholds.ElementScore > 0 {
		resolver.SetMinScore(cfg.Thresholds.ElementScore)
	}

	// The console stays quiet below warnings
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	var remote interfaces.IntentResolver
	if cfg.BackendURL != "" {
		remote = backend.NewClient(cfg.BackendURL,
			time.Duration(cfg.BackendTimeoutMs)*time.Millisecond, logger)
	}

	trail := journey.GetLogger()
	if !cfg.TelemetryEnabled {
		trail = journey.Disabled()
	}

	machine := agent.NewMachine(uuid.NewString(), agent.Deps{
		Classifier:  classifier,
		Resolver:    resolver,
		Synthesizer: ui.ConsoleSynthesizer{},
		Backend:     remote,
		Fallback:    backend.NewFallback(classifier, catalog),
		ConvLog:     database,
		Journey:     trail,
		Logger:      logger,
	})
	machine.SetSettleDelay(time.Duration(cfg.Speech.SettleDelayMs) * time.Millisecond)
	return machine, nil
}
