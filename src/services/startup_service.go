package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/database"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/processors"
)

// DefaultDatabaseName is used when neither the environment nor the settings name a file.
const DefaultDatabaseName = "weekly_giving.db"

// StartupResult is delivered once when startup finishes.
type StartupResult struct {
	Service  GivingService
	Settings *config.Settings
	Err      error
}

// Startup performs the checks that must finish before the form is shown.
type Startup struct {
	cfg      *config.AppConfig
	resolver DatabaseResolver
	prompt   Prompt
	display  Display
}

func NewStartup(cfg *config.AppConfig, resolver DatabaseResolver, prompt Prompt, display Display) *Startup {
	return &Startup{cfg: cfg, resolver: resolver, prompt: prompt, display: display}
}

// Run starts the checks on a new goroutine. Progress messages are sent on progress,
// which the caller must drain; it is closed before the single result is delivered.
// Startup cannot be cancelled. The resolver's quit answer is the only early exit.
func (s *Startup) Run(progress chan<- string) <-chan StartupResult {
	done := make(chan StartupResult, 1)
	go func() {
		svc, settings, err := s.run(progress)
		close(progress)
		done <- StartupResult{Service: svc, Settings: settings, Err: err}
	}()
	return done
}

func (s *Startup) run(progress chan<- string) (GivingService, *config.Settings, error) {
	report := func(msg string) {
		progress <- msg
	}

	report("Creating application directories...")
	if err := os.MkdirAll(s.cfg.AppDataDir, 0o755); err != nil {
		return nil, nil, &models.ConfigError{Path: s.cfg.AppDataDir, Err: err}
	}

	report("Opening log file...")
	if err := logger.InitLogger(s.cfg.LogLevel, s.cfg.LogFilePath); err != nil {
		return nil, nil, &models.ConfigError{Path: s.cfg.LogFilePath, Err: err}
	}

	report("Loading settings...")
	settings, err := config.LoadSettings(s.cfg.SettingsPath, s.cfg.DefaultSettingsPath)
	if err != nil {
		logger.L.Error("Failed to load settings", "error", err)
		return nil, nil, err
	}

	report("Checking database...")
	dbPath, err := s.resolveDatabase(settings)
	if err != nil {
		return nil, nil, err
	}
	if settings.FileLoc != dbPath && s.cfg.DatabasePath == "" {
		settings.FileLoc = dbPath
		if err := settings.Save(); err != nil {
			logger.L.Error("Failed to record database location", "error", err)
			return nil, nil, err
		}
	}

	report("Opening database...")
	store, err := database.Open(dbPath)
	if err != nil {
		logger.L.Error("Failed to open database", "path", dbPath, "error", err)
		return nil, nil, err
	}

	report("Preparing records...")
	processor := processors.NewTotalsProcessor()
	reports := NewReportService(processor, cache.New(DefaultCacheExpiration, CacheCleanupInterval))
	svc, err := NewGivingService(store, settings, processor, reports, s.prompt, s.display, s.cfg.BackupKeep)
	if err != nil {
		store.Close()
		logger.L.Error("Failed to prepare records", "error", err)
		return nil, nil, err
	}
	logger.L.Info("Startup complete", "database", dbPath, "at", time.Now().Format(time.RFC3339))
	return svc, settings, nil
}

// resolveDatabase picks the database file, asking the resolver when it does not exist.
func (s *Startup) resolveDatabase(settings *config.Settings) (string, error) {
	dbPath := s.cfg.DatabasePath
	if dbPath == "" {
		dbPath = settings.FileLoc
	}
	if dbPath == "" {
		dbPath = filepath.Join(s.cfg.AppDataDir, DefaultDatabaseName)
	}
	if _, err := os.Stat(dbPath); err == nil {
		return dbPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", &models.StorageError{Op: "check database", Err: err}
	}

	action, path := s.resolver.ResolveMissingDatabase(dbPath)
	switch action {
	case ResolveLocate:
		if _, err := os.Stat(path); err != nil {
			return "", &models.StorageError{Op: "locate database", Err: err}
		}
		logger.L.Info("Using located database", "path", path)
		return path, nil
	case ResolveCreate:
		if path != "" {
			dbPath = path
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return "", &models.StorageError{Op: "create database", Err: err}
		}
		logger.L.Info("Creating new database", "path", dbPath)
		return dbPath, nil
	default:
		logger.L.Info("Startup stopped: no database chosen")
		return "", fmt.Errorf("no database selected: %w", models.ErrAborted)
	}
}
