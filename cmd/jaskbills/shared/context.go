// Package shared holds the state passed to all CLI commands and the wiring
// they use to open the application.
package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jask/jaskbills/internal/config"
	"github.com/jask/jaskbills/internal/database"
	"github.com/jask/jaskbills/internal/database/repository"
	"github.com/jask/jaskbills/internal/prefs"
	"github.com/jask/jaskbills/internal/provider"
	"github.com/jask/jaskbills/internal/selection"
	"github.com/jask/jaskbills/internal/service"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// ConfigPath overrides the config file. When empty, $JASKBILLS_CONFIG and
	// then ~/.config/jaskbills/config.toml are used.
	ConfigPath string
	LogLevel   string
}

// App is everything a command needs, wired around one shared selection.
type App struct {
	Config      config.Config
	DB          *sql.DB
	Providers   *provider.Registry
	Selection   *selection.Selection
	RuleRepo    *repository.RuleRepo
	Bills       *service.BillService
	Rules       *service.RuleService
	Maintenance *service.MaintenanceService

	unbind func()
}

// Logger installs the default slog logger writing to w.
func (c *Context) Logger(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// LoadConfig resolves the config file for this run.
func (c *Context) LoadConfig() (config.Config, error) {
	if c.ConfigPath != "" {
		return config.LoadFile(c.ConfigPath)
	}
	return config.Load()
}

// Open loads config, migrates the database and restores the persisted selection.
func (c *Context) Open(ctx context.Context) (*App, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if v, dirty, err := database.Version(db); err == nil {
		slog.Debug("database ready", "path", cfg.Database.Path, "schema", v, "dirty", dirty)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	reg, err := provider.Load(cfg.Providers.Path)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sel := selection.New()
	unbind, err := prefs.Bind(sel, cfg.Selection.Path, cfg.Selection.Default)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("restore selection: %w", err)
	}

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		slog.Warn("using local timezone", "timezone", cfg.UI.Timezone, "err", err)
		loc = time.Local
	}

	billRepo := repository.NewBillRepo(db)
	ruleRepo := repository.NewRuleRepo(db)
	return &App{
		Config:    cfg,
		DB:        db,
		Providers: reg,
		Selection: sel,
		RuleRepo:  ruleRepo,
		Bills: &service.BillService{
			Bills:     billRepo,
			Accounts:  repository.NewAccountRepo(db),
			Rules:     ruleRepo,
			Providers: reg,
			Selection: sel,
			TZ:        loc,
		},
		Rules:       &service.RuleService{Rules: ruleRepo, Bills: billRepo, Providers: reg, Selection: sel},
		Maintenance: &service.MaintenanceService{DB: db},
		unbind:      unbind,
	}, nil
}

// Close stops persisting the selection and closes the database.
func (a *App) Close() error {
	if a.unbind != nil {
		a.unbind()
	}
	return a.DB.Close()
}

// NoSelectionHint decorates service.ErrNoSelection with what to do about it.
func NoSelectionHint(err error) error {
	if errors.Is(err, service.ErrNoSelection) {
		return fmt.Errorf("%w: run `jaskbills select <provider>` or pass --provider", err)
	}
	return err
}
