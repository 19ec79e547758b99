// Package setup assembles the application from configuration: logger, rule
// tables, history store, optional database pool, and optional LLM clients.
package setup

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/database"
	"github.com/symptom-triage-server/internal/domain"
	"github.com/symptom-triage-server/internal/history"
	"github.com/symptom-triage-server/internal/repository"
	"github.com/symptom-triage-server/internal/service"
	"github.com/symptom-triage-server/pkg/external"
)

// Application bundles everything a command needs to serve traffic.
type Application struct {
	Logger      *logrus.Logger
	Config      *domain.Config
	Predictor   *service.PredictorService
	LabRules    *service.LabRuleSet
	Triage      *service.TriageService
	Store       history.Store
	DB          *database.DB
	Annotations *repository.AnnotationRepository

	closers []func() error
}

// NewLogger builds a logrus logger from configuration.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}

// Build wires the application. Standalone deployments get a SQLite history
// store and no database pool; server mode adds PostgreSQL for history and
// annotations. An empty LLM base URL disables extraction and explanations,
// leaving the vector-input path fully functional.
func Build(ctx context.Context, cfg *domain.Config) (*Application, error) {
	logger := NewLogger(cfg.Logging)

	app := &Application{
		Logger: logger,
		Config: cfg,
	}

	models, err := service.NewModelTable(service.DefaultDiseaseModels(), logger)
	if err != nil {
		return nil, fmt.Errorf("building model table: %w", err)
	}

	labRules, err := service.NewLabRuleSet(service.DefaultLabRules(), logger)
	if err != nil {
		return nil, fmt.Errorf("building lab rules: %w", err)
	}
	app.LabRules = labRules

	app.Predictor = service.NewPredictorService(
		logger,
		models,
		service.DefaultKeySymptomRules(),
		domain.DefaultLexicon(),
		cfg.Engine,
	)

	if err := app.buildHistory(cfg); err != nil {
		app.Close()
		return nil, err
	}

	if cfg.History.Backend == "postgres" {
		if err := app.buildDatabase(ctx, cfg, logger); err != nil {
			app.Close()
			return nil, err
		}
	}

	extractor, explainer, err := app.buildLLM(cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Triage = service.NewTriageService(
		logger,
		extractor,
		labRules,
		app.Predictor,
		explainer,
		app.Store,
	)

	return app, nil
}

// buildHistory selects the history store backend.
func (app *Application) buildHistory(cfg *domain.Config) error {
	switch cfg.History.Backend {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.History.SQLitePath)
		if err != nil {
			return fmt.Errorf("opening sqlite history store: %w", err)
		}
		app.Store = store
	case "postgres":
		store, err := history.NewPostgresStoreFromURL(cfg.History.PostgresURL)
		if err != nil {
			return fmt.Errorf("opening postgres history store: %w", err)
		}
		app.Store = store
	default:
		return fmt.Errorf("unknown history backend: %s", cfg.History.Backend)
	}

	app.closers = append(app.closers, app.Store.Close)

	app.Logger.WithField("backend", cfg.History.Backend).Info("History store ready")
	return nil
}

// buildDatabase opens the pgx pool, runs migrations, and wires the
// annotation repository.
func (app *Application) buildDatabase(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) error {
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	app.DB = db
	app.closers = append(app.closers, func() error {
		db.Close()
		return nil
	})

	runner, err := database.NewMigrationRunner(
		database.ConnectionURL(cfg.Database),
		cfg.Database.MigrationsPath,
		logger,
	)
	if err != nil {
		return fmt.Errorf("creating migration runner: %w", err)
	}
	defer runner.Close()

	if err := runner.Up(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	app.Annotations = repository.NewAnnotationRepository(db.Pool, logger)
	return nil
}

// buildLLM wires the extraction and explanation clients with their cache and
// circuit breaker layers. Both are nil when no LLM endpoint is configured.
func (app *Application) buildLLM(cfg *domain.Config, logger *logrus.Logger) (domain.SymptomExtractor, domain.ExplanationGenerator, error) {
	if cfg.LLM.BaseURL == "" {
		logger.Info("No LLM endpoint configured, text extraction and explanations disabled")
		return nil, nil, nil
	}

	var extractor domain.SymptomExtractor = external.NewExtractorClient(cfg.LLM, logger)
	extractor = external.NewResilientExtractor(extractor, logger)

	cached, err := external.NewCachingExtractor(extractor, cfg.Cache, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building extraction cache: %w", err)
	}
	app.closers = append(app.closers, cached.Close)
	extractor = cached

	var explainer domain.ExplanationGenerator = external.NewExplainerClient(cfg.LLM, logger)
	explainer = external.NewResilientExplainer(explainer, logger)

	logger.WithFields(logrus.Fields{
		"model":    cfg.LLM.Model,
		"base_url": cfg.LLM.BaseURL,
	}).Info("LLM clients ready")

	return extractor, explainer, nil
}

// Close releases everything Build opened, in reverse order.
func (app *Application) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.Logger.WithError(err).Warn("Close failed")
		}
	}
	app.closers = nil
}
