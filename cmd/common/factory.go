package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/pressrun/pressrun/internal/config"
	"github.com/pressrun/pressrun/internal/database"
	"github.com/pressrun/pressrun/internal/fetcher"
	"github.com/pressrun/pressrun/internal/logger"
	"github.com/pressrun/pressrun/internal/parser"
	"github.com/pressrun/pressrun/internal/parser/rssfeed"
	"github.com/pressrun/pressrun/internal/parser/wpblock"
	"github.com/pressrun/pressrun/internal/pipeline"
	"github.com/pressrun/pressrun/internal/retry"
)

// NewCommandDeps creates CommandDeps by loading config and creating a logger.
// This consolidates the common initialization code shared by all commands.
func NewCommandDeps() (CommandDeps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}
	if validateErr := deps.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate deps: %w", validateErr)
	}

	return deps, nil
}

// ConnectDatabase validates the database section and opens the connection pool.
func ConnectDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// listingParserFor selects the listing parser named by the config.
func listingParserFor(name string) (parser.ListingParser, error) {
	switch name {
	case "wpblock":
		return wpblock.NewListingParser(), nil
	case "rss":
		return rssfeed.NewListingParser(), nil
	default:
		return nil, fmt.Errorf("unknown listing parser %q", name)
	}
}

// BuildRunner wires the pipeline runner from config. The returned runner
// uses the given database connection for upload and dedup seeding.
func BuildRunner(cfg *config.Config, db *sqlx.DB, log logger.Interface) (*pipeline.Runner, error) {
	listing, err := listingParserFor(cfg.Crawl.Parser)
	if err != nil {
		return nil, err
	}

	httpFetcher := fetcher.New(cfg.Fetcher, log)
	repo := database.NewArticleRepository(db)

	uploadPolicy := retry.Config{
		MaxAttempts:  cfg.Fetcher.MaxRetries,
		InitialDelay: cfg.Fetcher.RetryDelay,
	}

	runCfg := pipeline.RunConfig{
		Source:                cfg.Crawl.Source,
		PageLimit:             cfg.Crawl.PageLimit,
		MaxArticles:           cfg.Crawl.MaxArticles,
		RecencyWindowHours:    cfg.Crawl.RecencyWindowHours,
		ExtractionConcurrency: cfg.Crawl.ExtractionConcurrency,
		UploadBatchSize:       cfg.Crawl.UploadBatchSize,
		PageDelay:             cfg.Crawl.PageDelay,
		KnownURLSeedLimit:     cfg.Crawl.KnownURLSeedLimit,
	}

	return pipeline.NewRunner(runCfg, httpFetcher, listing, wpblock.NewContentParser(), repo, uploadPolicy, log)
}
