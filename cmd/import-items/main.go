package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FastBound/Support/internal/config"
	"github.com/FastBound/Support/internal/fastbound"
	"github.com/FastBound/Support/internal/logger"
	"github.com/FastBound/Support/internal/repository"
	"github.com/FastBound/Support/internal/service"
)

func main() {
	input := flag.String("input", "", "item import CSV (required)")
	resultsPath := flag.String("results", "import-results.csv", "per-row result log path")
	xlsxPath := flag.String("xlsx", "", "also write the result log as .xlsx")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "import-items")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: import-items -input items.csv [-results out.csv] [-xlsx out.xlsx]")
		os.Exit(2)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Error("configuration problem", zap.Error(e))
		}
		os.Exit(2)
	}
	if len(cfg.FastBound.APIKey) != fastbound.APIKeyLength {
		log.Warn("API key doesn't look right, did you copy part of the key?",
			zap.Int("length", len(cfg.FastBound.APIKey)),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fastbound.New(fastbound.Config{
		Server:                    cfg.FastBound.Server,
		Account:                   cfg.FastBound.Account,
		APIKey:                    cfg.FastBound.APIKey,
		AuditUser:                 cfg.FastBound.AuditUser,
		Auth:                      fastbound.AuthKeyOnly,
		Timeout:                   time.Duration(cfg.FastBound.TimeoutSeconds) * time.Second,
		Max429Retries:             cfg.FastBound.Max429Retries,
		RateMargin:                cfg.FastBound.RateMargin,
		SuppressDispositionEmails: cfg.Import.SuppressDispositionEmails,
	}, log)

	cache := newCache(cfg)
	pool, err := loadPool(ctx, client, cache, log)
	if err != nil {
		log.Fatal("could not load contact pool", zap.Error(err))
	}

	rows, err := parseItemRows(*input)
	if err != nil {
		log.Fatal("could not read import file", zap.String("path", *input), zap.Error(err))
	}
	log.Info("starting import",
		zap.Int("rows", len(rows)),
		zap.Int("pooled_contacts", pool.Len()),
	)

	dispositionTypes, err := cfg.DispositionTypes()
	if err != nil {
		log.Fatal("could not load disposition type map", zap.Error(err))
	}

	resolver := service.NewResolver(client, cache, log)
	importer := service.NewImporter(resolver, client, pool, dispositionTypes, cfg.Import.SkipInvalidRows, log)

	results, summary, runErr := importer.Run(ctx, rows)

	if err := service.WriteResultsCSV(*resultsPath, results); err != nil {
		log.Error("could not write result log", zap.Error(err))
	}
	if *xlsxPath != "" {
		if wb, err := service.ResultsWorkbook(results); err != nil {
			log.Error("could not build result workbook", zap.Error(err))
		} else if err := service.WriteWorkbook(*xlsxPath, wb); err != nil {
			log.Error("could not write result workbook", zap.Error(err))
		}
	}

	log.Info("import summary",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.String("results", *resultsPath),
	)

	if runErr != nil {
		var planErr *fastbound.PlanLimitError
		if errors.As(runErr, &planErr) {
			log.Error("plan limit reached; upgrade the plan or wait for the window to roll",
				zap.Int("trailing_year_count", planErr.TrailingYearCount),
			)
			os.Exit(3)
		}
		log.Error("import stopped early", zap.Error(runErr))
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func newCache(cfg *config.Config) repository.ContactCache {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return repository.NewRedisCache(client, cfg.FastBound.Account,
			time.Duration(cfg.Cache.TTLHours)*time.Hour)
	case "none":
		return repository.NopCache{}
	default:
		return repository.NewCSVCache(cfg.Cache.Path)
	}
}

// loadPool seeds the contact pool from the cache when possible, falling
// back to a full download on a miss.
func loadPool(ctx context.Context, client *fastbound.Client, cache repository.ContactCache, log *zap.Logger) (*repository.ContactPool, error) {
	contacts, err := cache.Load(ctx)
	if err == nil {
		log.Info("loaded contact pool from cache", zap.Int("contacts", len(contacts)))
		return repository.NewContactPoolFrom(contacts), nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		log.Warn("contact cache unreadable, re-downloading", zap.Error(err))
	}

	contacts, err = client.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	pool := repository.NewContactPoolFrom(contacts)
	if err := cache.Save(ctx, pool.All()); err != nil {
		log.Warn("could not persist contact cache", zap.Error(err))
	}
	return pool, nil
}
