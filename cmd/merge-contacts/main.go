package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FastBound/Support/internal/config"
	"github.com/FastBound/Support/internal/fastbound"
	"github.com/FastBound/Support/internal/logger"
	"github.com/FastBound/Support/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "plan merges but do not execute them")
	logPath := flag.String("log", "merge-log.csv", "merge log path")
	xlsxPath := flag.String("xlsx", "", "also write the merge log as .xlsx")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "merge-contacts")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Error("configuration problem", zap.Error(e))
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fastbound.New(fastbound.Config{
		Server:        cfg.FastBound.Server,
		Account:       cfg.FastBound.Account,
		APIKey:        cfg.FastBound.APIKey,
		AuditUser:     cfg.FastBound.AuditUser,
		Auth:          fastbound.AuthKeyOnly,
		Timeout:       time.Duration(cfg.FastBound.TimeoutSeconds) * time.Second,
		Max429Retries: cfg.FastBound.Max429Retries,
		RateMargin:    cfg.FastBound.RateMargin,
	}, log)

	// Merge planning always works from a fresh download: a stale cache
	// here could merge into a contact that no longer exists.
	account, err := client.GetAccount(ctx)
	if err != nil {
		log.Fatal("could not fetch account", zap.Error(err))
	}
	contacts, err := client.ListContacts(ctx)
	if err != nil {
		log.Fatal("could not download contacts", zap.Error(err))
	}

	planner := service.NewMergePlanner(client, account.FFLNumber, log)
	plan := planner.Plan(contacts)
	log.Info("planned merges",
		zap.Int("duplicate_groups", plan.Groups),
		zap.Int("pending_merges", len(plan.Entries)),
		zap.Int("invalid_licenses", plan.Invalid),
		zap.Bool("dry_run", *dryRun),
	)

	entries, summary, err := planner.Execute(ctx, plan, *dryRun)

	if werr := service.WriteMergeLogCSV(*logPath, entries); werr != nil {
		log.Error("could not write merge log", zap.Error(werr))
	}
	if *xlsxPath != "" {
		if wb, werr := service.MergeLogWorkbook(entries); werr != nil {
			log.Error("could not build merge workbook", zap.Error(werr))
		} else if werr := service.WriteWorkbook(*xlsxPath, wb); werr != nil {
			log.Error("could not write merge workbook", zap.Error(werr))
		}
	}

	log.Info("merge summary",
		zap.Int("merged", summary.Merged),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("what_if", summary.WhatIf),
		zap.Int("invalid", summary.Invalid),
		zap.String("log", *logPath),
	)

	if err != nil {
		log.Error("merge run interrupted", zap.Error(err))
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
