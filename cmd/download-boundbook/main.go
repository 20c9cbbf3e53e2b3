// download-boundbook fetches a single, compliant A&D bound book from a
// single FastBound account per ATF Ruling 2016-1.
//
// SECURITY: the API key arrives via flags or environment. On multi-user
// systems, command-line arguments are visible to all users via process
// listings; on shared machines prefer the environment or a .env file.
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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FastBound/Support/internal/config"
	"github.com/FastBound/Support/internal/fastbound"
	"github.com/FastBound/Support/internal/logger"
)

func main() {
	account := flag.String("a", "", "the FastBound account name")
	key := flag.String("k", "", "the FastBound API key")
	auditUser := flag.String("u", "", "the email address of a valid FastBound user account")
	output := flag.String("o", "", "the output file path (defaults to ACCOUNT.pdf)")
	server := flag.String("s", "", "the FastBound server (defaults to https://cloud.fastbound.com)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// flags win over environment, matching the original script's UX
	if *account != "" {
		cfg.FastBound.Account = *account
	}
	if *key != "" {
		cfg.FastBound.APIKey = *key
	}
	if *auditUser != "" {
		cfg.FastBound.AuditUser = *auditUser
	}
	if *server != "" {
		cfg.FastBound.Server = *server
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "download-boundbook")
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
	if len(cfg.FastBound.APIKey) != fastbound.APIKeyLength {
		log.Warn("API key doesn't look right, did you copy part of the key?",
			zap.Int("length", len(cfg.FastBound.APIKey)),
		)
	}

	out := *output
	if out == "" {
		out = cfg.FastBound.Account + ".pdf"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fastbound.New(fastbound.Config{
		Server:    cfg.FastBound.Server,
		Account:   cfg.FastBound.Account,
		APIKey:    cfg.FastBound.APIKey,
		AuditUser: cfg.FastBound.AuditUser,
		Auth:      fastbound.AuthAccountKey, // this endpoint family wants account:key
		Timeout:   time.Duration(cfg.FastBound.TimeoutSeconds) * time.Second,
	}, log)

	pdf, err := client.DownloadBoundBook(ctx)
	if err != nil {
		if errors.Is(err, fastbound.ErrBoundBookNotReady) {
			log.Warn("bound book is not ready, try again tomorrow")
			os.Exit(1)
		}
		log.Error("download failed", zap.Error(err))
		os.Exit(1)
	}

	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		log.Error("could not write output", zap.String("path", out), zap.Error(err))
		os.Exit(1)
	}
	log.Info("download successful", zap.String("path", out), zap.Int("bytes", len(pdf)))
}
