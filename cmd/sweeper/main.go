package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/lumiself/ai-influencer-studio/internal/adapter/repo"
	"github.com/lumiself/ai-influencer-studio/internal/infra"
)

// Sweeper deletes prediction records past the retention window. Run it from
// cron; the API itself never blocks on cleanup.
func main() {
	var (
		daysFlag   int
		dryRunFlag bool
	)
	flag.IntVar(&daysFlag, "days", 0, "retention window in days (defaults to RETENTION_DAYS)")
	flag.BoolVar(&dryRunFlag, "dry-run", false, "report what would be deleted without deleting")
	flag.Parse()

	_ = godotenv.Load()

	days := daysFlag
	if days <= 0 {
		if v := strings.TrimSpace(os.Getenv("RETENTION_DAYS")); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				days = parsed
			}
		}
	}
	if days <= 0 {
		days = 7
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "sweeper").Logger()
	records := repo.NewPredictionRepository(pool)

	if dryRunFlag {
		logger.Info().Int("days", days).Msg("dry run, no records deleted")
		return
	}

	deleted, err := records.DeleteOlderThan(ctx, days)
	if err != nil {
		exitWithError(fmt.Errorf("failed to sweep records: %w", err))
	}
	logger.Info().Int64("deleted", deleted).Int("days", days).Msg("retention sweep complete")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
