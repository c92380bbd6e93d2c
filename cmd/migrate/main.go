package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/config"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/logging"
	"github.com/mansoorceksport/workout-assistant/internal/repository"
	"github.com/mansoorceksport/workout-assistant/internal/service"
	"github.com/sirupsen/logrus"
)

// Rewrites the stored ledger and chat logs in canonical form: text reps and
// weights become numbers, legacy "key" ids become "id", bare-array
// transcripts get an id and savedAt.
func main() {
	dryRun := flag.Bool("dry-run", true, "Preview changes without writing (default: true)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	// The assistant is never called from here.
	_ = os.Setenv("ASSISTANT_ENABLED", "false")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logging.Setup(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, closeStore, err := repository.OpenStore(ctx, cfg, nil)
	if err != nil {
		logrus.Fatalf("failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer closeStore()

	fmt.Println("=== Snapshot Migration ===")
	fmt.Printf("Backend: %s\n", cfg.Store.Backend)
	fmt.Printf("Dry Run: %v\n\n", *dryRun)

	fmt.Println("--- Workouts ---")
	workoutsStale, err := needsRewrite[[]domain.WorkoutSession](ctx, store, domain.WorkoutsKey)
	if err != nil {
		logrus.Fatalf("failed to inspect %s: %v", domain.WorkoutsKey, err)
	}
	ledger := service.NewLedger(store, nil)
	sessions, err := ledger.List(ctx)
	if err != nil {
		logrus.Fatalf("failed to load workouts: %v", err)
	}
	fmt.Printf("Sessions: %d, needs rewrite: %v\n", len(sessions), workoutsStale)
	for _, s := range sessions {
		fmt.Printf("  %s  %-10s  %s (%d exercises)\n", s.ID, s.Date, truncate(s.Name, 40), len(s.Exercises))
	}

	fmt.Println("\n--- Chat Logs ---")
	logsStale, err := needsRewrite[[]domain.ChatTranscript](ctx, store, domain.ChatLogsKey)
	if err != nil {
		logrus.Fatalf("failed to inspect %s: %v", domain.ChatLogsKey, err)
	}
	logs := service.NewChatLogStore(store, nil)
	summaries, err := logs.Summaries(ctx)
	if err != nil {
		logrus.Fatalf("failed to load chat logs: %v", err)
	}
	fmt.Printf("Transcripts: %d, needs rewrite: %v\n", len(summaries), logsStale)
	for _, s := range summaries {
		fmt.Printf("  %s  %3d messages  %s\n", s.ID, s.MessageCount, truncate(s.Title, 40))
	}

	if *dryRun {
		fmt.Println("\nThis was a DRY RUN. No data was modified.")
		fmt.Println("Run with -dry-run=false to apply changes.")
		return
	}

	var rewritten int
	if workoutsStale {
		if err := ledger.Flush(ctx); err != nil {
			logrus.Fatalf("failed to rewrite workouts: %v", err)
		}
		rewritten++
	}
	if logsStale {
		if _, err := logs.Flush(ctx); err != nil {
			logrus.Fatalf("failed to rewrite chat logs: %v", err)
		}
		rewritten++
	}

	fmt.Printf("\nMigration complete, %d key(s) rewritten.\n", rewritten)
}

// needsRewrite reports whether the stored value at key differs from its
// canonical re-encoding. A missing key needs nothing.
func needsRewrite[T any](ctx context.Context, store domain.KeyValueStore, key string) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var decoded T
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return false, err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(raw)); err != nil {
		return false, err
	}
	return !bytes.Equal(compact.Bytes(), canonical), nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
