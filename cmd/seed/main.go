package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/config"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/logging"
	"github.com/mansoorceksport/workout-assistant/internal/repository"
	"github.com/mansoorceksport/workout-assistant/internal/service"
	"github.com/sirupsen/logrus"
)

type plannedExercise struct {
	Name   string
	Reps   int
	Weight int // lbs
	Sets   int
}

var splits = []struct {
	Name      string
	Exercises []plannedExercise
}{
	{"Leg Day", []plannedExercise{
		{"Barbell Squat", 8, 185, 4},
		{"Romanian Deadlift", 10, 135, 3},
		{"Walking Lunge", 12, 40, 3},
		{"Calf Raise", 15, 90, 3},
	}},
	{"Push", []plannedExercise{
		{"Barbell Bench Press", 8, 155, 4},
		{"Incline Dumbbell Press", 10, 50, 3},
		{"Dips", 12, 0, 3},
		{"Cable Fly", 12, 30, 3},
	}},
	{"Pull", []plannedExercise{
		{"Pull Up", 8, 0, 4},
		{"Barbell Row", 8, 135, 4},
		{"Lat Pulldown", 10, 110, 3},
		{"Face Pull", 15, 40, 3},
	}},
	{"Full Body", []plannedExercise{
		{"Deadlift", 5, 225, 3},
		{"Push Up", 15, 0, 3},
		{"Goblet Squat", 12, 50, 3},
		{"Seated Cable Row", 12, 100, 3},
	}},
}

func main() {
	days := flag.Int("days", 21, "Spread sessions over the last N days")
	every := flag.Int("every", 2, "Log a session every N days")
	clearFirst := flag.Bool("clear", false, "Clear the ledger before seeding")
	flag.Parse()

	if *days < 1 || *every < 1 {
		logrus.Fatal("-days and -every must be positive")
	}

	// The assistant is never called from here.
	_ = os.Setenv("ASSISTANT_ENABLED", "false")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logging.Setup(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := repository.OpenStore(ctx, cfg, nil)
	if err != nil {
		logrus.Fatalf("failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer closeStore()

	ledger := service.NewLedger(store, nil)
	if *clearFirst {
		if err := ledger.Clear(ctx); err != nil {
			logrus.Fatalf("failed to clear ledger: %v", err)
		}
		fmt.Println("Cleared existing sessions")
	}

	today := time.Now()
	var count int
	// Oldest first so the newest session ends up on top.
	for offset := *days - 1; offset >= 0; offset -= *every {
		day := today.AddDate(0, 0, -offset)
		split := splits[count%len(splits)]

		name := split.Name
		date := day.Format("2006-01-02")
		clock := fmt.Sprintf("%d:%02d:00 AM", 6+rand.Intn(5), rand.Intn(60))
		exercises := buildExercises(split.Exercises)

		session, err := ledger.Create(ctx, domain.SessionPatch{
			Name:      &name,
			Date:      &date,
			Time:      &clock,
			Exercises: &exercises,
		})
		if err != nil {
			logrus.Fatalf("failed to seed %s on %s: %v", name, date, err)
		}
		fmt.Printf("Seeded %s  %s  %s\n", session.ID, session.Date, session.Name)
		count++
	}

	summary, err := ledger.RecentSummary(ctx)
	if err != nil {
		logrus.Fatalf("failed to compute summary: %v", err)
	}
	fmt.Printf("\nSeeded %d sessions, %d within the recent window.\n", count, summary.TotalWorkouts)
}

// buildExercises expands a plan into sets. Ids are assigned by the ledger.
func buildExercises(plan []plannedExercise) []domain.Exercise {
	exercises := make([]domain.Exercise, 0, len(plan))
	for _, p := range plan {
		ex := domain.Exercise{Name: p.Name}
		for i := 0; i < p.Sets; i++ {
			ex.Sets = append(ex.Sets, domain.Set{Reps: p.Reps, Weight: p.Weight})
		}
		exercises = append(exercises, ex)
	}
	return exercises
}
