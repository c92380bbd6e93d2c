package service

import (
	"context"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
)

// Exercise and set edits are pure transformations of one session's exercise
// list (see domain/exercise.go) routed through Update.

// AddExercise appends a named exercise seeded with one empty set.
func (l *Ledger) AddExercise(ctx context.Context, sessionID, name string) (*domain.WorkoutSession, error) {
	ex := domain.NewExercise(generateULID(), generateULID(), name)
	return l.Update(ctx, sessionID, func(s *domain.WorkoutSession) error {
		s.Exercises = domain.AppendExercise(s.Exercises, ex)
		return nil
	})
}

// RemoveExercise drops an exercise; unknown exercise ids leave the session unchanged.
func (l *Ledger) RemoveExercise(ctx context.Context, sessionID, exerciseID string) (*domain.WorkoutSession, error) {
	return l.Update(ctx, sessionID, func(s *domain.WorkoutSession) error {
		s.Exercises = domain.RemoveExercise(s.Exercises, exerciseID)
		return nil
	})
}

func (l *Ledger) RenameExercise(ctx context.Context, sessionID, exerciseID, name string) (*domain.WorkoutSession, error) {
	return l.Update(ctx, sessionID, func(s *domain.WorkoutSession) error {
		exercises, err := domain.RenameExercise(s.Exercises, exerciseID, name)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		return nil
	})
}

// AddSet appends an empty set to an exercise.
func (l *Ledger) AddSet(ctx context.Context, sessionID, exerciseID string) (*domain.WorkoutSession, error) {
	set := domain.Set{ID: generateULID()}
	return l.Update(ctx, sessionID, func(s *domain.WorkoutSession) error {
		exercises, err := domain.AppendSet(s.Exercises, exerciseID, set)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		return nil
	})
}

// UpdateSet edits reps and/or weight from raw text input.
func (l *Ledger) UpdateSet(ctx context.Context, sessionID, exerciseID, setID string, edit domain.SetEdit) (*domain.WorkoutSession, error) {
	return l.Update(ctx, sessionID, func(s *domain.WorkoutSession) error {
		exercises, err := domain.UpdateSet(s.Exercises, exerciseID, setID, edit)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		return nil
	})
}

func (l *Ledger) RemoveSet(ctx context.Context, sessionID, exerciseID, setID string) (*domain.WorkoutSession, error) {
	return l.Update(ctx, sessionID, func(s *domain.WorkoutSession) error {
		s.Exercises = domain.RemoveSet(s.Exercises, exerciseID, setID)
		return nil
	})
}
