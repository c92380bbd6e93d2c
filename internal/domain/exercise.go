package domain

// Pure transformations over a session's exercise list. None of them mutate
// their input; each returns a fresh slice that the ledger then persists.

// NewExercise returns an exercise seeded with one empty set.
func NewExercise(id, setID, name string) Exercise {
	return Exercise{
		ID:   id,
		Name: name,
		Sets: []Set{{ID: setID}},
	}
}

func AppendExercise(exercises []Exercise, ex Exercise) []Exercise {
	out := cloneExercises(exercises)
	return append(out, ex)
}

// RemoveExercise drops the exercise with the given id. Unknown ids are a no-op.
func RemoveExercise(exercises []Exercise, exerciseID string) []Exercise {
	out := make([]Exercise, 0, len(exercises))
	for _, ex := range cloneExercises(exercises) {
		if ex.ID != exerciseID {
			out = append(out, ex)
		}
	}
	return out
}

func RenameExercise(exercises []Exercise, exerciseID, name string) ([]Exercise, error) {
	out := cloneExercises(exercises)
	i := indexOfExercise(out, exerciseID)
	if i < 0 {
		return nil, ErrExerciseNotFound
	}
	out[i].Name = name
	return out, nil
}

func AppendSet(exercises []Exercise, exerciseID string, set Set) ([]Exercise, error) {
	out := cloneExercises(exercises)
	i := indexOfExercise(out, exerciseID)
	if i < 0 {
		return nil, ErrExerciseNotFound
	}
	out[i].Sets = append(out[i].Sets, set)
	return out, nil
}

// UpdateSet applies a text edit to one set, coercing reps/weight once here.
func UpdateSet(exercises []Exercise, exerciseID, setID string, edit SetEdit) ([]Exercise, error) {
	out := cloneExercises(exercises)
	i := indexOfExercise(out, exerciseID)
	if i < 0 {
		return nil, ErrExerciseNotFound
	}
	for j := range out[i].Sets {
		if out[i].Sets[j].ID != setID {
			continue
		}
		if edit.Reps != nil {
			out[i].Sets[j].Reps = CoerceCount(*edit.Reps)
		}
		if edit.Weight != nil {
			out[i].Sets[j].Weight = CoerceCount(*edit.Weight)
		}
		return out, nil
	}
	return nil, ErrSetNotFound
}

// RemoveSet drops one set. An exercise may end up with no sets.
func RemoveSet(exercises []Exercise, exerciseID, setID string) []Exercise {
	out := cloneExercises(exercises)
	i := indexOfExercise(out, exerciseID)
	if i < 0 {
		return out
	}
	sets := make([]Set, 0, len(out[i].Sets))
	for _, s := range out[i].Sets {
		if s.ID != setID {
			sets = append(sets, s)
		}
	}
	out[i].Sets = sets
	return out
}

// FindExercise returns the exercise with the given id.
func FindExercise(exercises []Exercise, exerciseID string) (Exercise, bool) {
	if i := indexOfExercise(exercises, exerciseID); i >= 0 {
		return exercises[i], true
	}
	return Exercise{}, false
}

func indexOfExercise(exercises []Exercise, exerciseID string) int {
	for i := range exercises {
		if exercises[i].ID == exerciseID {
			return i
		}
	}
	return -1
}
