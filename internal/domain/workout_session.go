package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Set is a single logged set of an exercise.
type Set struct {
	ID     string `json:"id"`
	Reps   int    `json:"reps"`
	Weight int    `json:"weight"`
}

type Exercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets []Set  `json:"sets"` // display order = insertion order
}

// WorkoutSession is one logged workout. ID is assigned by the ledger at
// creation and never reassigned; Date is the calendar aggregation key.
type WorkoutSession struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Date      string     `json:"date"`
	Time      string     `json:"time,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

// WorkoutSummary is the rolling activity summary handed to the assistant.
type WorkoutSummary struct {
	TotalWorkouts int              `json:"totalWorkouts"`
	Workouts      []WorkoutSession `json:"workouts"`
}

// SessionPatch carries the editable top-level fields of a session. Nil
// fields are left untouched.
type SessionPatch struct {
	Name      *string     `json:"name"`
	Date      *string     `json:"date"`
	Time      *string     `json:"time"`
	Exercises *[]Exercise `json:"exercises"`
}

// Apply copies the non-nil fields of the patch onto the session.
func (p SessionPatch) Apply(s *WorkoutSession) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.Time != nil {
		s.Time = *p.Time
	}
	if p.Exercises != nil {
		s.Exercises = cloneExercises(*p.Exercises)
	}
}

// SetEdit is a text edit of a set as typed by the user. Nil fields are kept.
type SetEdit struct {
	Reps   *string
	Weight *string
}

// Clone returns a deep copy so callers never share slices with the ledger.
func (s WorkoutSession) Clone() WorkoutSession {
	s.Exercises = cloneExercises(s.Exercises)
	return s
}

func cloneExercises(in []Exercise) []Exercise {
	if in == nil {
		return nil
	}
	out := make([]Exercise, len(in))
	for i, ex := range in {
		out[i] = ex
		if ex.Sets != nil {
			out[i].Sets = append([]Set(nil), ex.Sets...)
		}
	}
	return out
}

// CloneSessions deep-copies a snapshot.
func CloneSessions(in []WorkoutSession) []WorkoutSession {
	if in == nil {
		return nil
	}
	out := make([]WorkoutSession, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// MaxCount is the largest reps/weight value kept. Larger input yields 0, both
// when typed and when decoded from a stored snapshot.
const MaxCount = math.MaxInt32

// CoerceCount turns user-typed reps/weight text into a non-negative integer.
// Leading digits are honoured ("12kg" -> 12); empty, non-numeric, negative or
// overflowing input yields 0.
func CoerceCount(text string) int {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "+")
	end := 0
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(t[:end])
	if err != nil || n > MaxCount {
		return 0
	}
	return n
}

// ClampCount applies the CoerceCount range to an already numeric value.
func ClampCount(n int) int {
	if n < 0 || n > MaxCount {
		return 0
	}
	return n
}

// coerceRaw accepts a JSON number or string and returns a non-negative int.
// Older snapshots stored reps/weight as the raw text field value.
func coerceRaw(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f <= 0 || math.IsNaN(f) || f > MaxCount {
			return 0
		}
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return CoerceCount(s)
	}
	return 0
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID     string          `json:"id"`
		Key    string          `json:"key"`
		Reps   json.RawMessage `json:"reps"`
		Weight json.RawMessage `json:"weight"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.ID = firstNonEmpty(aux.ID, aux.Key)
	s.Reps = coerceRaw(aux.Reps)
	s.Weight = coerceRaw(aux.Weight)
	return nil
}

func (e *Exercise) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Name string `json:"name"`
		Sets []Set  `json:"sets"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.ID = firstNonEmpty(aux.ID, aux.Key)
	e.Name = aux.Name
	e.Sets = aux.Sets
	return nil
}

func (w *WorkoutSession) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        string     `json:"id"`
		Key       string     `json:"key"`
		Name      string     `json:"name"`
		Date      string     `json:"date"`
		Time      string     `json:"time"`
		Exercises []Exercise `json:"exercises"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.ID = firstNonEmpty(aux.ID, aux.Key)
	w.Name = aux.Name
	w.Date = aux.Date
	w.Time = aux.Time
	w.Exercises = aux.Exercises
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
