package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "3:04:05 PM"
)

// Ledger owns the canonical, newest-first list of workout sessions. The whole
// list is stored as one JSON value under domain.WorkoutsKey and every mutation
// rewrites it. Mutations on the same key are serialized internally.
//
// A failed write is reported to the caller but the in-memory snapshot keeps
// the change; the next successful write flushes it.
type Ledger struct {
	store domain.KeyValueStore
	key   string
	now   func() time.Time

	mu     sync.RWMutex
	cache  []domain.WorkoutSession
	loaded bool
}

// NewLedger creates a ledger over store. now defaults to time.Now.
func NewLedger(store domain.KeyValueStore, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		store: store,
		key:   domain.WorkoutsKey,
		now:   now,
	}
}

// List returns the current snapshot. Nothing persisted yet is an empty list.
func (l *Ledger) List(ctx context.Context) ([]domain.WorkoutSession, error) {
	sessions, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return domain.CloneSessions(sessions), nil
}

// Get re-reads one session by id.
func (l *Ledger) Get(ctx context.Context, id string) (*domain.WorkoutSession, error) {
	sessions, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfSession(sessions, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s := sessions[i].Clone()
	return &s, nil
}

// Create prepends a new session. Name defaults to "", date and time to the
// moment of the call, and unless the initial patch carries exercises the
// session is seeded with one exercise holding one empty set.
//
// On a persistence failure the created session is still returned alongside
// the error.
func (l *Ledger) Create(ctx context.Context, initial domain.SessionPatch) (*domain.WorkoutSession, error) {
	var created domain.WorkoutSession

	err := l.mutate(ctx, func(sessions []domain.WorkoutSession) ([]domain.WorkoutSession, error) {
		now := l.now()
		id := generateULID()
		for indexOfSession(sessions, id) >= 0 {
			id = generateULID()
		}

		s := domain.WorkoutSession{
			ID:        id,
			Date:      now.Format(dateLayout),
			Time:      now.Format(timeLayout),
			Exercises: []domain.Exercise{domain.NewExercise(generateULID(), generateULID(), "")},
		}
		initial.Apply(&s)
		s.ID = id
		ensureIdentity(&s)

		created = s.Clone()
		return append([]domain.WorkoutSession{s}, sessions...), nil
	})
	if created.ID == "" {
		return nil, err
	}
	return &created, err
}

// Update applies mutate to the session with the given id and re-persists.
// A missing id fails with domain.ErrSessionNotFound. The mutator may not
// change the id.
func (l *Ledger) Update(ctx context.Context, id string, mutate func(*domain.WorkoutSession) error) (*domain.WorkoutSession, error) {
	var updated domain.WorkoutSession

	err := l.mutate(ctx, func(sessions []domain.WorkoutSession) ([]domain.WorkoutSession, error) {
		i := indexOfSession(sessions, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}

		s := sessions[i].Clone()
		if err := mutate(&s); err != nil {
			return nil, err
		}
		s.ID = id
		ensureIdentity(&s)

		sessions[i] = s
		updated = s.Clone()
		return sessions, nil
	})
	if updated.ID == "" {
		return nil, err
	}
	return &updated, err
}

// Patch is Update with a field patch.
func (l *Ledger) Patch(ctx context.Context, id string, patch domain.SessionPatch) (*domain.WorkoutSession, error) {
	return l.Update(ctx, id, func(s *domain.WorkoutSession) error {
		patch.Apply(s)
		return nil
	})
}

// Remove deletes the session with the given id. Unknown ids are a no-op.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	return l.mutate(ctx, func(sessions []domain.WorkoutSession) ([]domain.WorkoutSession, error) {
		i := indexOfSession(sessions, id)
		if i < 0 {
			return nil, errNoChange
		}
		return append(sessions[:i], sessions[i+1:]...), nil
	})
}

// Clear drops every session and deletes the stored key.
func (l *Ledger) Clear(ctx context.Context) error {
	mu := lockForKey(l.key)
	mu.Lock()
	defer mu.Unlock()

	l.mu.Lock()
	l.cache = []domain.WorkoutSession{}
	l.loaded = true
	l.mu.Unlock()

	if err := l.store.Delete(ctx, l.key); err != nil {
		return l.reportFailure("delete", err)
	}
	return nil
}

// Flush rewrites the current snapshot in canonical form. It retries a write
// that failed earlier and upgrades legacy snapshots.
func (l *Ledger) Flush(ctx context.Context) error {
	mu := lockForKey(l.key)
	mu.Lock()
	defer mu.Unlock()

	sessions, err := l.snapshot(ctx)
	if err != nil {
		return err
	}
	return l.persist(ctx, sessions)
}

// errNoChange tells mutate to skip the write.
var errNoChange = errors.New("no change")

func (l *Ledger) mutate(ctx context.Context, fn func([]domain.WorkoutSession) ([]domain.WorkoutSession, error)) error {
	mu := lockForKey(l.key)
	mu.Lock()
	defer mu.Unlock()

	current, err := l.snapshot(ctx)
	if err != nil {
		return err
	}

	next, err := fn(domain.CloneSessions(current))
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.cache = next
	l.loaded = true
	l.mu.Unlock()

	return l.persist(ctx, next)
}

// snapshot returns the cached list, reading through to the store once.
func (l *Ledger) snapshot(ctx context.Context) ([]domain.WorkoutSession, error) {
	l.mu.RLock()
	if l.loaded {
		sessions := l.cache
		l.mu.RUnlock()
		return sessions, nil
	}
	l.mu.RUnlock()

	sessions, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		l.cache = sessions
		l.loaded = true
	}
	return l.cache, nil
}

func (l *Ledger) load(ctx context.Context) ([]domain.WorkoutSession, error) {
	raw, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return []domain.WorkoutSession{}, nil
		}
		return nil, l.reportFailure("get", err)
	}

	var sessions []domain.WorkoutSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, l.reportFailure("decode", err)
	}
	if sessions == nil {
		sessions = []domain.WorkoutSession{}
	}
	return sessions, nil
}

func (l *Ledger) persist(ctx context.Context, sessions []domain.WorkoutSession) error {
	if sessions == nil {
		sessions = []domain.WorkoutSession{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return l.reportFailure("encode", err)
	}
	if err := l.store.Set(ctx, l.key, string(data)); err != nil {
		return l.reportFailure("set", err)
	}
	return nil
}

func (l *Ledger) reportFailure(op string, err error) error {
	logrus.WithFields(logrus.Fields{
		"store.key": l.key,
		"op":        op,
	}).WithError(err).Warn("ledger persistence failed")
	return &domain.PersistenceError{Key: l.key, Op: op, Err: err}
}

// ensureIdentity gives ids to exercises and sets that arrived without one and
// clamps counts into the range CoerceCount produces.
func ensureIdentity(s *domain.WorkoutSession) {
	for i := range s.Exercises {
		ex := &s.Exercises[i]
		if ex.ID == "" {
			ex.ID = generateULID()
		}
		for j := range ex.Sets {
			set := &ex.Sets[j]
			if set.ID == "" {
				set.ID = generateULID()
			}
			set.Reps = domain.ClampCount(set.Reps)
			set.Weight = domain.ClampCount(set.Weight)
		}
	}
}

func indexOfSession(sessions []domain.WorkoutSession, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}
