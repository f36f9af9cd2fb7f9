package harvest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// memStore is an in-memory pending store plus vocabulary key set with the
// same compare-and-set semantics as the SQL repositories.
type memStore struct {
	mu         sync.Mutex
	candidates map[domain.Key]domain.PendingCandidate
	vocabulary map[domain.Key]bool

	InsertErr error

	// preempt holds rows another process commits between this process's
	// KeyExists and Insert for the same key.
	preempt map[domain.Key]domain.PendingCandidate
}

func newMemStore() *memStore {
	return &memStore{
		candidates: make(map[domain.Key]domain.PendingCandidate),
		vocabulary: make(map[domain.Key]bool),
	}
}

func (m *memStore) seed(c domain.PendingCandidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Tags == nil {
		c.Tags = []string{}
	}
	m.candidates[c.Key] = c
}

func (m *memStore) addVocabulary(key domain.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vocabulary[key] = true
}

func (m *memStore) snapshot() []domain.PendingCandidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PendingCandidate, 0, len(m.candidates))
	for _, c := range m.candidates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// overlap returns keys present in both stores.
func (m *memStore) overlap() []domain.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Key
	for k := range m.candidates {
		if m.vocabulary[k] {
			out = append(out, k)
		}
	}
	return out
}

// --- keyspace / filter ---

func (m *memStore) KeyExists(_ context.Context, key domain.Key) (domain.KeyLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locate(key), nil
}

func (m *memStore) Locate(_ context.Context, keys []domain.Key) (map[domain.Key]domain.KeyLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.Key]domain.KeyLocation, len(keys))
	for _, k := range keys {
		out[k] = m.locate(k)
	}
	return out, nil
}

func (m *memStore) locate(key domain.Key) domain.KeyLocation {
	switch {
	case m.vocabulary[key]:
		return domain.KeyLocationVocabulary
	case hasKey(m.candidates, key):
		return domain.KeyLocationPending
	}
	return domain.KeyLocationNone
}

func hasKey(m map[domain.Key]domain.PendingCandidate, key domain.Key) bool {
	_, ok := m[key]
	return ok
}

// --- tx ---

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- candidates ---

func (m *memStore) Get(_ context.Context, key domain.Key) (*domain.PendingCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[key]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
	}
	c.Tags = append([]string{}, c.Tags...)
	return &c, nil
}

func (m *memStore) List(_ context.Context, states ...domain.CandidateState) ([]domain.PendingCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.PendingCandidate{}
	for _, c := range m.candidates {
		if len(states) > 0 && !containsState(states, c.State) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out, nil
}

func containsState(states []domain.CandidateState, s domain.CandidateState) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

func (m *memStore) Insert(_ context.Context, c *domain.PendingCandidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if other, ok := m.preempt[c.Key]; ok {
		delete(m.preempt, c.Key)
		m.candidates[c.Key] = other
	}
	if hasKey(m.candidates, c.Key) {
		return fmt.Errorf("candidate %s: %w", c.Key, domain.ErrAlreadyExists)
	}
	m.candidates[c.Key] = *c
	return nil
}

func (m *memStore) Touch(_ context.Context, key domain.Key, surface, batchID string, seenAt time.Time) error {
	return m.update(key, func(c *domain.PendingCandidate) error {
		c.Surface, c.BatchID, c.LastSeenAt = surface, batchID, seenAt
		return nil
	})
}

func (m *memStore) Transition(_ context.Context, key domain.Key, from, to domain.CandidateState) error {
	if err := domain.CheckTransition(from, to); err != nil {
		return err
	}
	return m.update(key, func(c *domain.PendingCandidate) error {
		if c.State != from {
			return fmt.Errorf("candidate %s in state %s: %w", key, c.State, domain.ErrConflict)
		}
		c.State = to
		return nil
	})
}

func (m *memStore) Resolve(_ context.Context, key domain.Key, translation *string) error {
	return m.update(key, func(c *domain.PendingCandidate) error {
		if c.State != domain.CandidateStateTranslating {
			return fmt.Errorf("candidate %s in state %s: %w", key, c.State, domain.ErrConflict)
		}
		c.State = domain.CandidateStateAwaitingDecision
		c.Translation = translation
		return nil
	})
}

func (m *memStore) SetTags(_ context.Context, key domain.Key, tags []string) error {
	return m.update(key, func(c *domain.PendingCandidate) error {
		c.Tags = tags
		return nil
	})
}

func (m *memStore) SetTranslation(_ context.Context, key domain.Key, translation *string) error {
	return m.update(key, func(c *domain.PendingCandidate) error {
		c.Translation = translation
		return nil
	})
}

func (m *memStore) Delete(_ context.Context, key domain.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !hasKey(m.candidates, key) {
		return fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
	}
	delete(m.candidates, key)
	return nil
}

func (m *memStore) update(key domain.Key, fn func(c *domain.PendingCandidate) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[key]
	if !ok {
		return fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
	}
	if err := fn(&c); err != nil {
		return err
	}
	m.candidates[key] = c
	return nil
}
