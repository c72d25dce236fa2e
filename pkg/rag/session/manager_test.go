package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu      sync.Mutex
	data    map[string]*store.Session
	loadErr error
	updates int
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string]*store.Session{}}
}

func (m *mapStore) Load(ctx context.Context, key string) (*store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data[key].Clone(), nil
}

func (m *mapStore) Update(ctx context.Context, key string, fn func(s *store.Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	s, ok := m.data[key]
	if !ok {
		s = store.NewSession(key)
		m.data[key] = s
	}
	fn(s)
	return nil
}

func (m *mapStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "library:abc", LibraryKey(" abc "))
	assert.Equal(t, "pdf:abc:doc-1", PDFKey("abc", "doc-1"))
}

func TestBeginAndCommit(t *testing.T) {
	st := newMapStore()
	m := NewManager(st, nil)
	key := LibraryKey("s1")

	d, err := m.Begin(context.Background(), key)
	require.NoError(t, err)
	d.Remember(store.SeenTitle{ID: "ID-42", Title: "1984"})

	snap, err := m.Snapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, snap, "nothing is stored before commit")

	require.NoError(t, m.Commit(context.Background(), key, d))
	snap, err = m.Snapshot(context.Background(), key)
	require.NoError(t, err)
	recent, ok := snap.MostRecent()
	require.True(t, ok)
	assert.Equal(t, "ID-42", recent.ID)
}

func TestCommitSkipsCancelledAndEmptyTurns(t *testing.T) {
	st := newMapStore()
	m := NewManager(st, nil)

	d, _ := m.Begin(context.Background(), "k")
	require.NoError(t, m.Commit(context.Background(), "k", d))
	assert.Zero(t, st.updates)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Remember(store.SeenTitle{ID: "ID-1"})
	assert.ErrorIs(t, m.Commit(ctx, "k", d), context.Canceled)
	assert.Zero(t, st.updates)
}

func TestConcurrentTurnsDoNotLoseUpdates(t *testing.T) {
	st := newMapStore()
	m := NewManager(st, nil)
	key := LibraryKey("shared")

	d1, _ := m.Begin(context.Background(), key)
	d2, _ := m.Begin(context.Background(), key)
	d1.Remember(store.SeenTitle{ID: "ID-1", Title: "A"})
	d2.Remember(store.SeenTitle{ID: "ID-2", Title: "B"})

	var wg sync.WaitGroup
	for _, d := range []*store.Draft{d1, d2} {
		wg.Add(1)
		go func(d *store.Draft) {
			defer wg.Done()
			assert.NoError(t, m.Commit(context.Background(), key, d))
		}(d)
	}
	wg.Wait()

	snap, _ := m.Snapshot(context.Background(), key)
	assert.Len(t, snap.Seen, 2)
}

func TestBeginClassifiesStoreFailure(t *testing.T) {
	st := newMapStore()
	st.loadErr = errors.New("redis down")
	m := NewManager(st, nil)

	_, err := m.Begin(context.Background(), "k")
	assert.ErrorIs(t, err, rag.ErrUpstreamUnavailable)
}

func TestReset(t *testing.T) {
	st := newMapStore()
	m := NewManager(st, nil)
	d, _ := m.Begin(context.Background(), "k")
	d.AppendTurn(store.Turn{Role: store.RoleHuman, Content: "hi"})
	require.NoError(t, m.Commit(context.Background(), "k", d))

	require.NoError(t, m.Reset(context.Background(), "k"))
	snap, _ := m.Snapshot(context.Background(), "k")
	assert.Nil(t, snap)
}
