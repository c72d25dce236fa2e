package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"library-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingSessionIsNil(t *testing.T) {
	r := NewSessionRepository(time.Minute)

	s, err := r.Load(context.Background(), "library:nobody")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestUpdateCreatesAndLoadCopies(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRepository(time.Minute)

	require.NoError(t, r.Update(ctx, "library:a", func(s *store.Session) {
		s.Remember(store.SeenTitle{ID: "ID-42", Title: "1984"})
	}))

	s, err := r.Load(ctx, "library:a")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "library:a", s.Key)
	require.Len(t, s.Seen, 1)

	s.Seen[0].ID = "mutated"
	again, _ := r.Load(ctx, "library:a")
	assert.Equal(t, "ID-42", again.Seen[0].ID)
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRepository(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Update(ctx, "library:shared", func(s *store.Session) {
				s.Remember(store.SeenTitle{ID: fmt.Sprintf("ID-%d", i)})
			})
		}(i)
	}
	wg.Wait()

	s, err := r.Load(ctx, "library:shared")
	require.NoError(t, err)
	assert.Len(t, s.Seen, 10)
}

func TestDeleteAndCancelledContext(t *testing.T) {
	r := NewSessionRepository(time.Minute)
	ctx := context.Background()
	require.NoError(t, r.Update(ctx, "k", func(s *store.Session) {}))
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Delete(ctx, "k"))
	assert.Equal(t, 0, r.Len())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, r.Update(cancelled, "k", func(s *store.Session) {}), context.Canceled)
	assert.Equal(t, 0, r.Len())
}
