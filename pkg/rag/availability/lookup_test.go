package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	rows  map[string]store.AvailabilityStatus
	errs  []error
	calls int
}

func (f *fakeCounter) CountCopies(ctx context.Context, id string) (*store.AvailabilityStatus, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func newCounter() *fakeCounter {
	return &fakeCounter{rows: map[string]store.AvailabilityStatus{
		"ID-42": {ID: "ID-42", Title: "1984", Total: 5, Available: 3},
		"ID-7":  {ID: "ID-7", Title: "Nhà Giả Kim", Total: 2, Available: 0},
		"ID-8":  {Title: "Broken", Total: 1, Available: 4},
	}}
}

func TestCheck(t *testing.T) {
	l := NewLookup(newCounter(), time.Second, nil)

	t.Run("available copies", func(t *testing.T) {
		st, err := l.Check(context.Background(), "ID-42")
		require.NoError(t, err)
		assert.Equal(t, 3, st.Available)
		assert.Equal(t, 5, st.Total)
		assert.Equal(t, 2, st.OnLoan())
	})

	t.Run("fully on loan is not NotFound", func(t *testing.T) {
		st, err := l.Check(context.Background(), "ID-7")
		require.NoError(t, err)
		assert.Equal(t, 0, st.Available)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := l.Check(context.Background(), "ID-404")
		assert.ErrorIs(t, err, rag.ErrNotFound)
	})

	t.Run("empty identifier never reaches the store", func(t *testing.T) {
		c := newCounter()
		_, err := NewLookup(c, time.Second, nil).Check(context.Background(), "  ")
		assert.ErrorIs(t, err, rag.ErrMissingIdentifier)
		assert.Zero(t, c.calls)
	})

	t.Run("inconsistent counts are clamped", func(t *testing.T) {
		st, err := l.Check(context.Background(), "ID-8")
		require.NoError(t, err)
		assert.Equal(t, "ID-8", st.ID)
		assert.Equal(t, 1, st.Available)
	})
}

func TestCheckIsIdempotent(t *testing.T) {
	l := NewLookup(newCounter(), time.Second, nil)

	first, err := l.Check(context.Background(), "ID-42")
	require.NoError(t, err)
	second, err := l.Check(context.Background(), "ID-42")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCheckRetriesOnceOnUpstreamFailure(t *testing.T) {
	c := newCounter()
	c.errs = []error{errors.New("connection reset")}

	st, err := NewLookup(c, time.Second, nil).Check(context.Background(), "ID-42")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Available)
	assert.Equal(t, 2, c.calls)
}

func TestCheckSurfacesPersistentFailure(t *testing.T) {
	c := newCounter()
	c.errs = []error{errors.New("down"), errors.New("down")}

	_, err := NewLookup(c, time.Second, nil).Check(context.Background(), "ID-42")
	assert.ErrorIs(t, err, rag.ErrUpstreamUnavailable)
	assert.Equal(t, 2, c.calls)
}
