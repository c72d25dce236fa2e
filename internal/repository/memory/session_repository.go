package memory

import (
	"context"
	"sync"
	"time"

	"library-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps sessions in process. Sessions expire after ttl
// without a commit.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Load returns a copy so callers never alias the cached value.
func (r *SessionRepository) Load(ctx context.Context, key string) (*store.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if x, found := r.cache.Get(key); found {
		return x.(*store.Session).Clone(), nil
	}
	return nil, nil
}

func (r *SessionRepository) Update(ctx context.Context, key string, fn func(s *store.Session)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var s *store.Session
	if x, found := r.cache.Get(key); found {
		s = x.(*store.Session).Clone()
	} else {
		s = store.NewSession(key)
	}
	fn(s)
	r.cache.Set(key, s, r.ttl)
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}

// Len is the number of live sessions.
func (r *SessionRepository) Len() int {
	return r.cache.ItemCount()
}
