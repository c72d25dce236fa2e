// Package session loads and commits per-session conversational memory.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/store"

	"go.uber.org/zap"
)

// Store persists sessions. Update must apply fn atomically against the
// latest stored value, creating the session when it does not exist.
type Store interface {
	Load(ctx context.Context, key string) (*store.Session, error)
	Update(ctx context.Context, key string, fn func(s *store.Session)) error
	Delete(ctx context.Context, key string) error
}

func LibraryKey(key string) string {
	return "library:" + strings.TrimSpace(key)
}

// PDFKey scopes PDF chat memory to one document.
func PDFKey(key, documentID string) string {
	return fmt.Sprintf("pdf:%s:%s", strings.TrimSpace(key), documentID)
}

type Manager struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(s Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: s, logger: logger.Named("session"), now: time.Now}
}

// Begin returns a draft over the current session. Nothing is written until
// Commit.
func (m *Manager) Begin(ctx context.Context, key string) (*store.Draft, error) {
	s, err := m.store.Load(ctx, key)
	if err != nil {
		return nil, rag.Upstream("session load", err)
	}
	if s == nil {
		s = store.NewSession(key)
	}
	return store.NewDraft(s), nil
}

// Commit writes the draft at the end of a turn. A cancelled turn commits
// nothing.
func (m *Manager) Commit(ctx context.Context, key string, draft *store.Draft) error {
	if err := ctx.Err(); err != nil {
		m.logger.Debug("turn cancelled, session not committed", zap.String("key", key))
		return err
	}
	if draft == nil || draft.Empty() {
		return nil
	}

	now := m.now()
	if err := m.store.Update(ctx, key, func(s *store.Session) {
		draft.Apply(s, now)
	}); err != nil {
		return fmt.Errorf("commit session %s: %w", key, err)
	}
	return nil
}

// Snapshot returns a copy of the stored session, or nil.
func (m *Manager) Snapshot(ctx context.Context, key string) (*store.Session, error) {
	s, err := m.store.Load(ctx, key)
	if err != nil {
		return nil, rag.Upstream("session load", err)
	}
	return s.Clone(), nil
}

func (m *Manager) Reset(ctx context.Context, key string) error {
	return m.store.Delete(ctx, key)
}
