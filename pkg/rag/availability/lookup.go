// Package availability answers "how many copies can be borrowed right now"
// for one exact catalog identifier.
package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/store"
	"library-assistant-be/pkg/utils"

	"go.uber.org/zap"
)

// CopyCounter reads copy counts from the relational store. A nil status with
// a nil error means the identifier is not in the catalog.
type CopyCounter interface {
	CountCopies(ctx context.Context, id string) (*store.AvailabilityStatus, error)
}

type Lookup struct {
	counter CopyCounter
	timeout time.Duration
	logger  *zap.Logger
}

func NewLookup(counter CopyCounter, timeout time.Duration, logger *zap.Logger) *Lookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lookup{counter: counter, timeout: timeout, logger: logger.Named("availability")}
}

// Check returns the snapshot for id. Not in catalog is rag.ErrNotFound, which
// is distinct from a status with zero available copies. No fuzzy matching.
func (l *Lookup) Check(ctx context.Context, id string) (*store.AvailabilityStatus, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, rag.ErrMissingIdentifier
	}

	status, err := utils.RetryOnce(ctx, rag.IsRetryable, func(ctx context.Context) (*store.AvailabilityStatus, error) {
		cctx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()
		st, err := l.counter.CountCopies(cctx, id)
		return st, rag.Upstream("count copies", err)
	})
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, fmt.Errorf("catalog id %s: %w", id, rag.ErrNotFound)
	}

	snapshot := *status
	if snapshot.ID == "" {
		snapshot.ID = id
	}
	if snapshot.Total < 0 {
		snapshot.Total = 0
	}
	if snapshot.Available < 0 {
		snapshot.Available = 0
	}
	if snapshot.Available > snapshot.Total {
		l.logger.Warn("available copies exceed total", zap.String("id", id),
			zap.Int("available", snapshot.Available), zap.Int("total", snapshot.Total))
		snapshot.Available = snapshot.Total
	}
	return &snapshot, nil
}
