package repositoryimpl

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kazz187/pushrelay/internal/pushsubscription"
)

var _ pushsubscription.Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps a single subscription in process memory. A new
// registration replaces the previous one and nothing survives a restart.
type MemoryRepository struct {
	mu  sync.RWMutex
	sub *pushsubscription.Subscription
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Register(ctx context.Context, s *pushsubscription.Subscription) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c := s.Clone()

	r.mu.Lock()
	prev := r.sub
	r.sub = c
	r.mu.Unlock()

	if prev != nil && prev.Endpoint != c.Endpoint {
		slog.InfoContext(ctx, "push subscription: replaced previous subscriber", "previous_endpoint", prev.Endpoint, "endpoint", c.Endpoint)
	}
	return nil
}

func (r *MemoryRepository) Current(_ context.Context) (*pushsubscription.Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.sub == nil {
		return nil, false
	}
	return r.sub.Clone(), true
}
