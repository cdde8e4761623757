// Package store provides claim.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/meridian/claims-engine/claim"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	claims map[string]*claim.Claim
}

func NewMemory() *Memory {
	return &Memory{claims: make(map[string]*claim.Claim)}
}

func (m *Memory) Create(_ context.Context, c *claim.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.claims[c.ID] = &cp
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*claim.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, claim.ErrClaimNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) List(_ context.Context, page, limit int) ([]*claim.Claim, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*claim.Claim, 0, len(m.claims))
	for _, c := range m.claims {
		cp := *c
		all = append(all, &cp)
	}
	// Most recently created first.
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * limit
	if start >= total {
		return []*claim.Claim{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *Memory) Update(_ context.Context, id string, upd claim.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return claim.ErrClaimNotFound
	}
	upd.Apply(c)
	return nil
}
