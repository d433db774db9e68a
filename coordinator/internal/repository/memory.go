package repository

import (
	"context"
	"sync"

	"github.com/sizzlebits/layerlens/common/settings"
)

// MemoryRepository keeps everything in process. It backs tests and the
// zero-dependency development mode.
type MemoryRepository struct {
	mu      sync.RWMutex
	global  *settings.Override
	domains map[string]settings.Override
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{domains: make(map[string]settings.Override)}
}

func (r *MemoryRepository) Global(ctx context.Context) (*settings.Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.global == nil {
		return nil, nil
	}
	o := *r.global
	return &o, nil
}

func (r *MemoryRepository) SaveGlobal(ctx context.Context, o settings.Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = &o
	return nil
}

func (r *MemoryRepository) Domain(ctx context.Context, domain string) (*settings.Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.domains[domain]
	if !ok {
		return nil, ErrDomainNotFound
	}
	return &o, nil
}

func (r *MemoryRepository) SaveDomain(ctx context.Context, domain string, o settings.Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains[domain] = o
	return nil
}

func (r *MemoryRepository) DeleteDomain(ctx context.Context, domain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.domains[domain]; !ok {
		return ErrDomainNotFound
	}
	delete(r.domains, domain)
	return nil
}

func (r *MemoryRepository) Domains(ctx context.Context) (map[string]settings.Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]settings.Override, len(r.domains))
	for k, v := range r.domains {
		out[k] = v
	}
	return out, nil
}

func (r *MemoryRepository) ReplaceAll(ctx context.Context, global settings.Override, domains map[string]settings.Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = &global
	r.domains = make(map[string]settings.Override, len(domains))
	for k, v := range domains {
		r.domains[k] = v
	}
	return nil
}

func (r *MemoryRepository) Close() {}
