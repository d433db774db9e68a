// Package repository persists the coordinator's settings state: one global
// partial record plus per-domain overrides. Three backends share the
// interface; memory for tests and single-process runs, Redis for small
// deployments, PostgreSQL when durability matters.
package repository

import (
	"context"
	"errors"

	"github.com/sizzlebits/layerlens/common/settings"
)

var (
	// ErrDomainNotFound is returned when no override exists for a domain.
	ErrDomainNotFound = errors.New("domain settings not found")
)

type Repository interface {
	// Global returns the stored global override, or nil when none has
	// been saved yet.
	Global(ctx context.Context) (*settings.Override, error)
	SaveGlobal(ctx context.Context, o settings.Override) error

	// Domain returns the override for one domain. ErrDomainNotFound when
	// absent.
	Domain(ctx context.Context, domain string) (*settings.Override, error)
	SaveDomain(ctx context.Context, domain string, o settings.Override) error
	DeleteDomain(ctx context.Context, domain string) error

	// Domains returns every stored per-domain override.
	Domains(ctx context.Context) (map[string]settings.Override, error)

	// ReplaceAll swaps the entire persisted state in one step. Used by
	// settings import; on error the previous state must survive intact.
	ReplaceAll(ctx context.Context, global settings.Override, domains map[string]settings.Override) error

	Close()
}
