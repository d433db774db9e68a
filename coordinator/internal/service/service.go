// Package service implements the coordinator's settings authority: resolve
// effective settings for a scope, fold updates into the persisted records,
// export and import the full state, and broadcast changes to every
// listening context.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/messaging"
	"github.com/sizzlebits/layerlens/common/settings"
	"github.com/sizzlebits/layerlens/coordinator/internal/repository"
)

type Service struct {
	repo repository.Repository
	bus  messaging.Publisher
	log  *logging.Logger
}

// New builds the service. bus may be nil; change broadcasts are then
// skipped.
func New(repo repository.Repository, bus messaging.Publisher, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Default()
	}
	return &Service{repo: repo, bus: bus, log: log}
}

// GetEffective resolves the settings a consumer on the given domain should
// run with: defaults, then the global record, then the domain override.
// An empty domain resolves the global scope.
func (s *Service) GetEffective(ctx context.Context, domain string) (settings.Settings, error) {
	global, err := s.repo.Global(ctx)
	if err != nil {
		return settings.Settings{}, err
	}

	var domainOverride *settings.Override
	if domain != "" {
		domainOverride, err = s.repo.Domain(ctx, domain)
		if err != nil && err != repository.ErrDomainNotFound {
			return settings.Settings{}, err
		}
	}

	return settings.Merge(settings.Defaults(), global, domainOverride), nil
}

// Update folds a partial record into the persisted state. With saveGlobal
// set, or with no domain targeted, the patch lands on the global record;
// otherwise on the domain's override. Every successful update is broadcast.
func (s *Service) Update(ctx context.Context, domain string, patch settings.Override, saveGlobal bool) (settings.Settings, error) {
	if err := patch.Validate(); err != nil {
		return settings.Settings{}, err
	}

	if saveGlobal || domain == "" {
		current, err := s.repo.Global(ctx)
		if err != nil {
			return settings.Settings{}, err
		}
		var base settings.Override
		if current != nil {
			base = *current
		}
		if err := s.repo.SaveGlobal(ctx, settings.Patch(base, patch)); err != nil {
			return settings.Settings{}, err
		}
	} else {
		current, err := s.repo.Domain(ctx, domain)
		if err != nil && err != repository.ErrDomainNotFound {
			return settings.Settings{}, err
		}
		var base settings.Override
		if current != nil {
			base = *current
		}
		if err := s.repo.SaveDomain(ctx, domain, settings.Patch(base, patch)); err != nil {
			return settings.Settings{}, err
		}
	}

	s.log.InfoContext(ctx, "settings updated",
		logging.Domain(domain), "save_global", saveGlobal)
	s.broadcastChanged(ctx)
	return s.GetEffective(ctx, domain)
}

// ListDomains returns every stored per-domain override.
func (s *Service) ListDomains(ctx context.Context) (map[string]settings.Override, error) {
	return s.repo.Domains(ctx)
}

// DeleteDomain removes a domain's override. The domain falls back to the
// global record from the next resolution on.
func (s *Service) DeleteDomain(ctx context.Context, domain string) error {
	if domain == "" {
		return fmt.Errorf("domain required")
	}
	if err := s.repo.DeleteDomain(ctx, domain); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "domain settings deleted", logging.Domain(domain))
	s.broadcastChanged(ctx)
	return nil
}

// Export packages the full persisted state for transfer between
// installations.
func (s *Service) Export(ctx context.Context) (*settings.Bundle, error) {
	global, err := s.repo.Global(ctx)
	if err != nil {
		return nil, err
	}
	domains, err := s.repo.Domains(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &settings.Bundle{Domains: domains}
	if global != nil {
		bundle.Global = *global
	}
	return bundle, nil
}

// Import validates a bundle and replaces the entire persisted state with
// it. A bundle that fails to parse or validate changes nothing.
func (s *Service) Import(ctx context.Context, data []byte) error {
	bundle, err := settings.ParseBundle(data)
	if err != nil {
		return err
	}
	if err := s.repo.ReplaceAll(ctx, bundle.Global, bundle.Domains); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "settings imported", "domains", len(bundle.Domains))
	s.broadcastChanged(ctx)
	return nil
}

// broadcastChanged notifies every context that persisted settings moved.
// Fire-and-forget: a listener that is gone re-reads on its next startup.
func (s *Service) broadcastChanged(ctx context.Context) {
	if s.bus == nil {
		return
	}
	data, _ := json.Marshal(map[string]bool{"changed": true})
	if err := s.bus.Publish(ctx, messaging.SubjectSettingsChanged, data); err != nil {
		s.log.WarnContext(ctx, "settings change broadcast failed", logging.Error(err))
	}
}
