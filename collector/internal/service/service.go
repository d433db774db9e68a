// Package service is the collector's core: it admits events arriving over
// capture bridges into the tab store, resolves effective settings through
// the coordinator, and keeps snapshots and the archive sink fed.
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sizzlebits/layerlens/collector/internal/archive"
	"github.com/sizzlebits/layerlens/collector/internal/metrics"
	"github.com/sizzlebits/layerlens/collector/internal/store"
	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/messaging"
	"github.com/sizzlebits/layerlens/common/models"
	"github.com/sizzlebits/layerlens/common/router"
	"github.com/sizzlebits/layerlens/common/settings"
)

// settingsRequestTimeout bounds the coordinator round trip. A coordinator
// that never answers degrades to defaults rather than blocking ingestion.
const settingsRequestTimeout = 3 * time.Second

// Service owns the collector's runtime state.
type Service struct {
	store   *store.Store
	snap    *store.Snapshotter // nil when persistence is disabled
	indexer *archive.Indexer   // nil when the archive sink is disabled
	bus     messaging.Publisher
	log     *logging.Logger

	mu              sync.Mutex
	tabHosts        map[int]string
	lastInteraction map[int]time.Time
	settingsCache   map[string]settings.Settings
}

func New(st *store.Store, snap *store.Snapshotter, indexer *archive.Indexer, bus messaging.Publisher, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Default()
	}
	return &Service{
		store:           st,
		snap:            snap,
		indexer:         indexer,
		bus:             bus,
		log:             log,
		tabHosts:        make(map[int]string),
		lastInteraction: make(map[int]time.Time),
		settingsCache:   make(map[string]settings.Settings),
	}
}

// Store exposes the tab store for read paths.
func (s *Service) Store() *store.Store {
	return s.store
}

// RegisterTab records which host a tab's bridge is capturing.
func (s *Service) RegisterTab(tabID int, host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabHosts[tabID] = host
}

// UnregisterTab forgets the tab's bridge bookkeeping. The event buffer is
// kept; a bridge disconnect is a page unload, not a tab close.
func (s *Service) UnregisterTab(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabHosts, tabID)
	delete(s.lastInteraction, tabID)
}

// TabHost returns the host a tab's bridge reported, if attached.
func (s *Service) TabHost(tabID int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	host, ok := s.tabHosts[tabID]
	return host, ok
}

// Ingest admits one captured event for a tab. Snapshot and archive
// failures are contained; the rolling buffer always gets the event.
func (s *Service) Ingest(ctx context.Context, tabID int, host string, evt models.CapturedEvent) {
	eff := s.EffectiveSettings(ctx, host)

	s.store.AddEvent(tabID, evt)
	metrics.EventsCaptured.WithLabelValues(evt.Source).Inc()
	s.updateStoreMetrics()

	if eff.PersistEvents && s.snap != nil {
		if err := s.snap.Save(ctx, tabID, s.store.Events(tabID)); err != nil {
			s.log.Warn("event snapshot failed", logging.TabID(tabID), logging.Error(err))
		}
	}

	if s.indexer != nil {
		if err := s.indexer.IndexEvents(ctx, tabID, host, []models.CapturedEvent{evt}); err != nil {
			metrics.ArchiveErrors.Inc()
			s.log.Warn("archive index failed", logging.TabID(tabID), logging.Error(err))
		} else {
			metrics.ArchivedEvents.Inc()
		}
	}
}

// Events returns a tab's buffer, newest first.
func (s *Service) Events(tabID int) []models.CapturedEvent {
	return s.store.Events(tabID)
}

// Clear empties a tab's buffer and removes its snapshot.
func (s *Service) Clear(ctx context.Context, tabID int) {
	s.store.ClearEvents(tabID)
	s.updateStoreMetrics()
	if s.snap != nil {
		if err := s.snap.Delete(ctx, tabID); err != nil {
			s.log.Warn("snapshot delete failed", logging.TabID(tabID), logging.Error(err))
		}
	}
}

// EffectiveSettings resolves the effective settings for a domain via the
// coordinator, caching per domain until InvalidateSettings. Any resolution
// failure falls back to defaults; a missing coordinator never breaks
// capture.
func (s *Service) EffectiveSettings(ctx context.Context, domain string) settings.Settings {
	s.mu.Lock()
	if cached, ok := s.settingsCache[domain]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	resolved := s.fetchSettings(ctx, domain)

	s.mu.Lock()
	s.settingsCache[domain] = resolved
	s.mu.Unlock()
	return resolved
}

func (s *Service) fetchSettings(ctx context.Context, domain string) settings.Settings {
	if s.bus == nil {
		return settings.Defaults()
	}

	env := &router.Envelope{Type: router.TypeGetSettings, Domain: domain}
	data, err := env.Encode()
	if err != nil {
		return settings.Defaults()
	}

	msg, err := s.bus.Request(ctx, messaging.SubjectSettingsGet, data, settingsRequestTimeout)
	if err != nil {
		s.log.Debug("settings request failed, using defaults", logging.Domain(domain), logging.Error(err))
		return settings.Defaults()
	}

	var resp settings.GetResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil || resp.Settings.MaxEvents <= 0 {
		// A failure Ack or malformed body decodes to a zero Settings.
		s.log.Debug("unusable settings reply, using defaults", logging.Domain(domain))
		return settings.Defaults()
	}
	return resp.Settings
}

// InvalidateSettings drops the cache so the next resolution re-reads from
// the coordinator. Called on the settings-changed broadcast.
func (s *Service) InvalidateSettings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingsCache = make(map[string]settings.Settings)
}

// ApplySettingsChange re-resolves the global settings and truncates the
// store to the current event bound.
func (s *Service) ApplySettingsChange(ctx context.Context) settings.Settings {
	s.InvalidateSettings()
	eff := s.EffectiveSettings(ctx, "")
	s.store.SetMaxEvents(eff.MaxEvents)
	s.updateStoreMetrics()
	return eff
}

// CaptureConfigFor builds the capture-side view of a host's effective
// settings, pushed down the bridge on init and on settings changes.
func (s *Service) CaptureConfigFor(ctx context.Context, host string) models.CaptureConfig {
	eff := s.EffectiveSettings(ctx, host)
	return models.CaptureConfig{
		QueueNames:     eff.QueueNames,
		ConsoleLogging: eff.ConsoleLogging,
		DebugLogging:   eff.DebugLogging,
	}
}

// TouchInteraction records user activity on a tab's consumer surface.
func (s *Service) TouchInteraction(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastInteraction[tabID] = time.Now()
}

// LastInteraction returns the most recent recorded interaction for a tab,
// zero when none happened.
func (s *Service) LastInteraction(tabID int) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInteraction[tabID]
}

// RestoreSnapshots rehydrates persisted buffers after a restart.
func (s *Service) RestoreSnapshots(ctx context.Context) {
	if s.snap == nil {
		return
	}
	restored, err := s.snap.Restore(ctx, s.store)
	if err != nil {
		s.log.Warn("snapshot restore incomplete", logging.Error(err))
	}
	if restored > 0 {
		s.log.Info("restored persisted events", "count", restored)
	}
	s.updateStoreMetrics()
}

func (s *Service) updateStoreMetrics() {
	tabs := s.store.Tabs()
	total := 0
	for _, id := range tabs {
		total += s.store.Len(id)
	}
	metrics.ActiveTabs.Set(float64(len(tabs)))
	metrics.StoredEvents.Set(float64(total))
}
