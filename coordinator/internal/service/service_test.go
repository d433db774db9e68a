package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/common/messaging"
	"github.com/sizzlebits/layerlens/common/messaging/memory"
	"github.com/sizzlebits/layerlens/common/settings"
	"github.com/sizzlebits/layerlens/coordinator/internal/repository"
)

func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) (*Service, *memory.Bus, <-chan struct{}) {
	t.Helper()

	bus := memory.NewBus()
	t.Cleanup(func() { bus.Close() })

	changed := make(chan struct{}, 16)
	_, err := bus.Subscribe(messaging.SubjectSettingsChanged,
		func(ctx context.Context, msg *messaging.Message) error {
			changed <- struct{}{}
			return nil
		})
	require.NoError(t, err)

	return New(repository.NewMemoryRepository(), bus, nil), bus, changed
}

func expectBroadcast(t *testing.T, changed <-chan struct{}) {
	t.Helper()
	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("expected a settings change broadcast")
	}
}

func TestGetEffective_DefaultsWhenEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	eff, err := svc.GetEffective(t.Context(), "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), eff)
}

func TestUpdate_GlobalScope(t *testing.T) {
	svc, _, changed := newTestService(t)
	ctx := t.Context()

	eff, err := svc.Update(ctx, "", settings.Override{MaxEvents: intPtr(250)}, false)
	require.NoError(t, err)
	assert.Equal(t, 250, eff.MaxEvents)
	expectBroadcast(t, changed)

	// Every domain sees the global record.
	eff, err = svc.GetEffective(ctx, "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, eff.MaxEvents)
}

func TestUpdate_DomainScopeShadowsGlobal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := t.Context()

	_, err := svc.Update(ctx, "", settings.Override{MaxEvents: intPtr(250)}, false)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "shop.example.com", settings.Override{MaxEvents: intPtr(50)}, false)
	require.NoError(t, err)

	eff, err := svc.GetEffective(ctx, "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, 50, eff.MaxEvents)

	// Other domains keep the global value.
	eff, err = svc.GetEffective(ctx, "other.example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, eff.MaxEvents)
}

func TestUpdate_SaveGlobalTargetsGlobalRecord(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := t.Context()

	_, err := svc.Update(ctx, "shop.example.com", settings.Override{MaxEvents: intPtr(999)}, true)
	require.NoError(t, err)

	eff, err := svc.GetEffective(ctx, "other.example.com")
	require.NoError(t, err)
	assert.Equal(t, 999, eff.MaxEvents)

	domains, err := svc.ListDomains(ctx)
	require.NoError(t, err)
	assert.Empty(t, domains, "save_global must not create a domain override")
}

func TestUpdate_PatchesPreserveUnsetFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := t.Context()

	_, err := svc.Update(ctx, "shop.example.com",
		settings.Override{MaxEvents: intPtr(50)}, false)
	require.NoError(t, err)
	_, err = svc.Update(ctx, "shop.example.com",
		settings.Override{FilterMode: strPtr(settings.FilterModeInclude)}, false)
	require.NoError(t, err)

	eff, err := svc.GetEffective(ctx, "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, 50, eff.MaxEvents, "second patch must not clobber the first")
	assert.Equal(t, settings.FilterModeInclude, eff.FilterMode)
}

func TestUpdate_GroupingMergedOneLevelDeep(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := t.Context()

	enabled := true
	_, err := svc.Update(ctx, "shop.example.com", settings.Override{
		Grouping: &settings.GroupingOverride{Enabled: &enabled},
	}, false)
	require.NoError(t, err)

	window := int64(750)
	_, err = svc.Update(ctx, "shop.example.com", settings.Override{
		Grouping: &settings.GroupingOverride{TimeWindowMs: &window},
	}, false)
	require.NoError(t, err)

	eff, err := svc.GetEffective(ctx, "shop.example.com")
	require.NoError(t, err)
	assert.True(t, eff.Grouping.Enabled)
	assert.Equal(t, int64(750), eff.Grouping.TimeWindowMs)
}

func TestUpdate_RejectsInvalidPatch(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(t.Context(), "", settings.Override{MaxEvents: intPtr(-1)}, false)
	assert.Error(t, err)

	eff, err := svc.GetEffective(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults().MaxEvents, eff.MaxEvents)
}

func TestDeleteDomain_FallsBackToGlobal(t *testing.T) {
	svc, _, changed := newTestService(t)
	ctx := t.Context()

	_, err := svc.Update(ctx, "", settings.Override{MaxEvents: intPtr(250)}, false)
	require.NoError(t, err)
	_, err = svc.Update(ctx, "shop.example.com", settings.Override{MaxEvents: intPtr(50)}, false)
	require.NoError(t, err)
	drainBroadcasts(changed)

	require.NoError(t, svc.DeleteDomain(ctx, "shop.example.com"))
	expectBroadcast(t, changed)

	eff, err := svc.GetEffective(ctx, "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, eff.MaxEvents)

	assert.ErrorIs(t, svc.DeleteDomain(ctx, "shop.example.com"), repository.ErrDomainNotFound)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src, _, _ := newTestService(t)
	dst, _, changed := newTestService(t)
	ctx := t.Context()

	_, err := src.Update(ctx, "", settings.Override{MaxEvents: intPtr(300)}, false)
	require.NoError(t, err)
	_, err = src.Update(ctx, "shop.example.com", settings.Override{PersistEvents: boolPtr(true)}, false)
	require.NoError(t, err)

	bundle, err := src.Export(ctx)
	require.NoError(t, err)
	data, err := json.Marshal(bundle)
	require.NoError(t, err)

	require.NoError(t, dst.Import(ctx, data))
	expectBroadcast(t, changed)

	eff, err := dst.GetEffective(ctx, "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, 300, eff.MaxEvents)
	assert.True(t, eff.PersistEvents)
}

func TestImport_InvalidBundleChangesNothing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := t.Context()

	_, err := svc.Update(ctx, "", settings.Override{MaxEvents: intPtr(300)}, false)
	require.NoError(t, err)

	// Unknown field: a foreign export must fail loudly.
	require.Error(t, svc.Import(ctx, []byte(`{"global":{},"domains":{},"extra":1}`)))
	// Invalid value inside an otherwise well-formed bundle.
	require.Error(t, svc.Import(ctx, []byte(`{"global":{"max_events":-5},"domains":{}}`)))

	eff, err := svc.GetEffective(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 300, eff.MaxEvents)
}

func drainBroadcasts(changed <-chan struct{}) {
	for {
		select {
		case <-changed:
		default:
			return
		}
	}
}
