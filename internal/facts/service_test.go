package facts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateo/storefront-builder/internal/cache"
	"github.com/mateo/storefront-builder/internal/db"
	"github.com/mateo/storefront-builder/internal/onboarding"
)

type fakeStore struct {
	tenants map[uuid.UUID]*db.Tenant
}

func newFakeStore(tenants ...*db.Tenant) *fakeStore {
	s := &fakeStore{tenants: make(map[uuid.UUID]*db.Tenant)}
	for _, t := range tenants {
		s.tenants[t.ID] = t
	}
	return s
}

func (s *fakeStore) GetTenant(_ context.Context, tenantID uuid.UUID) (*db.Tenant, error) {
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	copied := *t
	copied.DiscoveryFacts = make(map[string]string, len(t.DiscoveryFacts))
	for k, v := range t.DiscoveryFacts {
		copied.DiscoveryFacts[k] = v
	}
	return &copied, nil
}

func (s *fakeStore) MergeDiscoveryFacts(_ context.Context, tenantID uuid.UUID, facts map[string]string) (map[string]string, error) {
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	if t.DiscoveryFacts == nil {
		t.DiscoveryFacts = make(map[string]string)
	}
	for k, v := range facts {
		t.DiscoveryFacts[k] = v
	}
	merged := make(map[string]string, len(t.DiscoveryFacts))
	for k, v := range t.DiscoveryFacts {
		merged[k] = v
	}
	return merged, nil
}

func (s *fakeStore) SetOnboardingPhase(_ context.Context, tenantID uuid.UUID, phase string) error {
	s.tenants[tenantID].OnboardingPhase = phase
	return nil
}

type recordingNotifier struct {
	research chan uuid.UUID
	builds   chan uuid.UUID
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		research: make(chan uuid.UUID, 8),
		builds:   make(chan uuid.UUID, 8),
	}
}

func (n *recordingNotifier) ResearchRequested(_ context.Context, tenantID uuid.UUID) {
	n.research <- tenantID
}

func (n *recordingNotifier) BuildCompleted(_ context.Context, tenantID uuid.UUID) {
	n.builds <- tenantID
}

func newTenant(facts map[string]string) *db.Tenant {
	if facts == nil {
		facts = map[string]string{}
	}
	return &db.Tenant{
		ID:               uuid.New(),
		Name:             "Luz Weddings",
		OnboardingPhase:  string(onboarding.PhaseNotStarted),
		OnboardingStatus: "intake",
		DiscoveryFacts:   facts,
	}
}

func newTestService(store Store, notifier *recordingNotifier) *Service {
	return NewService(store, notifier, cache.New(16, time.Minute))
}

func TestStoreFact_TenantNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), newRecordingNotifier())

	_, err := svc.StoreFact(context.Background(), uuid.New(), "businessType", "photographer")
	var notFound *TenantNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStoreFact_AdvancesPhaseMonotonically(t *testing.T) {
	tenant := newTenant(nil)
	store := newFakeStore(tenant)
	svc := newTestService(store, newRecordingNotifier())

	res, err := svc.StoreFact(context.Background(), tenant.ID, "businessType", "photographer")
	require.NoError(t, err)
	assert.Equal(t, onboarding.PhaseDiscovery, res.Phase)
	assert.True(t, res.PhaseAdvanced)
	assert.Equal(t, string(onboarding.PhaseDiscovery), store.tenants[tenant.ID].OnboardingPhase)
}

func TestStoreFact_NeverLowersStoredPhase(t *testing.T) {
	tenant := newTenant(map[string]string{"uniqueValue": "candid storytelling"})
	tenant.OnboardingPhase = string(onboarding.PhaseMarketing)
	store := newFakeStore(tenant)
	svc := newTestService(store, newRecordingNotifier())

	// A low-value fact computes a candidate phase below MARKETING.
	res, err := svc.StoreFact(context.Background(), tenant.ID, "businessName", "Luz Weddings")
	require.NoError(t, err)
	assert.False(t, res.PhaseAdvanced)
	assert.Equal(t, string(onboarding.PhaseMarketing), store.tenants[tenant.ID].OnboardingPhase)
}

func TestStoreFact_TriggersResearchOnce(t *testing.T) {
	tenant := newTenant(map[string]string{"businessType": "photographer"})
	store := newFakeStore(tenant)
	notifier := newRecordingNotifier()
	svc := newTestService(store, notifier)

	res, err := svc.StoreFact(context.Background(), tenant.ID, "location", "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, onboarding.ActionTriggerResearch, res.NextAction)

	select {
	case id := <-notifier.research:
		assert.Equal(t, tenant.ID, id)
	case <-time.After(time.Second):
		t.Fatal("research notification was never sent")
	}
	assert.Equal(t, "true", store.tenants[tenant.ID].DiscoveryFacts[onboarding.MetaResearchTriggered])

	// Storing another fact must not re-trigger research.
	res, err = svc.StoreFact(context.Background(), tenant.ID, "businessName", "Luz Weddings")
	require.NoError(t, err)
	assert.NotEqual(t, onboarding.ActionTriggerResearch, res.NextAction)
	select {
	case <-notifier.research:
		t.Fatal("research must only be triggered once per tenant")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStoreFact_ResultFields(t *testing.T) {
	tenant := newTenant(map[string]string{
		"businessType":                   "photographer",
		onboarding.MetaResearchTriggered: "true",
	})
	store := newFakeStore(tenant)
	svc := newTestService(store, newRecordingNotifier())

	res, err := svc.StoreFact(context.Background(), tenant.ID, "location", "Lisbon")
	require.NoError(t, err)

	assert.ElementsMatch(t, []onboarding.FactKey{onboarding.FactBusinessType, onboarding.FactLocation}, res.FactKeys)
	assert.Equal(t, 2, res.SlotMetrics.Filled)
	assert.Equal(t, 13, res.SlotMetrics.Utilization)
	assert.Len(t, res.MissingForNext, 3)
	assert.NotContains(t, res.MissingForNext, onboarding.FactBusinessType)
}

func TestGetDiscoveryFacts_StripsMetadata(t *testing.T) {
	tenant := newTenant(map[string]string{
		"businessType":                   "photographer",
		"businessType2":                  "ignored but stored",
		onboarding.MetaResearchTriggered: "true",
	})
	svc := newTestService(newFakeStore(tenant), newRecordingNotifier())

	facts, count, err := svc.GetDiscoveryFacts(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.NotContains(t, facts, onboarding.MetaResearchTriggered)
	assert.Contains(t, facts, "businessType")
	assert.Equal(t, 1, count, "count covers canonical facts only")
}

func TestGetSummary_CachesUntilInvalidated(t *testing.T) {
	tenant := newTenant(map[string]string{"businessType": "photographer"})
	store := newFakeStore(tenant)
	svc := newTestService(store, newRecordingNotifier())

	first, err := svc.GetSummary(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FactCount)

	// Mutate behind the cache's back: the stale view is served...
	store.tenants[tenant.ID].DiscoveryFacts["location"] = "Lisbon"
	cached, err := svc.GetSummary(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.FactCount)

	// ...until a mutation through the service invalidates it.
	_, err = svc.StoreFact(context.Background(), tenant.ID, "priceRange", "from 900")
	require.NoError(t, err)
	fresh, err := svc.GetSummary(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.FactCount)
}
