package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
)

func newControlsStore(gw *fakeGateway) *ControlsStore {
	return NewControlsStore(gw, fixedIdentity{patientID: 42, healthPlanID: 18}, zap.NewNop())
}

func TestControls_FetchFromProtocolEnvelope(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"data":{"protocol":[{"id":20,"name":"GLICEMIA CAPILAR"}]}}`
	store := newControlsStore(gw)

	require.NoError(t, store.Fetch(context.Background()))

	controls := store.Controls()
	require.Len(t, controls, 1)
	require.Contains(t, controls[0].Name, "GLICEMIA")
	require.True(t, store.Initialized())
	require.Empty(t, store.Error())
}

func TestControls_FetchFromBareArray(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `[{"id":1,"name":"Peso"},{"id":2,"name":"Presión Arterial"}]`
	store := newControlsStore(gw)

	require.NoError(t, store.Fetch(context.Background()))
	require.Len(t, store.Controls(), 2)
}

func TestControls_ServicesFallbackWhenProtocolYieldsZero(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"data":{"protocol":[]}}`
	gw.responses[homa.PatientServicesEndpoint(42)] = `{"services":[{"service_id":7,"nombre":"Control de Peso"}]}`
	store := newControlsStore(gw)

	require.NoError(t, store.Fetch(context.Background()))

	controls := store.Controls()
	require.Len(t, controls, 1)
	require.Equal(t, "Control de Peso", controls[0].Name)
	require.Equal(t, 1, gw.callCount(homa.PatientServicesEndpoint(42)))
}

func TestControls_ProtocolSourceWinsWhenNonEmpty(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[{"id":20,"name":"Glicemia"}]}`
	gw.responses[homa.PatientServicesEndpoint(42)] = `{"services":[{"id":7,"name":"Otro"}]}`
	store := newControlsStore(gw)

	require.NoError(t, store.Fetch(context.Background()))

	require.Len(t, store.Controls(), 1)
	require.Equal(t, "Glicemia", store.Controls()[0].Name)
	// Services source is never consulted when the protocol source yields.
	require.Equal(t, 0, gw.callCount(homa.PatientServicesEndpoint(42)))
}

func TestControls_MockFallbackWhenBothSourcesEmpty(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"data":{"protocol":[]}}`
	gw.responses[homa.PatientServicesEndpoint(42)] = `[]`
	store := newControlsStore(gw)

	require.NoError(t, store.Fetch(context.Background()))

	controls := store.Controls()
	require.Len(t, controls, 3)
	require.Equal(t, "Presión Arterial", controls[0].Name)
}

func TestControls_FetchFailureWithEmptyCacheSubstitutesMock(t *testing.T) {
	gw := newFakeGateway()
	gw.errs[homa.ProtocolsEndpoint(18)] = &homa.NetworkError{Endpoint: "x", Err: errors.New("down")}
	store := newControlsStore(gw)

	err := store.Fetch(context.Background())

	require.Error(t, err)
	require.NotEmpty(t, store.Error())
	require.Len(t, store.Controls(), 3)
	require.False(t, store.Initialized())
}

func TestControls_FetchFailureKeepsPreviousCache(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[{"id":20,"name":"Glicemia"}]}`
	store := newControlsStore(gw)
	require.NoError(t, store.Fetch(context.Background()))

	gw.errs[homa.ProtocolsEndpoint(18)] = &homa.HTTPError{Status: 500, Endpoint: "x", Message: "boom"}
	err := store.Fetch(context.Background())

	require.Error(t, err)
	require.NotEmpty(t, store.Error())
	// Sticky cache: the previous list survives, not the mock fallback.
	require.Len(t, store.Controls(), 1)
	require.Equal(t, "Glicemia", store.Controls()[0].Name)
}

func TestControls_ErrorClearedOnNextSuccess(t *testing.T) {
	gw := newFakeGateway()
	gw.errs[homa.ProtocolsEndpoint(18)] = &homa.HTTPError{Status: 500, Endpoint: "x", Message: "boom"}
	store := newControlsStore(gw)
	_ = store.Fetch(context.Background())
	require.NotEmpty(t, store.Error())

	delete(gw.errs, homa.ProtocolsEndpoint(18))
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[{"id":1,"name":"Peso"}]}`
	require.NoError(t, store.Fetch(context.Background()))
	require.Empty(t, store.Error())
}

func TestControls_PendingDerivation(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[
		{"id":1,"name":"Peso","estado":"realizado"},
		{"id":2,"name":"Glicemia"}
	]}`
	store := newControlsStore(gw)

	require.NoError(t, store.Fetch(context.Background()))
	require.True(t, store.HasPending())
	require.Len(t, store.Pending(), 1)
	require.Equal(t, "Glicemia", store.Pending()[0].Name)
}

func TestControls_LookupCacheHitSkipsNetwork(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[{"id":20,"name":"Glicemia"}]}`
	store := newControlsStore(gw)
	require.NoError(t, store.Fetch(context.Background()))

	c, ok := store.Lookup(context.Background(), "20")

	require.True(t, ok)
	require.Equal(t, "Glicemia", c.Name)
	require.Equal(t, 0, gw.callCount(homa.ProtocolEndpoint(20)))
}

func TestControls_LookupMissFetchesProtocolDetail(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[{"id":20,"name":"Glicemia"}]}`
	gw.responses[homa.ProtocolEndpoint(21)] = `{"data":{"protocol":{"id":21,"name":"Presión Arterial"}}}`
	store := newControlsStore(gw)
	require.NoError(t, store.Fetch(context.Background()))

	c, ok := store.Lookup(context.Background(), "21")

	require.True(t, ok)
	require.Equal(t, "Presión Arterial", c.Name)
	require.Equal(t, 1, gw.callCount(homa.ProtocolEndpoint(21)))

	// The detail is cached: a second lookup stays local.
	_, ok = store.Lookup(context.Background(), "21")
	require.True(t, ok)
	require.Equal(t, 1, gw.callCount(homa.ProtocolEndpoint(21)))
	require.Len(t, store.Controls(), 2)
}

func TestControls_LookupSyntheticIDNeverFetches(t *testing.T) {
	gw := newFakeGateway()
	store := newControlsStore(gw)

	_, ok := store.Lookup(context.Background(), "fallback-1")

	require.False(t, ok)
	require.Zero(t, gw.totalCalls())
}

func TestControls_LookupDetailFailureMisses(t *testing.T) {
	gw := newFakeGateway()
	gw.errs[homa.ProtocolEndpoint(21)] = &homa.HTTPError{Status: 500, Endpoint: "x", Message: "boom"}
	store := newControlsStore(gw)

	_, ok := store.Lookup(context.Background(), "21")
	require.False(t, ok)
}

func TestControls_ResetRestoresDefaults(t *testing.T) {
	gw := newFakeGateway()
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[{"id":1,"name":"Peso"}]}`
	store := newControlsStore(gw)
	require.NoError(t, store.Fetch(context.Background()))

	store.Reset()

	require.Empty(t, store.Controls())
	require.False(t, store.Loading())
	require.False(t, store.Initialized())
	require.Empty(t, store.Error())
}
