package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
)

func newTestFacade(gw *fakeGateway) *Facade {
	ident := fixedIdentity{patientID: 42, healthPlanID: 18}
	logger := zap.NewNop()
	return NewFacade(
		NewControlsStore(gw, ident, logger),
		NewMeasurementsStore(gw, ident, logger),
		NewServicesStore(gw, ident, logger),
		NewCampaignsStore(gw, ident, logger),
		NewAppointmentsStore(gw, ident, logger),
		NewContentStore(gw, ident, logger),
		logger,
	)
}

func seedHappyResponses(gw *fakeGateway) {
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[{"id":20,"name":"Glicemia"},{"id":21,"name":"Peso"}]}`
	gw.responses[homa.LastInfoControlEndpoint(42)] = `{"data":[{"control_id":"20","glicemia":95,"fecha":"2026-05-03 08:00:00"}]}`
	gw.responses[homa.PatientServicesEndpoint(42)] = `{"services":[{"id":1,"name":"Telemedicina"}]}`
	gw.responses[homa.PatientCampaignsEndpoint(42)] = `{"campaigns":[{"id":1,"titulo":"Vacunación"}]}`
	gw.responses[homa.HealthPlanEndpoint(18)] = `{"data":{"appointments":[{"id":1,"titulo":"Control médico"}]}}`
	gw.responses[homa.PlansEndpoint(42)] = `{"data":{"videos":[{"id":1,"title":"Alimentación"}]}}`
	gw.responses[homa.ObservationsEndpoint(42, 20)] = `[{"id":"a","glucose":95}]`
	gw.responses[homa.ObservationsEndpoint(42, 21)] = `[{"id":"b","weight":71}]`
}

func TestFacade_FetchAllLoadsEverything(t *testing.T) {
	gw := newFakeGateway()
	seedHappyResponses(gw)
	f := newTestFacade(gw)

	require.NoError(t, f.FetchAll(context.Background()))

	require.True(t, f.Initialized())
	require.Len(t, f.Controls.Controls(), 2)
	require.Len(t, f.Services.Services(), 1)
	require.Len(t, f.Campaigns.Campaigns(), 1)
	require.Len(t, f.Appointments.Appointments(), 1)
	require.Len(t, f.Content.Videos(), 1)

	// Phase two ran once per discovered control id.
	require.Equal(t, 1, gw.callCount(homa.ObservationsEndpoint(42, 20)))
	require.Equal(t, 1, gw.callCount(homa.ObservationsEndpoint(42, 21)))
	require.Len(t, f.Measurements.History("20"), 1)
	require.Len(t, f.Measurements.History("21"), 1)
}

func TestFacade_SingleFlight(t *testing.T) {
	gw := newFakeGateway()
	seedHappyResponses(gw)
	gw.delay = 30 * time.Millisecond
	f := newTestFacade(gw)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.FetchAll(context.Background())
		}()
	}
	wg.Wait()

	// Five concurrent callers, exactly one underlying set of calls.
	require.Equal(t, 1, gw.callCount(homa.ProtocolsEndpoint(18)))
	require.Equal(t, 1, gw.callCount(homa.PatientServicesEndpoint(42)))
	require.Equal(t, 1, gw.callCount(homa.ObservationsEndpoint(42, 20)))
}

func TestFacade_SecondCallIsNoopUntilForceReload(t *testing.T) {
	gw := newFakeGateway()
	seedHappyResponses(gw)
	f := newTestFacade(gw)

	require.NoError(t, f.FetchAll(context.Background()))
	first := gw.totalCalls()

	require.NoError(t, f.FetchAll(context.Background()))
	require.Equal(t, first, gw.totalCalls())

	require.NoError(t, f.ForceReload(context.Background()))
	require.Greater(t, gw.totalCalls(), first)
}

func TestFacade_DegradedStoreDoesNotAbortSiblings(t *testing.T) {
	gw := newFakeGateway()
	seedHappyResponses(gw)
	gw.errs[homa.PatientCampaignsEndpoint(42)] = &homa.HTTPError{Status: 500, Endpoint: "x", Message: "boom"}
	f := newTestFacade(gw)

	require.NoError(t, f.FetchAll(context.Background()))

	require.True(t, f.Initialized())
	require.NotEmpty(t, f.Campaigns.Error())
	require.Len(t, f.Services.Services(), 1)
	require.Len(t, f.Controls.Controls(), 2)
}

func TestFacade_ReadThroughDelegation(t *testing.T) {
	gw := newFakeGateway()
	seedHappyResponses(gw)
	f := newTestFacade(gw)

	require.NoError(t, f.FetchAll(context.Background()))

	require.True(t, f.HasPendingControls())
	latest, ok := f.LatestMeasurement()
	require.True(t, ok)
	require.NotEmpty(t, latest.Value)
}

func TestFacade_ResetAllRestoresDefaults(t *testing.T) {
	gw := newFakeGateway()
	seedHappyResponses(gw)
	f := newTestFacade(gw)
	require.NoError(t, f.FetchAll(context.Background()))

	f.ResetAll()

	require.False(t, f.Initialized())
	require.Empty(t, f.Controls.Controls())
	require.Empty(t, f.Services.Services())
	require.Empty(t, f.Content.Videos())
	_, ok := f.Measurements.Latest()
	require.False(t, ok)
}
