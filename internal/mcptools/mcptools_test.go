package mcptools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/events"
	"github.com/miosalud/miosync/internal/health"
	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/plans"
	"github.com/miosalud/miosync/internal/session"
	"github.com/miosalud/miosync/internal/storage"
)

// fakeGateway serves canned JSON per endpoint.
type fakeGateway struct {
	responses map[string]string
	errs      map[string]error
	posts     []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{responses: map[string]string{}, errs: map[string]error{}}
}

func (g *fakeGateway) serve(endpoint string) (gjson.Result, error) {
	if err := g.errs[endpoint]; err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(g.responses[endpoint]), nil
}

func (g *fakeGateway) Get(ctx context.Context, endpoint string, opts ...homa.RequestOption) (gjson.Result, error) {
	return g.serve(endpoint)
}

func (g *fakeGateway) Post(ctx context.Context, endpoint string, body any, opts ...homa.RequestOption) (gjson.Result, error) {
	g.posts = append(g.posts, endpoint)
	return g.serve(endpoint)
}

func (g *fakeGateway) Put(ctx context.Context, endpoint string, body any, opts ...homa.RequestOption) (gjson.Result, error) {
	return g.serve(endpoint)
}

func (g *fakeGateway) Delete(ctx context.Context, endpoint string, opts ...homa.RequestOption) (gjson.Result, error) {
	return g.serve(endpoint)
}

type fakeProvider struct{}

func (fakeProvider) SignIn(ctx context.Context, email, password string) (session.ProviderUser, error) {
	return session.ProviderUser{UID: "uid-1", Email: email, Name: "Ana"}, nil
}

func (fakeProvider) SignOut(ctx context.Context) error { return nil }

// loggedInSession builds a session store and logs it in against the fake
// gateway, yielding patient 42 on health plan 18.
func loggedInSession(t *testing.T, gw *fakeGateway) *session.Store {
	t.Helper()
	gw.responses[homa.AuthorizationsEndpoint] = `{"token":"tok-1","patient_id":42,"health_plan_id":18}`
	sess := session.NewStore(gw, storage.NewMemory(), events.NewBus(), fakeProvider{}, zap.NewNop())
	res := sess.Login(context.Background(), "ana@example.com", "secret")
	if !res.Success {
		t.Fatalf("login failed: %s", res.Error)
	}
	return sess
}

// newFacade builds a facade over stores bound to the fake gateway for
// patient 42 / health plan 18.
func newFacade(gw *fakeGateway) *health.Facade {
	logger := zap.NewNop()
	ident := fixedIdentity{}
	return health.NewFacade(
		health.NewControlsStore(gw, ident, logger),
		health.NewMeasurementsStore(gw, ident, logger),
		health.NewServicesStore(gw, ident, logger),
		health.NewCampaignsStore(gw, ident, logger),
		health.NewAppointmentsStore(gw, ident, logger),
		health.NewContentStore(gw, ident, logger),
		logger,
	)
}

type fixedIdentity struct{}

func (fixedIdentity) PatientID() int    { return 42 }
func (fixedIdentity) HealthPlanID() int { return 18 }

// newPlanStore builds a plans store for patient 42 over the fake gateway.
func newPlanStore(gw *fakeGateway, kv storage.KV) *plans.Store {
	return plans.NewStore(gw, fixedIdentity{}, kv, zap.NewNop())
}

// seedPatientData loads the fake backend with one glucose control and a
// three-point rising history.
func seedPatientData(gw *fakeGateway) {
	gw.responses[homa.ProtocolsEndpoint(18)] = `{"protocol":[{"id":20,"name":"Glicemia Capilar"}]}`
	gw.responses[homa.ObservationsEndpoint(42, 20)] = `[
		{"id":"m3","glucose":110,"fecha":"2026-05-03 08:00:00"},
		{"id":"m2","glucose":100,"fecha":"2026-05-02 08:00:00"},
		{"id":"m1","glucose":90,"fecha":"2026-05-01 08:00:00"}
	]`
	gw.responses[homa.LastInfoControlEndpoint(42)] = `[]`
	gw.responses[homa.PatientServicesEndpoint(42)] = `{"services":[]}`
	gw.responses[homa.PatientCampaignsEndpoint(42)] = `{"campaigns":[]}`
	gw.responses[homa.HealthPlanEndpoint(18)] = `{}`
	gw.responses[homa.PlansEndpoint(42)] = `{}`
}

func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
