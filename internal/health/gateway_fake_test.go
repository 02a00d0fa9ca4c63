package health

import (
	"context"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/miosalud/miosync/internal/homa"
)

// fakeGateway serves canned JSON per endpoint, records call counts, and
// can delay responses to widen race windows in single-flight tests.
type fakeGateway struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     map[string]int
	delay     time.Duration
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		responses: map[string]string{},
		errs:      map[string]error{},
		calls:     map[string]int{},
	}
}

func (g *fakeGateway) serve(endpoint string) (gjson.Result, error) {
	g.mu.Lock()
	g.calls[endpoint]++
	body := g.responses[endpoint]
	err := g.errs[endpoint]
	delay := g.delay
	g.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(body), nil
}

func (g *fakeGateway) callCount(endpoint string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[endpoint]
}

func (g *fakeGateway) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

func (g *fakeGateway) Get(ctx context.Context, endpoint string, opts ...homa.RequestOption) (gjson.Result, error) {
	return g.serve(endpoint)
}

func (g *fakeGateway) Post(ctx context.Context, endpoint string, body any, opts ...homa.RequestOption) (gjson.Result, error) {
	return g.serve(endpoint)
}

func (g *fakeGateway) Put(ctx context.Context, endpoint string, body any, opts ...homa.RequestOption) (gjson.Result, error) {
	return g.serve(endpoint)
}

func (g *fakeGateway) Delete(ctx context.Context, endpoint string, opts ...homa.RequestOption) (gjson.Result, error) {
	return g.serve(endpoint)
}

// fixedIdentity is a static Identity for tests.
type fixedIdentity struct {
	patientID    int
	healthPlanID int
}

func (f fixedIdentity) PatientID() int    { return f.patientID }
func (f fixedIdentity) HealthPlanID() int { return f.healthPlanID }
