package health

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Facade aggregates the domain stores behind one legacy-shaped surface.
// It never mutates store state itself — every read delegates to the owning
// store — and its one piece of real logic is the single-flight guard
// around the aggregate load.
type Facade struct {
	Controls     *ControlsStore
	Measurements *MeasurementsStore
	Services     *ServicesStore
	Campaigns    *CampaignsStore
	Appointments *AppointmentsStore
	Content      *ContentStore

	logger *zap.Logger

	group       singleflight.Group
	mu          sync.Mutex
	initialized bool
}

// NewFacade wires the facade over the given stores.
func NewFacade(
	controls *ControlsStore,
	measurements *MeasurementsStore,
	services *ServicesStore,
	campaigns *CampaignsStore,
	appointments *AppointmentsStore,
	content *ContentStore,
	logger *zap.Logger,
) *Facade {
	return &Facade{
		Controls:     controls,
		Measurements: measurements,
		Services:     services,
		Campaigns:    campaigns,
		Appointments: appointments,
		Content:      content,
		logger:       logger,
	}
}

// FetchAll loads every slice of patient data. Concurrent callers during an
// in-flight load share the same underlying work; once the aggregate is
// marked initialized, further calls are no-ops until ForceReload.
//
// The load is two-phase: the independent store fetches fan out in
// parallel, then — only after Controls resolves — one history fetch per
// discovered control id fans out in a second wave. Per-store failures
// degrade silently (each store records its own error and keeps its cache);
// they never abort sibling fetches.
func (f *Facade) FetchAll(ctx context.Context) error {
	f.mu.Lock()
	if f.initialized {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	_, err, _ := f.group.Do("fetch-all", func() (any, error) {
		// A caller that lost the race to a just-settled flight re-checks
		// here instead of reloading.
		f.mu.Lock()
		if f.initialized {
			f.mu.Unlock()
			return nil, nil
		}
		f.mu.Unlock()

		f.fetchPhaseOne(ctx)
		f.fetchPhaseTwo(ctx)

		f.mu.Lock()
		f.initialized = true
		f.mu.Unlock()
		return nil, nil
	})
	return err
}

func (f *Facade) fetchPhaseOne(ctx context.Context) {
	var g errgroup.Group
	for _, fetch := range []func(context.Context) error{
		f.Controls.Fetch,
		f.Measurements.Fetch,
		f.Services.Fetch,
		f.Campaigns.Fetch,
		f.Appointments.Fetch,
		f.Content.Fetch,
	} {
		fetch := fetch
		g.Go(func() error {
			if err := fetch(ctx); err != nil {
				f.logger.Warn("store fetch degraded", zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (f *Facade) fetchPhaseTwo(ctx context.Context) {
	var g errgroup.Group
	for _, id := range f.Controls.IDs() {
		id := id
		g.Go(func() error {
			if err := f.Measurements.FetchHistory(ctx, id); err != nil {
				f.logger.Warn("history fetch degraded", zap.String("control_id", id), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ForceReload clears the single-flight guard's initialized flag and loads
// again. Store fetches are wholesale replacements, so no per-store reset
// is needed first.
func (f *Facade) ForceReload(ctx context.Context) error {
	f.mu.Lock()
	f.initialized = false
	f.mu.Unlock()
	return f.FetchAll(ctx)
}

// Initialized reports whether the aggregate load has completed once.
func (f *Facade) Initialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

// HasPendingControls delegates to the Controls store's derived flag.
func (f *Facade) HasPendingControls() bool {
	return f.Controls.HasPending()
}

// LatestMeasurement delegates to the Measurements store.
func (f *Facade) LatestMeasurement() (Measurement, bool) {
	return f.Measurements.Latest()
}

// ResetAll restores every domain store to construction defaults. Used on
// logout.
func (f *Facade) ResetAll() {
	f.mu.Lock()
	f.initialized = false
	f.mu.Unlock()

	f.Controls.Reset()
	f.Measurements.Reset()
	f.Services.Reset()
	f.Campaigns.Reset()
	f.Appointments.Reset()
	f.Content.Reset()
}
