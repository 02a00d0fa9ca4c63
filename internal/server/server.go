// Package server wires all components and creates the MCP server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into everything that depends on abstractions. No business
// logic lives here — only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/config"
	"github.com/miosalud/miosync/internal/events"
	"github.com/miosalud/miosync/internal/health"
	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/homacenter"
	"github.com/miosalud/miosync/internal/logging"
	"github.com/miosalud/miosync/internal/mcptools"
	"github.com/miosalud/miosync/internal/persist"
	"github.com/miosalud/miosync/internal/plans"
	"github.com/miosalud/miosync/internal/session"
	"github.com/miosalud/miosync/internal/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the storage database and flushes
// the logger; it must be called on shutdown (typically via defer). It is
// always non-nil and safe to call.
func New() (*server.MCPServer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "miosync")
	if err != nil {
		return nil, noop, fmt.Errorf("creating logger: %w", err)
	}

	kv, err := storage.OpenSQLite(cfg.StoragePath)
	if err != nil {
		return nil, noop, fmt.Errorf("opening storage: %w", err)
	}
	cleanup := func() {
		if err := kv.Close(); err != nil {
			logger.Warn("storage close failed", zap.Error(err))
		}
		_ = logger.Sync()
	}

	// --- Shared plumbing ---

	bus := events.NewBus()
	tokens := homa.KVTokenSource{KV: kv}
	gateway := homa.NewClient(cfg.HomaBaseURL, tokens, bus, logger,
		homa.WithTimeout(cfg.RequestTimeout))
	centerGateway := homa.NewClient(cfg.HomaCenterBaseURL, tokens, bus, logger,
		homa.WithTimeout(cfg.RequestTimeout))

	// --- Session ---

	provider := session.NewFirebaseProvider(cfg.FirebaseAPIKey, logger)
	sess := session.NewStore(gateway, kv, bus, provider, logger)
	if sess.Restore() {
		logger.Info("session restored", zap.Int("patient_id", sess.PatientID()))
		go sess.Hydrate(context.Background())
	}

	// --- Domain stores + facade ---

	facade := health.NewFacade(
		health.NewControlsStore(gateway, sess, logger),
		health.NewMeasurementsStore(gateway, sess, logger),
		health.NewServicesStore(gateway, sess, logger),
		health.NewCampaignsStore(gateway, sess, logger),
		health.NewAppointmentsStore(gateway, sess, logger),
		health.NewContentStore(gateway, sess, logger),
		logger,
	)
	planStore := plans.NewStore(gateway, sess, kv, logger)

	// --- Persistence ---

	manager := persist.NewManager(kv, logger)
	manager.Attach(sess)
	manager.Attach(facade.Content)
	manager.Attach(planStore)
	manager.Register(facade.Controls)
	manager.Register(facade.Measurements)
	manager.Register(facade.Services)
	manager.Register(facade.Campaigns)
	manager.Register(facade.Appointments)

	// Logout wipes everything: domain caches, persisted snapshots, keys.
	bus.Subscribe(events.TopicLogout, func(map[string]any) {
		facade.ResetAll()
		manager.ResetAll()
	})

	// --- Write path ---

	center := homacenter.NewClient(centerGateway, logger)

	// --- MCP server + tools ---

	s := server.NewMCPServer(
		"miosync",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	summaryTool := mcptools.NewHealthSummaryTool(facade)
	s.AddTool(summaryTool.Definition(), summaryTool.Handle)

	historyTool := mcptools.NewHealthHistoryTool(facade)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	trendTool := mcptools.NewHealthTrendTool(facade)
	s.AddTool(trendTool.Definition(), trendTool.Handle)

	submitTool := mcptools.NewSubmitObservationTool(center, facade.Measurements, sess)
	s.AddTool(submitTool.Definition(), submitTool.Handle)

	refreshTool := mcptools.NewRefreshDataTool(facade, planStore)
	s.AddTool(refreshTool.Definition(), refreshTool.Handle)

	statusTool := mcptools.NewSessionStatusTool(sess)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	planTool := mcptools.NewActivePlanTool(planStore)
	s.AddTool(planTool.Definition(), planTool.Handle)

	return s, cleanup, nil
}

// noop is the default cleanup when initialization fails early.
func noop() {}

// serverInstructions tells the AI client how to use the tools.
func serverInstructions() string {
	return `You have access to miosync, a patient health-data MCP server.

miosync syncs a patient's data from their health provider: prescribed
controls (blood pressure, glucose, weight, ...), measurement history,
contracted services, campaigns, appointments and educational content.

## Typical flow
1. session_status — confirm the patient is logged in before anything else.
2. health_summary — latest value per control plus the pending-control list.
3. health_history — drill into one control (control ids come from the summary).
4. health_trend — linear trend for a control: change per day, direction,
   projected next value. Needs at least two measurements.
5. submit_observation — record a new measured value. Values are validated
   against clinical ranges client-side; an out-of-range value is rejected
   with the accepted range, nothing is sent.
6. refresh_data — force a reload when the user reports stale data.
7. active_plan — list the patient's health plans and the active one with
   its theme; pass plan_id to switch plans (the choice is persisted).

## Rules
- Never guess measurement values; only report what the tools return.
- Validation messages and summaries are in Spanish, the patients' language —
  keep them verbatim when relaying to the user.
- If session_status reports no session, stop and ask the patient to log in
  through the app; tools cannot authenticate on the patient's behalf.
- Data may be served from cache when the backend is degraded; the tools say
  so — pass that caveat on.`
}
