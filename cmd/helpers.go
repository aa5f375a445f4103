package cmd

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/assignment"
	"github.com/ziadkadry99/auto-assign/internal/audit"
	"github.com/ziadkadry99/auto-assign/internal/config"
	"github.com/ziadkadry99/auto-assign/internal/db"
	"github.com/ziadkadry99/auto-assign/internal/escalation"
	"github.com/ziadkadry99/auto-assign/internal/governance"
	"github.com/ziadkadry99/auto-assign/internal/logging"
	"github.com/ziadkadry99/auto-assign/internal/matrix"
	"github.com/ziadkadry99/auto-assign/internal/monitor"
	"github.com/ziadkadry99/auto-assign/internal/notifications"
	"github.com/ziadkadry99/auto-assign/internal/workload"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `autoassign init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Format)
}

// stack is every engine and store a command needs, built from one config.
type stack struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *db.DB

	matrix        *matrix.Matrix
	balancer      *workload.Balancer
	assignments   *assignment.Engine
	governance    *governance.Governance
	escalations   *escalation.Engine
	notifications *notifications.Store
	dispatcher    *notifications.Dispatcher
	audit         *audit.Store
	monitor       *monitor.Monitor
}

// newStack wires the engines together. With the memory driver the
// assignment, workload and escalation stores live in process while
// notifications and the audit trail use an in-memory SQLite database.
func newStack(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stack, error) {
	var (
		database *db.DB
		err      error
	)
	if cfg.Storage.Driver == config.StorageSQLite {
		database, err = db.Open(cfg.Storage.Path)
	} else {
		database, err = db.OpenMemory()
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	m := matrix.New()
	if cfg.TeamsFile != "" {
		m, err = matrix.LoadFile(cfg.TeamsFile)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("loading teams: %w", err)
		}
	}

	var (
		workloadStore   workload.Store
		assignmentStore assignment.Store
		escalationStore escalation.Store
	)
	if cfg.Storage.Driver == config.StorageSQLite {
		workloadStore = workload.NewSQLStore(database)
		assignmentStore = assignment.NewSQLStore(database)
		escalationStore = escalation.NewSQLStore(database)
	} else {
		workloadStore = workload.NewMemoryStore()
		assignmentStore = assignment.NewMemoryStore()
		escalationStore = escalation.NewMemoryStore()
	}

	notifStore := notifications.NewStore(database)
	dispatcher := notifications.NewDispatcher(notifStore, logger.Named("notifications"))
	auditStore := audit.NewStore(database)

	balancer := workload.NewBalancer(workloadStore,
		workload.WithConfig(cfg.Scoring.Workload()),
		workload.WithLogger(logger.Named("workload")),
	)
	assignments := assignment.NewEngine(m, balancer, assignmentStore,
		assignment.WithNotifier(dispatcher),
		assignment.WithLogger(logger.Named("assignment")),
	)
	gov := governance.New(governance.WithLogger(logger.Named("governance")))
	escalations := escalation.NewEngine(escalationStore,
		escalation.WithConfig(cfg.Escalation.Engine()),
		escalation.WithNotifier(dispatcher),
		escalation.WithLogger(logger.Named("escalation")),
	)
	if err := escalations.SeedDefaultAgents(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("seeding escalation agents: %w", err)
	}

	mon := monitor.New(assignments, gov, escalations,
		monitor.WithAudit(auditStore),
		monitor.WithLogger(logger.Named("monitor")),
		monitor.WithInterval(cfg.Monitor.Interval),
	)

	return &stack{
		cfg:           cfg,
		logger:        logger,
		db:            database,
		matrix:        m,
		balancer:      balancer,
		assignments:   assignments,
		governance:    gov,
		escalations:   escalations,
		notifications: notifStore,
		dispatcher:    dispatcher,
		audit:         auditStore,
		monitor:       mon,
	}, nil
}

// registerRoutes mounts the REST API. Successful mutating requests are
// written to the audit trail.
func (s *stack) registerRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(audit.Middleware(s.audit, s.logger.Named("audit")))

		assignment.RegisterRoutes(r, s.assignments)
		governance.RegisterRoutes(r, s.governance, s.assignments)
		matrix.RegisterRoutes(r, s.matrix, s.balancer)
		escalation.RegisterRoutes(r, s.escalations)
		notifications.RegisterRoutes(r, s.notifications, s.dispatcher)
		audit.RegisterRoutes(r, s.audit)
	})
}

func (s *stack) Close() error {
	return s.db.Close()
}
