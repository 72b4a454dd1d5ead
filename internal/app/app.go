// Package app assembles the procurement components from configuration so the
// API server and the operator CLI run the same wiring.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/solarpo-backend/internal/activity"
	"github.com/angelmondragon/solarpo-backend/internal/automation"
	"github.com/angelmondragon/solarpo-backend/internal/catalog"
	"github.com/angelmondragon/solarpo-backend/internal/jobs"
	"github.com/angelmondragon/solarpo-backend/internal/orders"
	"github.com/angelmondragon/solarpo-backend/internal/ponumber"
	"github.com/angelmondragon/solarpo-backend/internal/selection"
	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
	"github.com/angelmondragon/solarpo-backend/pkg/metrics"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox"
	"github.com/angelmondragon/solarpo-backend/pkg/redis"
)

// App holds the wired services.
type App struct {
	Gate    *automation.Gate
	Orders  *orders.Service
	Metrics *metrics.ProcurementMetrics
}

// New wires the gate and the order workflow. A nil redis client selects the
// in-process generation lock, which only guards a single instance.
func New(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer, logg *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("database client required")
	}

	strategy, err := selection.FromConfig(cfg.Procurement)
	if err != nil {
		return nil, err
	}
	readyStatus, err := enums.ParseJobStatus(cfg.Procurement.ReadyStatus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.EnvJobReadyStatus, err)
	}
	orderedStatus, err := enums.ParseJobStatus(cfg.Procurement.OrderedStatus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.EnvJobOrderedStatus, err)
	}
	loc, err := cfg.Procurement.Location()
	if err != nil {
		return nil, err
	}

	conn := dbClient.DB()
	ordersRepo := orders.NewRepository(conn)
	jobsRepo := jobs.NewRepository(conn)
	activityRepo := activity.NewRepository(conn)
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	aggregator, err := orders.NewAggregator(orders.AggregatorDeps{
		Tx:       dbClient,
		Repo:     ordersRepo,
		PO:       ponumber.NewService(conn, loc),
		Jobs:     jobsRepo,
		Activity: activityRepo,
		Outbox:   events,
		Logger:   logg,
	}, orders.AggregatorConfig{GSTRate: cfg.Procurement.GSTRate, OrderedStatus: orderedStatus})
	if err != nil {
		return nil, fmt.Errorf("building aggregator: %w", err)
	}

	var locks automation.Locker
	if redisClient != nil {
		locks, err = automation.NewRedisLocker(redisClient, cfg.Procurement.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("building generation lock: %w", err)
		}
	} else {
		locks = automation.NewLocalLocker()
	}

	procMetrics := metrics.NewProcurementMetrics(reg)
	gate, err := automation.NewGate(automation.Deps{
		Tx:         dbClient,
		Jobs:       jobsRepo,
		Orders:     ordersRepo,
		Catalog:    catalog.NewAccessor(catalog.NewRepository(conn)),
		Aggregator: aggregator,
		Runs:       automation.NewRunRepository(conn),
		Locks:      locks,
		Metrics:    procMetrics,
		Logger:     logg,
	}, automation.Config{
		Strategy:    strategy,
		GSTRate:     cfg.Procurement.GSTRate,
		ReadyStatus: readyStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("building automation gate: %w", err)
	}

	orderService, err := orders.NewService(ordersRepo, dbClient, activityRepo, events)
	if err != nil {
		return nil, fmt.Errorf("building order service: %w", err)
	}

	return &App{Gate: gate, Orders: orderService, Metrics: procMetrics}, nil
}
