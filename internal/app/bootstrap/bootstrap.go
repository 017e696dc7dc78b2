package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	psfdistributionengine "sacco/contexts/finance-core/psf-distribution-engine"
	distpostgres "sacco/contexts/finance-core/psf-distribution-engine/adapters/postgres"
	distworkers "sacco/contexts/finance-core/psf-distribution-engine/application/workers"
	distdomainerrors "sacco/contexts/finance-core/psf-distribution-engine/domain/errors"
	distports "sacco/contexts/finance-core/psf-distribution-engine/ports"
	networkreportingservice "sacco/contexts/internal-ops/network-reporting-service"
	reportpostgres "sacco/contexts/internal-ops/network-reporting-service/adapters/postgres"
	referraltreeservice "sacco/contexts/member-network/referral-tree-service"
	treepostgres "sacco/contexts/member-network/referral-tree-service/adapters/postgres"
	treeapp "sacco/contexts/member-network/referral-tree-service/application"
	treeworkers "sacco/contexts/member-network/referral-tree-service/application/workers"
	treedomainerrors "sacco/contexts/member-network/referral-tree-service/domain/errors"
	treeports "sacco/contexts/member-network/referral-tree-service/ports"
	"sacco/internal/platform/config"
	"sacco/internal/platform/db"
	"sacco/internal/platform/httpserver"
	"sacco/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	treeRelay       treeworkers.OutboxRelay
	distRelay       distworkers.OutboxRelay
	paymentConsumer distworkers.PaymentApprovedConsumer
	consumerEnabled bool
	pollInterval    time.Duration
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	treeModule, distModule, err := buildEngines(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	reportReader := reportpostgres.NewReader(pg.DB, logger)
	reportModule := networkreportingservice.NewModule(networkreportingservice.Dependencies{
		Tree:   reportReader,
		Ledger: reportReader,
		Logger: logger,
	})

	server := httpserver.New(treeModule, distModule, reportModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	_, distModule, err := buildEngines(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	treeRepo := treepostgres.NewRepository(pg.DB, logger)
	distRepo := distpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		treeRelay: treeworkers.OutboxRelay{
			Outbox:    treeRepo,
			Publisher: kafka,
			Clock:     treepostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		distRelay: distworkers.OutboxRelay{
			Outbox:    distRepo,
			Publisher: kafka,
			Clock:     distpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		paymentConsumer: distworkers.PaymentApprovedConsumer{
			Subscriber: kafka,
			Service:    distModule.Service,
			Dedup:      distRepo,
			Clock:      distpostgres.SystemClock{},
			Logger:     logger,
		},
		consumerEnabled: cfg.EnablePSFPaymentConsumer,
		pollInterval:    2 * time.Second,
		logger:          logger,
	}, nil
}

// buildEngines wires the referral tree and distribution engines against
// postgres and bridges them through the ancestor resolver. The tree root is
// ensured here so placements never race an unbootstrapped tree.
func buildEngines(
	cfg config.Config,
	pg *db.Postgres,
	logger *slog.Logger,
) (referraltreeservice.Module, psfdistributionengine.Module, error) {
	treeRepo := treepostgres.NewRepository(pg.DB, logger)
	treeModule := referraltreeservice.NewModule(referraltreeservice.Dependencies{
		Repository:           treeRepo,
		Clock:                treepostgres.SystemClock{},
		IDGenerator:          treepostgres.UUIDGenerator{},
		OverflowScope:        treeports.OverflowScope(cfg.PlacementScope),
		MaxPlacementAttempts: cfg.PlacementMaxAttempts,
		Logger:               logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := treeModule.Service.EnsureRoot(ctx, cfg.RootMemberID); err != nil {
		return referraltreeservice.Module{}, psfdistributionengine.Module{}, err
	}

	distRepo := distpostgres.NewRepository(pg.DB, logger)
	distModule := psfdistributionengine.NewModule(psfdistributionengine.Dependencies{
		Ledger:                  distRepo,
		Tree:                    treeAncestorResolver{tree: treeModule.Service},
		Clock:                   distpostgres.SystemClock{},
		IDGenerator:             distpostgres.UUIDGenerator{},
		DefaultUnitAmount:       cfg.PSFUnitAmount,
		DisableCreditedEmission: !cfg.EnablePSFCreditedEmission,
		Logger:                  logger,
	})
	return treeModule, distModule, nil
}

// treeAncestorResolver bridges the distribution engine to the referral tree
// across the context boundary. The tree's not-found sentinel is translated so
// the engine never imports member-network error types.
type treeAncestorResolver struct {
	tree treeapp.Service
}

func (r treeAncestorResolver) Ancestors(ctx context.Context, memberID string) ([]distports.Ancestor, error) {
	nodes, err := r.tree.Ancestors(ctx, memberID)
	if err != nil {
		if errors.Is(err, treedomainerrors.ErrNodeNotFound) {
			return nil, distdomainerrors.ErrUnknownPayer
		}
		return nil, err
	}
	chain := make([]distports.Ancestor, 0, len(nodes))
	for _, node := range nodes {
		chain = append(chain, distports.Ancestor{
			MemberID: node.MemberID,
			Level:    node.Level,
		})
	}
	return chain, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.consumerEnabled {
		if err := w.paymentConsumer.Start(ctx); err != nil {
			return err
		}
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"payment_consumer_enabled", w.consumerEnabled,
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return w.relayLoop(ctx, w.treeRelay.RunOnce)
	})
	group.Go(func() error {
		return w.relayLoop(ctx, w.distRelay.RunOnce)
	})
	return group.Wait()
}

func (w *WorkerApp) relayLoop(ctx context.Context, runOnce func(context.Context) error) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if err := runOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
