package psfdistributionengine

import (
	"log/slog"

	httpadapter "sacco/contexts/finance-core/psf-distribution-engine/adapters/http"
	"sacco/contexts/finance-core/psf-distribution-engine/adapters/memory"
	"sacco/contexts/finance-core/psf-distribution-engine/application"
	"sacco/contexts/finance-core/psf-distribution-engine/ports"

	"github.com/shopspring/decimal"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Ledger                  ports.LedgerRepository
	Tree                    ports.AncestorResolver
	Clock                   ports.Clock
	IDGenerator             ports.IDGenerator
	DefaultUnitAmount       decimal.Decimal
	DisableCreditedEmission bool
	Logger                  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Ledger:                  deps.Ledger,
		Tree:                    deps.Tree,
		Clock:                   deps.Clock,
		IDGen:                   deps.IDGenerator,
		DefaultUnitAmount:       deps.DefaultUnitAmount,
		DisableCreditedEmission: deps.DisableCreditedEmission,
		Logger:                  deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the engine against the in-memory ledger; the caller
// still supplies the ancestor resolver because the tree lives in another
// context.
func NewInMemoryModule(tree ports.AncestorResolver, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger:            store,
		Tree:              tree,
		Clock:             store,
		IDGenerator:       store,
		DefaultUnitAmount: decimal.NewFromInt(30),
		Logger:            logger,
	})
	module.Store = store
	return module
}
