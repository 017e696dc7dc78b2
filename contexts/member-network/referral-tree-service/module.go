package referraltreeservice

import (
	"log/slog"

	httpadapter "sacco/contexts/member-network/referral-tree-service/adapters/http"
	"sacco/contexts/member-network/referral-tree-service/adapters/memory"
	"sacco/contexts/member-network/referral-tree-service/application"
	"sacco/contexts/member-network/referral-tree-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository           ports.TreeRepository
	Clock                ports.Clock
	IDGenerator          ports.IDGenerator
	OverflowScope        ports.OverflowScope
	MaxPlacementAttempts int
	Logger               *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:                 deps.Repository,
		Clock:                deps.Clock,
		IDGen:                deps.IDGenerator,
		OverflowScope:        deps.OverflowScope,
		MaxPlacementAttempts: deps.MaxPlacementAttempts,
		Logger:               deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:    store,
		Clock:         store,
		IDGenerator:   store,
		OverflowScope: ports.OverflowScopeSubtree,
		Logger:        logger,
	})
	module.Store = store
	return module
}
