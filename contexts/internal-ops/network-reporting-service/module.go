package networkreportingservice

import (
	"log/slog"

	httpadapter "sacco/contexts/internal-ops/network-reporting-service/adapters/http"
	"sacco/contexts/internal-ops/network-reporting-service/adapters/memory"
	"sacco/contexts/internal-ops/network-reporting-service/application"
	"sacco/contexts/internal-ops/network-reporting-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Reader  *memory.Reader
}

type Dependencies struct {
	Tree   ports.TreeReader
	Ledger ports.LedgerReader
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Tree:   deps.Tree,
		Ledger: deps.Ledger,
		Logger: deps.Logger,
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
	reader := memory.NewReader()
	module := NewModule(Dependencies{
		Tree:   reader,
		Ledger: reader,
		Logger: logger,
	})
	module.Reader = reader
	return module
}
