package receipt

import (
	"github.com/resellops/backoffice/internal/receipt/repository"
	"github.com/resellops/backoffice/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
