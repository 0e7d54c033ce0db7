package order

import (
	"github.com/resellops/backoffice/internal/order/repository"
	"github.com/resellops/backoffice/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
