package goods

import (
	"github.com/resellops/backoffice/internal/goods/repository"
	"github.com/resellops/backoffice/internal/goods/service"
	"go.uber.org/fx"
)

var Module = fx.Module("goods.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
