package account

import (
	"github.com/resellops/backoffice/internal/account/repository"
	"github.com/resellops/backoffice/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
