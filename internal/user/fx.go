package user

import (
	"github.com/resellops/backoffice/internal/user/repository"
	"github.com/resellops/backoffice/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
