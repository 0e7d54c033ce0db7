package auth

import (
	"github.com/resellops/backoffice/internal/auth/service"
	"github.com/resellops/backoffice/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(session.ProvideStore),
	fx.Provide(service.New),
)
