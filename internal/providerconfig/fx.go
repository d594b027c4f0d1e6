package providerconfig

import (
	"github.com/smallbiznis/faktur/internal/providerconfig/repository"
	"github.com/smallbiznis/faktur/internal/providerconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("providerconfig.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
