package invoice

import (
	"github.com/smallbiznis/faktur/internal/invoice/repository"
	"github.com/smallbiznis/faktur/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
