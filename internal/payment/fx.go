package payment

import (
	"github.com/smallbiznis/faktur/internal/payment/adapters"
	"github.com/smallbiznis/faktur/internal/payment/adapters/mollie"
	"github.com/smallbiznis/faktur/internal/payment/adapters/sumup"
	"github.com/smallbiznis/faktur/internal/payment/repository"
	"github.com/smallbiznis/faktur/internal/payment/service"
	"go.uber.org/fx"
)

func newRegistry() *adapters.Registry {
	return adapters.NewRegistry(
		mollie.NewFactory(),
		sumup.NewFactory(),
	)
}

var Module = fx.Module("payment.service",
	fx.Provide(
		newRegistry,
		repository.Provide,
		service.NewService,
	),
)
