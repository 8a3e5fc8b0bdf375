package payment

import (
	"github.com/valnet/valdesk-central/internal/payment/repository"
	"github.com/valnet/valdesk-central/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
