package invoice

import (
	"github.com/valnet/valdesk-central/internal/invoice/repository"
	"github.com/valnet/valdesk-central/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
