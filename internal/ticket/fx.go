package ticket

import (
	"github.com/valnet/valdesk-central/internal/ticket/repository"
	"github.com/valnet/valdesk-central/internal/ticket/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ticket.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
