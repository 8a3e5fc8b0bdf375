package citizen

import (
	"github.com/valnet/valdesk-central/internal/citizen/repository"
	"github.com/valnet/valdesk-central/internal/citizen/service"
	"go.uber.org/fx"
)

var Module = fx.Module("citizen.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
