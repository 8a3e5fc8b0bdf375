package serviceassignment

import (
	"github.com/valnet/valdesk-central/internal/serviceassignment/repository"
	"github.com/valnet/valdesk-central/internal/serviceassignment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("serviceassignment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
