package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/valnet/valdesk-central/internal/clock"
	"github.com/valnet/valdesk-central/internal/config"
	"github.com/valnet/valdesk-central/internal/observability"
	"github.com/valnet/valdesk-central/internal/scheduler"
	"github.com/valnet/valdesk-central/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// No server module: this binary only runs the billing jobs.
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
