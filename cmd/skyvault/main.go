package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/driftbyte/skyvault/internal/clock"
	"github.com/driftbyte/skyvault/internal/config"
	"github.com/driftbyte/skyvault/internal/migration"
	obsmetrics "github.com/driftbyte/skyvault/internal/observability/metrics"
	"github.com/driftbyte/skyvault/internal/rollup"
	"github.com/driftbyte/skyvault/internal/server"
	"github.com/driftbyte/skyvault/pkg/db"
	"github.com/driftbyte/skyvault/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure.
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		obsmetrics.Module,
		migration.Module,

		// Functional domains.
		server.Module,
		rollup.Module,
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
