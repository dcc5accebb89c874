package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tidybill/internal/billing"
	"github.com/smallbiznis/tidybill/internal/cache"
	"github.com/smallbiznis/tidybill/internal/client"
	"github.com/smallbiznis/tidybill/internal/clock"
	"github.com/smallbiznis/tidybill/internal/config"
	"github.com/smallbiznis/tidybill/internal/facility"
	"github.com/smallbiznis/tidybill/internal/observability"
	"github.com/smallbiznis/tidybill/internal/server"
	"github.com/smallbiznis/tidybill/internal/tax"
	"github.com/smallbiznis/tidybill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,

		client.Module,
		facility.Module,
		tax.Module,
		billing.Module,

		server.Module,
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
