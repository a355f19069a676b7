package main

import (
	"go.uber.org/fx"

	"github.com/papermint/papermint/internal/brand"
	"github.com/papermint/papermint/internal/catalog"
	"github.com/papermint/papermint/internal/clock"
	"github.com/papermint/papermint/internal/config"
	"github.com/papermint/papermint/internal/generate"
	"github.com/papermint/papermint/internal/llm/openai"
	"github.com/papermint/papermint/internal/notify"
	"github.com/papermint/papermint/internal/observability"
	"github.com/papermint/papermint/internal/pipeline"
	"github.com/papermint/papermint/internal/prompt"
	"github.com/papermint/papermint/internal/render"
	"github.com/papermint/papermint/internal/sanitize"
	"github.com/papermint/papermint/internal/server"
	"github.com/papermint/papermint/internal/store"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,

		catalog.Module,
		sanitize.Module,
		prompt.Module,
		openai.Module,
		generate.Module,
		brand.Module,
		render.Module,
		store.Module,
		notify.Module,
		pipeline.Module,

		server.Module,
	)
	app.Run()
}
