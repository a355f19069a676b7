package openai

import (
	"github.com/papermint/papermint/internal/config"
	"github.com/papermint/papermint/internal/llm"
	"go.uber.org/fx"
)

func provideClient(cfg config.Config) (llm.Client, error) {
	return NewClient(cfg.Provider.APIKey, cfg.Provider.Model, cfg.Provider.BaseURL, cfg.Budget.CallTimeout)
}

var Module = fx.Module("llm.openai",
	fx.Provide(provideClient),
)
