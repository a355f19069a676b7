package generate

import "go.uber.org/fx"

var Module = fx.Module("generate",
	fx.Provide(NewOrchestrator),
)
