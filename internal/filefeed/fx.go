package filefeed

import (
	"github.com/driftbyte/skyvault/internal/filefeed/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("filefeed",
	fx.Provide(repository.Provide),
)
