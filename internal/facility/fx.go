package facility

import (
	"github.com/smallbiznis/tidybill/internal/facility/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("facility.repository",
	fx.Provide(repository.Provide),
)
