// Package bybit implements the Bybit V5 connector: a public websocket
// decoder and an authenticated REST order executor, per
// spec.md §4 generalized from the teacher's connection-pooled HTTP
// client and reconnecting websocket patterns.
package bybit

import (
	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/model"
)

// category maps a configured instrument type to Bybit's V5 "category"
// query/body parameter.
func category(t model.InstrumentType) string {
	switch t {
	case model.InstrumentFuture:
		return "linear"
	case model.InstrumentInverse:
		return "inverse"
	case model.InstrumentOption:
		return "option"
	default:
		return "spot"
	}
}

// symbolDefaultType indexes config.BybitConfig.Symbols by name for the
// registry's resolve-symbol-id fallback (spec.md §4.5 step 3).
func symbolDefaultType(cfg config.BybitConfig, name string) model.InstrumentType {
	for _, s := range cfg.Symbols {
		if s.Name == name {
			switch s.Type {
			case "future", "linear":
				return model.InstrumentFuture
			case "inverse":
				return model.InstrumentInverse
			case "option":
				return model.InstrumentOption
			default:
				return model.InstrumentSpot
			}
		}
	}
	return model.InstrumentSpot
}
