// Package bitget implements the Bitget V2 connector: public/private
// websocket decoders (with the literal "ping"/"pong" heartbeat spec.md
// §4.6 describes) and an authenticated REST order executor.
package bitget

import (
	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/model"
)

// Origin is the Origin header Bitget's websocket gateway requires.
const Origin = "https://www.bitget.com"

// UserAgent is the Chrome-like string Bitget's gateway requires
// (spec.md §6).
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// PingInterval is the literal-"ping" heartbeat interval spec.md §4.6
// specifies for Bitget (both public and private sockets).
const PingInterval = 25

// subscribeBatchSize is the number of symbols per subscribe message
// spec.md §4.7 specifies for Bitget.
const subscribeBatchSize = 10

// wsInstType maps a configured instrument type to Bitget V2's
// websocket instType literal.
func wsInstType(t model.InstrumentType) string {
	switch t {
	case model.InstrumentFuture:
		return "USDT-FUTURES"
	case model.InstrumentInverse:
		return "COIN-FUTURES"
	case model.InstrumentOption:
		return "SUSDT-FUTURES"
	default:
		return "SPOT"
	}
}

// bookChannel maps a configured depth to Bitget's channel name.
func bookChannel(depth int) string {
	switch depth {
	case 1:
		return "books1"
	case 5:
		return "books5"
	case 15:
		return "books15"
	default:
		return "books"
	}
}

func symbolDefaultType(cfg config.BitgetConfig, name string) model.InstrumentType {
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
