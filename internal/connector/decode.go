package connector

import (
	"strconv"
	"sync"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/numeric"
	"github.com/flox-foundation/flox-connectors/internal/ports"
)

// ParseLevel parses one (price_str, size_str) book level using the
// fixed-point safe decimal parser. spec.md §4.5 step 4: on failure the
// caller logs and skips the level, never the whole frame.
func ParseLevel(priceStr, sizeStr string) (model.PriceLevel, error) {
	price, err := numeric.PriceFromDecimalString(priceStr)
	if err != nil {
		return model.PriceLevel{}, err
	}
	qty, err := numeric.QuantityFromDecimalString(sizeStr)
	if err != nil {
		return model.PriceLevel{}, err
	}
	return model.PriceLevel{Price: price, Quantity: qty}, nil
}

// AppendLevel parses one level and appends it to dst on success,
// logging and dropping it on failure.
func AppendLevel(dst []model.PriceLevel, priceStr, sizeStr string, logger ports.Logger, side string) []model.PriceLevel {
	lvl, err := ParseLevel(priceStr, sizeStr)
	if err != nil {
		if logger != nil {
			logger.Warn("dropping malformed book level", "side", side, "price", priceStr, "size", sizeStr, "err", err)
		}
		return dst
	}
	return append(dst, lvl)
}

// IsBuySide reports whether a venue side code denotes a buy, per
// spec.md §4.5 step 6: "Buy"/"buy"/"B" -> true, else false.
func IsBuySide(side string) bool {
	return side == "Buy" || side == "buy" || side == "B"
}

// PoolExhaustionLogger rate-limits the "pool exhausted" warning to at
// most once per window, per spec.md §4.5 step 3 ("log warning at most
// one per exhaustion window").
type PoolExhaustionLogger struct {
	window time.Duration
	mu     sync.Mutex
	last   time.Time
	logger ports.Logger
}

// NewPoolExhaustionLogger builds a logger with the given window
// (defaults to one second when window <= 0).
func NewPoolExhaustionLogger(logger ports.Logger, window time.Duration) *PoolExhaustionLogger {
	if window <= 0 {
		window = time.Second
	}
	return &PoolExhaustionLogger{window: window, logger: logger}
}

// Warn logs "book pool exhausted, dropping frame" at most once per
// window.
func (p *PoolExhaustionLogger) Warn(exchange, symbol string) {
	if p.logger == nil {
		return
	}
	now := time.Now()
	p.mu.Lock()
	fire := now.Sub(p.last) >= p.window
	if fire {
		p.last = now
	}
	p.mu.Unlock()
	if fire {
		p.logger.Warn("book pool exhausted, dropping frame", "exchange", exchange, "symbol", symbol)
	}
}

// MonotonicNowNs returns the timestamp used for recv_ns/publish_ns:
// wall-clock Unix nanoseconds from time.Now(), not a monotonic clock
// reading, so it moves if the system clock is adjusted.
func MonotonicNowNs() int64 {
	return time.Now().UnixNano()
}

// NextClientOrderId mints the decimal-string client order id
// Bybit/Bitget use: the engine-supplied OrderId serialized as decimal
// (spec.md §4.9 "Client order id").
func NextClientOrderId(id model.OrderId) string {
	return strconv.FormatUint(uint64(id), 10)
}
