// Package polymarketffi wraps the narrow C ABI described by
// polymarket_ffi.h. Polymarket's order engine runs out-of-process
// logic (CLOB authentication, EIP-712 order signing) behind a Rust
// cdylib; this package is the Go side of that boundary, called
// directly rather than over a socket.
package polymarketffi

/*
#cgo LDFLAGS: -lpolymarket_ffi
#include <stdint.h>
#include <stdbool.h>
#include <stdlib.h>

typedef struct {
	bool success;
	int64_t filled_qty_raw;
	int64_t avg_price_raw;
	uint64_t latency_ms;
	int32_t error_code;
	char order_id[128];
} PolymarketOrderResult;

extern int32_t polymarket_init(const char* private_key, const char* funder_wallet);
extern int32_t polymarket_warmup(void);
extern int32_t polymarket_prefetch(const char* token_id);
extern PolymarketOrderResult polymarket_market_buy(const char* token_id, double usdc_amount);
extern PolymarketOrderResult polymarket_market_sell(const char* token_id, double size);
extern PolymarketOrderResult polymarket_limit_buy(const char* token_id, double price, double usdc_amount);
extern PolymarketOrderResult polymarket_limit_sell(const char* token_id, double price, double size);
extern int32_t polymarket_cancel(const char* order_id);
extern int32_t polymarket_cancel_all(void);
extern int64_t polymarket_get_balance(void);
extern int64_t polymarket_get_token_balance(const char* token_id);
extern void polymarket_shutdown(void);
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/flox-foundation/flox-connectors/internal/numeric"
)

// Error codes mirror polymarket_ffi.h exactly; callers switch on these
// rather than parsing error strings.
const (
	OK                = 0
	ErrNotInitialized = -1
	ErrInvalidPK      = -2
	ErrAuthFailed     = -3
	ErrInvalidToken   = -4
	ErrOrderFailed    = -5
	ErrCancelFailed   = -6
	ErrMinOrderSize   = -7
	ErrMinShares      = -8
)

// DecimalScale is the FFI boundary's raw fixed-point scale (USDC and
// Polymarket shares both use 6 decimals). ScaleFactor converts a raw
// FFI value onto the engine's 8-decimal numeric.Scale by
// multiplication, per spec.md §4.10.
const DecimalScale = 1_000_000
const ScaleFactor = numeric.Scale / DecimalScale

// ErrorMessage renders one of the POLYMARKET_ERR_* codes as text, for
// logging.
func ErrorMessage(code int32) string {
	switch code {
	case OK:
		return "OK"
	case ErrNotInitialized:
		return "executor not initialized"
	case ErrInvalidPK:
		return "invalid private key"
	case ErrAuthFailed:
		return "authentication failed"
	case ErrInvalidToken:
		return "invalid token id"
	case ErrOrderFailed:
		return "order failed (check API response)"
	case ErrCancelFailed:
		return "cancel failed"
	case ErrMinOrderSize:
		return "order size below minimum ($1)"
	case ErrMinShares:
		return "shares below market minimum (call prefetch first)"
	default:
		return fmt.Sprintf("unknown error (%d)", code)
	}
}

// OrderResult is the Go-side projection of C.PolymarketOrderResult,
// with raw i64 fields converted onto numeric.Price/Quantity.
type OrderResult struct {
	Success   bool
	FilledQty numeric.Quantity
	AvgPrice  numeric.Price
	LatencyMs uint64
	ErrorCode int32
	OrderId   string
}

func fromCResult(r C.PolymarketOrderResult) OrderResult {
	return OrderResult{
		Success:   bool(r.success),
		FilledQty: numeric.QuantityFromRaw(int64(r.filled_qty_raw) * ScaleFactor),
		AvgPrice:  numeric.PriceFromRaw(int64(r.avg_price_raw) * ScaleFactor),
		LatencyMs: uint64(r.latency_ms),
		ErrorCode: int32(r.error_code),
		OrderId:   C.GoString(&r.order_id[0]),
	}
}

// Init authenticates against the CLOB using private_key, acting on
// behalf of funder_wallet (the proxy wallet holding USDC allowance).
// Safe to call again after Shutdown.
func Init(privateKey, funderWallet string) error {
	cpk := C.CString(privateKey)
	defer C.free(unsafe.Pointer(cpk))
	cfw := C.CString(funderWallet)
	defer C.free(unsafe.Pointer(cfw))

	code := int32(C.polymarket_init(cpk, cfw))
	if code != OK {
		return fmt.Errorf("polymarketffi: init: %s", ErrorMessage(code))
	}
	return nil
}

// Warmup pre-establishes the TLS connection pool; best-effort.
func Warmup() error {
	code := int32(C.polymarket_warmup())
	if code != OK {
		return fmt.Errorf("polymarketffi: warmup: %s", ErrorMessage(code))
	}
	return nil
}

// Prefetch caches tick size, fee rate and minimum order size for
// tokenId, avoiding an extra round trip during order submission.
func Prefetch(tokenId string) error {
	ctok := C.CString(tokenId)
	defer C.free(unsafe.Pointer(ctok))

	code := int32(C.polymarket_prefetch(ctok))
	if code != OK {
		return fmt.Errorf("polymarketffi: prefetch %s: %s", tokenId, ErrorMessage(code))
	}
	return nil
}

// MarketBuy sweeps the book (FAK) spending usdcAmount of USDC.
func MarketBuy(tokenId string, usdcAmount numeric.Volume) OrderResult {
	ctok := C.CString(tokenId)
	defer C.free(unsafe.Pointer(ctok))

	r := C.polymarket_market_buy(ctok, C.double(usdcAmount.ToDouble()))
	return fromCResult(r)
}

// MarketSell sweeps the book (FAK) selling size shares.
func MarketSell(tokenId string, size numeric.Quantity) OrderResult {
	ctok := C.CString(tokenId)
	defer C.free(unsafe.Pointer(ctok))

	r := C.polymarket_market_sell(ctok, C.double(size.ToDouble()))
	return fromCResult(r)
}

// LimitBuy places a GTC limit buy spending usdcAmount of USDC at price.
func LimitBuy(tokenId string, price numeric.Price, usdcAmount numeric.Volume) OrderResult {
	ctok := C.CString(tokenId)
	defer C.free(unsafe.Pointer(ctok))

	r := C.polymarket_limit_buy(ctok, C.double(price.ToDouble()), C.double(usdcAmount.ToDouble()))
	return fromCResult(r)
}

// LimitSell places a GTC limit sell of size shares at price.
func LimitSell(tokenId string, price numeric.Price, size numeric.Quantity) OrderResult {
	ctok := C.CString(tokenId)
	defer C.free(unsafe.Pointer(ctok))

	r := C.polymarket_limit_sell(ctok, C.double(price.ToDouble()), C.double(size.ToDouble()))
	return fromCResult(r)
}

// Cancel cancels one open order by its exchange order id.
func Cancel(orderId string) error {
	cid := C.CString(orderId)
	defer C.free(unsafe.Pointer(cid))

	code := int32(C.polymarket_cancel(cid))
	if code != OK {
		return fmt.Errorf("polymarketffi: cancel %s: %s", orderId, ErrorMessage(code))
	}
	return nil
}

// CancelAll cancels every open order for the authenticated account.
func CancelAll() error {
	code := int32(C.polymarket_cancel_all())
	if code != OK {
		return fmt.Errorf("polymarketffi: cancel_all: %s", ErrorMessage(code))
	}
	return nil
}

// GetBalance returns the authenticated account's free USDC balance.
// Returns zero (not an error) when the underlying call fails, mirroring
// the reference wrapper's "negative raw -> zero" convention.
func GetBalance() numeric.Volume {
	raw := int64(C.polymarket_get_balance())
	if raw < 0 {
		return numeric.VolumeFromRaw(0)
	}
	return numeric.VolumeFromRaw(raw * ScaleFactor)
}

// GetTokenBalance returns the authenticated account's share balance
// for tokenId.
func GetTokenBalance(tokenId string) numeric.Quantity {
	ctok := C.CString(tokenId)
	defer C.free(unsafe.Pointer(ctok))

	raw := int64(C.polymarket_get_token_balance(ctok))
	if raw < 0 {
		return numeric.QuantityFromRaw(0)
	}
	return numeric.QuantityFromRaw(raw * ScaleFactor)
}

// Shutdown tears down the executor; Init may be called again afterward.
func Shutdown() {
	C.polymarket_shutdown()
}
