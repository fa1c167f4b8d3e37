// Package signing implements the HMAC-SHA256 request-signing schemes
// spec.md §4.8 describes for Bybit V5 and Bitget V2, generalized from
// the teacher's clob/signing/hmac.go HMAC+base64 pattern.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// BybitRecvWindow is the fixed recv_window spec.md §4.8 specifies.
const BybitRecvWindow = "10000"

// BybitHeaders is the header set a Bybit V5 authenticated request must
// carry.
type BybitHeaders struct {
	ApiKey     string
	Sign       string
	SignType   string
	Timestamp  string
	RecvWindow string
}

// SignBybit computes X-BAPI-SIGN = hex(HMAC_SHA256(secret, timestamp ||
// api_key || recv_window || body)) and returns the full header set.
func SignBybit(apiKey, apiSecret string, timestampMs int64, body string) BybitHeaders {
	ts := strconv.FormatInt(timestampMs, 10)
	payload := ts + apiKey + BybitRecvWindow + body

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(payload))
	sign := hex.EncodeToString(mac.Sum(nil))

	return BybitHeaders{
		ApiKey:     apiKey,
		Sign:       sign,
		SignType:   "2",
		Timestamp:  ts,
		RecvWindow: BybitRecvWindow,
	}
}

// ToHTTPHeaders renders h as the literal header map §4.8 specifies.
func (h BybitHeaders) ToHTTPHeaders() map[string]string {
	return map[string]string{
		"X-BAPI-API-KEY":      h.ApiKey,
		"X-BAPI-SIGN":         h.Sign,
		"X-BAPI-SIGN-TYPE":    h.SignType,
		"X-BAPI-TIMESTAMP":    h.Timestamp,
		"X-BAPI-RECV-WINDOW":  h.RecvWindow,
		"Content-Type":        "application/json",
	}
}
