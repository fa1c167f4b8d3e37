package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
)

// BitgetHeaders is the header set a Bitget V2 authenticated request (or
// a "GET/user/verify" websocket login) must carry.
type BitgetHeaders struct {
	AccessKey  string
	Sign       string
	Timestamp  string
	Passphrase string
}

// SignBitget computes ACCESS-SIGN = base64(HMAC_SHA256(secret,
// timestamp_ms || method || path || body)), per spec.md §4.8. method is
// the HTTP verb ("POST", "GET") exactly as it appears on the wire; the
// websocket login reuses this with method "GET" and path
// "/user/verify".
func SignBitget(apiKey, apiSecret, passphrase string, timestampMs int64, method, path, body string) BitgetHeaders {
	ts := strconv.FormatInt(timestampMs, 10)
	payload := ts + method + path + body

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(payload))
	sign := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return BitgetHeaders{
		AccessKey:  apiKey,
		Sign:       sign,
		Timestamp:  ts,
		Passphrase: passphrase,
	}
}

// ToHTTPHeaders renders h as the literal header map §4.8 specifies.
func (h BitgetHeaders) ToHTTPHeaders() map[string]string {
	return map[string]string{
		"ACCESS-KEY":        h.AccessKey,
		"ACCESS-SIGN":       h.Sign,
		"ACCESS-TIMESTAMP":  h.Timestamp,
		"ACCESS-PASSPHRASE": h.Passphrase,
		"Content-Type":      "application/json",
	}
}

// WSLoginArg is the single-element "args" payload a Bitget private
// websocket login frame carries.
type WSLoginArg struct {
	ApiKey     string `json:"apiKey"`
	Passphrase string `json:"passphrase"`
	Timestamp  string `json:"timestamp"`
	Sign       string `json:"sign"`
}

// SignBitgetWSLogin builds the login arg for a private websocket
// connection, reusing the REST signing scheme with method "GET" and
// path "/user/verify" as spec.md §4.8 specifies.
func SignBitgetWSLogin(apiKey, apiSecret, passphrase string, timestampMs int64) WSLoginArg {
	h := SignBitget(apiKey, apiSecret, passphrase, timestampMs, "GET", "/user/verify", "")
	return WSLoginArg{
		ApiKey:     apiKey,
		Passphrase: passphrase,
		Timestamp:  h.Timestamp,
		Sign:       h.Sign,
	}
}
