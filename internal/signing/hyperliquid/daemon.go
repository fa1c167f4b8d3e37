package hyperliquid

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DaemonHandshakeTimeout is the fixed 50ms budget hl_signer.cpp
// applies to the entire connect+send+recv handshake (spec.md §4.8).
const DaemonHandshakeTimeout = 50 * time.Millisecond

// DaemonSigner talks to the out-of-process EIP-712 signer over a
// length-prefixed framed protocol: connect, write a 4-byte big-endian
// length followed by the JSON request, read a 4-byte big-endian
// length followed by the JSON response.
type DaemonSigner struct {
	// SocketPath is the Unix domain socket to try first (typically
	// /dev/shm/hl_sign.sock). Empty disables the Unix attempt.
	SocketPath string
	// TCPAddr is the loopback fallback (typically 127.0.0.1:19847),
	// used only when SocketPath is empty or the Unix dial fails.
	TCPAddr string
	// Timeout overrides DaemonHandshakeTimeout when > 0.
	Timeout time.Duration
}

// NewDaemonSigner builds a signer using the given transport
// configuration; empty fields fall back to the documented defaults.
func NewDaemonSigner(socketPath, tcpAddr string) *DaemonSigner {
	if socketPath == "" {
		socketPath = "/dev/shm/hl_sign.sock"
	}
	if tcpAddr == "" {
		tcpAddr = "127.0.0.1:19847"
	}
	return &DaemonSigner{SocketPath: socketPath, TCPAddr: tcpAddr}
}

type daemonRequest struct {
	ActionJSON     string  `json:"action_json"`
	Nonce          int64   `json:"nonce"`
	IsMainnet      bool    `json:"is_mainnet"`
	PrivateKey     string  `json:"private_key"`
	ActivePool     *string `json:"active_pool"`
	ExpiresAfterMs *int64  `json:"expires_after"`
}

type daemonResponse struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

// Sign implements Signer by round-tripping req through the daemon.
func (d *DaemonSigner) Sign(p Params) (Signature, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DaemonHandshakeTimeout
	}

	deadline := time.Now().Add(timeout)
	conn, err := d.dial(deadline)
	if err != nil {
		return Signature{}, fmt.Errorf("hyperliquid: signer daemon unreachable: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return Signature{}, err
	}

	req := daemonRequest{
		ActionJSON:     p.ActionJSON,
		Nonce:          p.NonceMs,
		IsMainnet:      p.IsMainnet,
		PrivateKey:     p.PrivateKeyHex,
		ExpiresAfterMs: p.ExpiresAfterMs,
	}
	if p.ActivePoolJSON != "" {
		req.ActivePool = &p.ActivePoolJSON
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Signature{}, err
	}
	if err := writeFrame(conn, body); err != nil {
		return Signature{}, fmt.Errorf("hyperliquid: send request failed: %w", err)
	}

	respBody, err := readFrame(conn)
	if err != nil {
		return Signature{}, fmt.Errorf("hyperliquid: read response failed: %w", err)
	}

	var resp daemonResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return Signature{}, fmt.Errorf("hyperliquid: signer bad json: %s", respBody)
	}
	if resp.R == "" || resp.S == "" {
		return Signature{}, fmt.Errorf("hyperliquid: signer bad json: %s", respBody)
	}
	return Signature{R: resp.R, S: resp.S, V: resp.V}, nil
}

func (d *DaemonSigner) dial(deadline time.Time) (net.Conn, error) {
	dialer := net.Dialer{Deadline: deadline}
	if d.SocketPath != "" {
		if conn, err := dialer.Dial("unix", d.SocketPath); err == nil {
			return conn, nil
		}
	}
	if d.TCPAddr != "" {
		return dialer.Dial("tcp", d.TCPAddr)
	}
	return nil, fmt.Errorf("no signer transport configured")
}

func writeFrame(w io.Writer, body []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
