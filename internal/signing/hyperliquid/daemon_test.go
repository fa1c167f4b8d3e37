package hyperliquid

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startFakeDaemon(t *testing.T, respond func(req daemonRequest) daemonResponse) string {
	t.Helper()
	ln, err := net.Listen("unix", t.TempDir()+"/hl_sign_test.sock")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var lenBuf [4]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		buf := make([]byte, n)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		var req daemonRequest
		if err := json.Unmarshal(buf, &req); err != nil {
			return
		}
		resp := respond(req)
		body, _ := json.Marshal(resp)
		_ = writeFrame(conn, body)
	}()

	return ln.Addr().String()
}

func TestDaemonSignerRoundTrip(t *testing.T) {
	addr := startFakeDaemon(t, func(req daemonRequest) daemonResponse {
		require.Equal(t, `{"a":1}`, req.ActionJSON)
		require.Equal(t, int64(42), req.Nonce)
		return daemonResponse{R: "0xaa", S: "0xbb", V: 27}
	})

	signer := &DaemonSigner{SocketPath: addr, Timeout: time.Second}
	sig, err := signer.Sign(Params{ActionJSON: `{"a":1}`, NonceMs: 42, PrivateKeyHex: "deadbeef"})
	require.NoError(t, err)
	require.Equal(t, Signature{R: "0xaa", S: "0xbb", V: 27}, sig)
}

func TestDaemonSignerFallsBackToTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var lenBuf [4]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		buf := make([]byte, n)
		io.ReadFull(conn, buf)
		resp := daemonResponse{R: "0x1", S: "0x2", V: 28}
		body, _ := json.Marshal(resp)
		writeFrame(conn, body)
	}()

	signer := &DaemonSigner{SocketPath: "/nonexistent/hl_sign.sock", TCPAddr: ln.Addr().String(), Timeout: time.Second}
	sig, err := signer.Sign(Params{ActionJSON: "{}", NonceMs: 1, PrivateKeyHex: "ab"})
	require.NoError(t, err)
	require.Equal(t, 28, sig.V)
}

func TestDaemonSignerTimesOutWhenUnreachable(t *testing.T) {
	signer := &DaemonSigner{SocketPath: "/nonexistent/hl_sign.sock", TCPAddr: "127.0.0.1:1", Timeout: 50 * time.Millisecond}
	_, err := signer.Sign(Params{ActionJSON: "{}", NonceMs: 1, PrivateKeyHex: "ab"})
	require.Error(t, err)
}

func TestEmbeddedSignerProducesSignature(t *testing.T) {
	s := EmbeddedSigner{}
	sig, err := s.Sign(Params{
		ActionJSON:    `{"a":1}`,
		NonceMs:       1700000000000,
		PrivateKeyHex: "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
		IsMainnet:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, sig.R)
	require.NotEmpty(t, sig.S)
}
