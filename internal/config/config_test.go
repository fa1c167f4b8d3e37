package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadValidDocument(t *testing.T) {
	path := writeTemp(t, `
bybit:
  public_endpoint: wss://stream.bybit.com/v5/public/spot
  symbols:
    - { name: BTCUSDT, type: spot, depth: 50 }
rate_limit:
  capacity: 10
  refill_rate: 5
  policy: reject
http_pool:
  initial_size: 2
  max_size: 8
`)
	root, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, root.Bybit)
	require.Equal(t, "BTCUSDT", root.Bybit.Symbols[0].Name)
	require.Equal(t, RateLimitReject, root.RateLimit.Policy)
}

func TestLoadRejectsMissingBybitEndpoint(t *testing.T) {
	path := writeTemp(t, "bybit:\n  api_key: x\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsPrivateWithoutCredentials(t *testing.T) {
	path := writeTemp(t, `
bitget:
  public_endpoint: wss://ws.bitget.com/v2/ws/public
  enable_private: true
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInitialSizeOverMax(t *testing.T) {
	path := writeTemp(t, `
http_pool:
  initial_size: 10
  max_size: 2
`)
	_, err := Load(path)
	require.Error(t, err)
}
