// Package config defines and loads the per-venue configuration surface
// described in spec.md §6, as a single YAML document with one optional
// section per connector and per cross-cutting policy.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SymbolConfig is one entry of a venue's `symbols` list.
type SymbolConfig struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Depth int    `yaml:"depth"`
}

// BybitConfig matches spec.md §6's Bybit row.
type BybitConfig struct {
	PublicEndpoint   string         `yaml:"public_endpoint"`
	PrivateEndpoint  string         `yaml:"private_endpoint"`
	Symbols          []SymbolConfig `yaml:"symbols"`
	ReconnectDelayMs int            `yaml:"reconnect_delay_ms"`
	ApiKey           string         `yaml:"api_key"`
	ApiSecret        string         `yaml:"api_secret"`
	EnablePrivate    bool           `yaml:"enable_private"`
}

// BitgetConfig matches spec.md §6's Bitget row.
type BitgetConfig struct {
	PublicEndpoint   string         `yaml:"public_endpoint"`
	PrivateEndpoint  string         `yaml:"private_endpoint"`
	Symbols          []SymbolConfig `yaml:"symbols"`
	ReconnectDelayMs int            `yaml:"reconnect_delay_ms"`
	ApiKey           string         `yaml:"api_key"`
	ApiSecret        string         `yaml:"api_secret"`
	Passphrase       string         `yaml:"passphrase"`
	EnablePrivate    bool           `yaml:"enable_private"`
	ProductType      string         `yaml:"product_type"` // mix API productType, e.g. "USDT-FUTURES"
	MarginMode       string         `yaml:"margin_mode"`  // e.g. "crossed", "isolated"
	MarginCoin       string         `yaml:"margin_coin"`  // e.g. "USDT"
	ForcePolicy      string         `yaml:"force_policy"` // time-in-force, e.g. "gtc"
}

// HyperliquidConfig matches spec.md §6's Hyperliquid row.
type HyperliquidConfig struct {
	WsEndpoint       string   `yaml:"ws_endpoint"`
	RestEndpoint     string   `yaml:"rest_endpoint"`
	Symbols          []string `yaml:"symbols"`
	ReconnectDelayMs int      `yaml:"reconnect_delay_ms"`
	PrivateKey       string   `yaml:"private_key"`
	AccountAddress   string   `yaml:"account_address"`
	VaultAddress     string   `yaml:"vault_address"`
	Mainnet          bool     `yaml:"mainnet"`
	SignerSocketPath string   `yaml:"signer_socket_path"` // default: /dev/shm/hl_sign.sock
	SignerTCPAddr    string   `yaml:"signer_tcp_addr"`    // fallback, default: 127.0.0.1:19847
}

// PolymarketConfig matches spec.md §6's Polymarket row.
type PolymarketConfig struct {
	WsEndpoint       string   `yaml:"ws_endpoint"`
	RestEndpoint     string   `yaml:"rest_endpoint"`
	PrivateKey       string   `yaml:"private_key"`
	FunderWallet     string   `yaml:"funder_wallet"`
	TokenIds         []string `yaml:"token_ids"`
	ReconnectDelayMs int      `yaml:"reconnect_delay_ms"`
	PingIntervalSec  int      `yaml:"ping_interval_sec"`
}

// RateLimitPolicy selects what submit_order/cancel_order/replace_order
// do when the token bucket is exhausted.
type RateLimitPolicy string

const (
	RateLimitReject   RateLimitPolicy = "reject"
	RateLimitWait     RateLimitPolicy = "wait"
	RateLimitCallback RateLimitPolicy = "callback"
)

// RateLimitConfig matches spec.md §6's RateLimit row.
type RateLimitConfig struct {
	Capacity   uint32          `yaml:"capacity"`
	RefillRate uint32          `yaml:"refill_rate"`
	Policy     RateLimitPolicy `yaml:"policy"`
}

// TimeoutPolicy selects what the reaper does with an expired PendingOp.
type TimeoutPolicy string

const (
	TimeoutLogOnly  TimeoutPolicy = "log_only"
	TimeoutReject   TimeoutPolicy = "reject"
	TimeoutCallback TimeoutPolicy = "callback"
	TimeoutReconcile TimeoutPolicy = "reconcile"
)

// TimeoutConfig matches spec.md §6's Timeout row.
type TimeoutConfig struct {
	SubmitTimeoutMs  int           `yaml:"submit_timeout_ms"`
	CancelTimeoutMs  int           `yaml:"cancel_timeout_ms"`
	ReplaceTimeoutMs int           `yaml:"replace_timeout_ms"`
	CheckIntervalMs  int           `yaml:"check_interval_ms"`
	Policy           TimeoutPolicy `yaml:"policy"`
}

// HTTPPoolConfig matches spec.md §6's HTTP pool row.
type HTTPPoolConfig struct {
	InitialSize      int `yaml:"initial_size"`
	MaxSize          int `yaml:"max_size"`
	AcquireTimeoutMs int `yaml:"acquire_timeout_ms"`
	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
}

// LoggingConfig configures pkg/logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Root is the top-level document: every venue section is optional, and
// an absent section leaves that connector disabled.
type Root struct {
	Logging      LoggingConfig      `yaml:"logging"`
	Bybit        *BybitConfig       `yaml:"bybit"`
	Bitget       *BitgetConfig      `yaml:"bitget"`
	Hyperliquid  *HyperliquidConfig `yaml:"hyperliquid"`
	Polymarket   *PolymarketConfig  `yaml:"polymarket"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Timeout      TimeoutConfig      `yaml:"timeout"`
	HTTPPool     HTTPPoolConfig     `yaml:"http_pool"`
}

// Load reads and parses the single YAML document at path.
func Load(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	var root Root
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

// Validate surfaces "config invalid" errors (spec.md §7) before a
// connector attempts to start against a malformed section.
func (r *Root) Validate() error {
	if r.Bybit != nil {
		if r.Bybit.PublicEndpoint == "" {
			return errors.New("config: bybit.public_endpoint required")
		}
		if r.Bybit.EnablePrivate && (r.Bybit.ApiKey == "" || r.Bybit.ApiSecret == "") {
			return errors.New("config: bybit.enable_private requires api_key and api_secret")
		}
	}
	if r.Bitget != nil {
		if r.Bitget.PublicEndpoint == "" {
			return errors.New("config: bitget.public_endpoint required")
		}
		if r.Bitget.EnablePrivate && (r.Bitget.ApiKey == "" || r.Bitget.ApiSecret == "" || r.Bitget.Passphrase == "") {
			return errors.New("config: bitget.enable_private requires api_key, api_secret, passphrase")
		}
	}
	if r.Hyperliquid != nil && r.Hyperliquid.WsEndpoint == "" {
		return errors.New("config: hyperliquid.ws_endpoint required")
	}
	if r.Polymarket != nil && r.Polymarket.RestEndpoint == "" {
		return errors.New("config: polymarket.rest_endpoint required")
	}
	if r.HTTPPool.MaxSize > 0 && r.HTTPPool.InitialSize > r.HTTPPool.MaxSize {
		return errors.New("config: http_pool.initial_size exceeds max_size")
	}
	return nil
}
