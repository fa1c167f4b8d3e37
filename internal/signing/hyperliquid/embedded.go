package hyperliquid

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
)

// EmbeddedSigner signs in-process using go-ethereum's secp256k1
// implementation, for the test seam spec.md §9 calls out ("keep the
// out-of-process signer abstraction even if the new implementation
// embeds an EIP-712 library in-process"). It is not wired into any
// production connector path — production signing always goes through
// DaemonSigner — so its hash construction is a stand-in for the
// daemon's real EIP-712 action hash, sufficient to exercise the
// Signer interface end-to-end in tests without a running daemon.
type EmbeddedSigner struct{}

// Sign implements Signer.
func (EmbeddedSigner) Sign(p Params) (Signature, error) {
	key, err := crypto.HexToECDSA(trim0x(p.PrivateKeyHex))
	if err != nil {
		return Signature{}, fmt.Errorf("hyperliquid: invalid private key: %w", err)
	}

	msg := p.ActionJSON + ":" + strconv.FormatInt(p.NonceMs, 10)
	hash := crypto.Keccak256Hash([]byte(msg))

	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return Signature{}, err
	}

	r := "0x" + fmt.Sprintf("%064x", sig[:32])
	s := "0x" + fmt.Sprintf("%064x", sig[32:64])
	v := int(sig[64]) + 27

	return Signature{R: r, S: s, V: v}, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
