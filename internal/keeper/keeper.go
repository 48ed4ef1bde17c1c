// Package keeper loads and derives the orchestrator's per-chain keypairs.
// The private key is loaded once at start and used to derive the
// orchestrator address that appears as the `oracle` field of requests this
// instance is authorised to serve.
package keeper

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
)

// Keeper wraps a loaded ed25519 keypair and exposes chain-specific signing
// and address derivation.
type Keeper struct {
	Chain      string
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// Load derives a keypair from a hex-encoded ed25519 seed or private key.
// Accepts either the 32-byte seed or the 64-byte expanded private key, both
// optionally 0x-prefixed.
func Load(chain, privateKeyHex string) (*Keeper, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("private key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}

	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("derive public key: unexpected key type")
	}

	return &Keeper{Chain: chain, privateKey: priv, publicKey: pub}, nil
}

// Sign signs data with the keeper's private key.
func (k *Keeper) Sign(data []byte) []byte {
	return ed25519.Sign(k.privateKey, data)
}

// PublicKey returns the raw ed25519 public key.
func (k *Keeper) PublicKey() ed25519.PublicKey {
	return k.publicKey
}
