package keeper

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// AptosStyleAddress derives a 32-byte account address the way Aptos-family
// chains do: sha3-256 over the public key bytes followed by a single scheme
// byte (0x00 for an ed25519 single-signer account).
func AptosStyleAddress(pub []byte) string {
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{0x00})
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// SuiStyleAddress derives a 32-byte account address the way Sui-family
// chains do: blake2b-256 over a one-byte signature scheme flag (0x00 for
// ed25519) followed by the public key bytes.
func SuiStyleAddress(pub []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{0x00})
	h.Write(pub)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// RoochStyleAddress derives an address the way Rooch derives a native
// account from an ed25519 key: blake2b-256 over the public key bytes alone,
// matching Rooch's Move-native account address scheme.
func RoochStyleAddress(pub []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write(pub)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
