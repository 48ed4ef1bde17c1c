package keeper

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
)

func TestLoadFromSeed(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	seedHex := hex.EncodeToString(priv.Seed())

	k, err := Load("ROOCH", "0x"+seedHex)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if k.PublicKey().Equal(pub) == false {
		t.Fatalf("expected derived public key to match generated key")
	}
}

func TestLoadRejectsBadLength(t *testing.T) {
	if _, err := Load("ROOCH", "0xabcd"); err == nil {
		t.Fatalf("expected an error for an undersized key")
	}
}

func TestSignVerifiesWithPublicKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	k, err := Load("ROOCH", hex.EncodeToString(priv.Seed()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	msg := []byte("fulfil_request")
	sig := k.Sign(msg)
	if !ed25519.Verify(k.PublicKey(), msg, sig) {
		t.Fatalf("expected signature to verify")
	}
}

func TestAddressDerivationIsDeterministic(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	k, err := Load("APTOS", hex.EncodeToString(priv.Seed()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	a1 := AptosStyleAddress(k.PublicKey())
	a2 := AptosStyleAddress(k.PublicKey())
	if a1 != a2 {
		t.Fatalf("expected address derivation to be deterministic")
	}
	if len(a1) != len("0x")+64 {
		t.Fatalf("expected a 32-byte hex address, got %q", a1)
	}
}
