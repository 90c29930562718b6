package ledger

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"hivemint/internal/domain"
)

// GenerateKeypair generates a fresh ed25519 key pair, base58-encoded.
func GenerateKeypair() (domain.Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.Keypair{}, fmt.Errorf("generate keypair: %w", err)
	}

	return domain.Keypair{
		PublicKey:  base58.Encode(pub),
		PrivateKey: base58.Encode(priv),
	}, nil
}

// ValidateKey checks base58-encoded ed25519 private key material without
// touching the network: correct length and an embedded public key that is a
// valid curve point. Catching corrupt key material here avoids a wasted
// gateway round trip that the ledger would reject anyway.
func ValidateKey(key string) error {
	raw, err := base58.Decode(key)
	if err != nil {
		return fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return fmt.Errorf("key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	if !isOnCurve(raw[ed25519.PrivateKeySize-ed25519.PublicKeySize:]) {
		return fmt.Errorf("embedded public key is not a valid curve point")
	}
	return nil
}

// SignPayload signs msg with a base58-encoded ed25519 private key and
// returns the base58-encoded signature.
func SignPayload(privateKey string, msg []byte) (string, error) {
	if err := ValidateKey(privateKey); err != nil {
		return "", err
	}

	raw, _ := base58.Decode(privateKey)
	sig := ed25519.Sign(ed25519.PrivateKey(raw), msg)
	return base58.Encode(sig), nil
}

// PublicKeyOf derives the base58 public key from a base58 private key.
func PublicKeyOf(privateKey string) (string, error) {
	if err := ValidateKey(privateKey); err != nil {
		return "", err
	}

	raw, _ := base58.Decode(privateKey)
	pub := ed25519.PrivateKey(raw).Public().(ed25519.PublicKey)
	return base58.Encode(pub), nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
