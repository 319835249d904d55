package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/kykchain/kyk/pkg/types"
)

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	key := secp256k1.PrivKeyFromBytes(b)
	return &PrivateKey{key: key}, nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// PublicKeyUncompressed returns the 65-byte uncompressed public key.
func (pk *PrivateKey) PublicKeyUncompressed() []byte {
	return pk.key.PubKey().SerializeUncompressed()
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// ValidatePubKey checks that b is a valid compressed or uncompressed
// secp256k1 public key.
func ValidatePubKey(b []byte) error {
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	return nil
}

// AddressFromPubKey derives the HASH160 address of a public key. The key
// is hashed in the encoding it was given, so compressed and uncompressed
// forms of the same point yield different addresses.
func AddressFromPubKey(pubKey []byte) (types.Address, error) {
	if err := ValidatePubKey(pubKey); err != nil {
		return types.Address{}, err
	}
	return Hash160(pubKey), nil
}

// P2PKHScript builds the pay-to-public-key-hash locking script for pubKey.
func P2PKHScript(pubKey []byte) (types.Script, error) {
	addr, err := AddressFromPubKey(pubKey)
	if err != nil {
		return nil, err
	}
	return types.P2PKHScript(addr), nil
}
