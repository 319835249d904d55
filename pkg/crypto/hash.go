// Package crypto provides the hashing and key primitives used by kyk:
// double SHA-256 identities, HASH160 addresses and secp256k1 keys.
package crypto

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kykchain/kyk/pkg/types"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/ripemd160"
)

// Sha256 computes a single SHA-256 of data.
func Sha256(data []byte) types.Hash {
	return types.Hash(chainhash.HashH(data))
}

// DoubleHash computes SHA-256(SHA-256(data)) and returns the digest in
// the order it is produced. Callers that need a display-order identity
// reverse it.
func DoubleHash(data []byte) types.Hash {
	return types.Hash(chainhash.DoubleHashH(data))
}

// Hash160 computes RIPEMD-160(SHA-256(data)).
func Hash160(data []byte) types.Address {
	sha := chainhash.HashB(data)
	h := ripemd160.New()
	h.Write(sha)
	var out types.Address
	copy(out[:], h.Sum(nil))
	return out
}

// HashConcat double-hashes the concatenation of two digests. Used for
// building merkle trees.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return DoubleHash(buf[:])
}

// FastHash computes a BLAKE3-256 hash of data. It is used for local
// digests that never appear on the wire.
func FastHash(data []byte) types.Hash {
	return blake3.Sum256(data)
}
