package wallet

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/kykchain/kyk/pkg/wire"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption constants.
const (
	SaltSize = 32

	// sealVersion tags the sealed format:
	// version(1) | salt(32) | memory(4) | iterations(4) | parallelism(1) |
	// nonce(24) | ciphertext. Integers are little-endian.
	sealVersion = 1
	headerSize  = 1 + SaltSize + 4 + 4 + 1
)

// Decryption errors.
var (
	ErrBadSealedData = errors.New("malformed encrypted data")
	ErrWrongPassword = errors.New("wrong password or corrupted data")
)

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the Argon2id parameters used for new keystores.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: 4,
	}
}

// deriveKey stretches password into a 32-byte XChaCha20 key.
func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Encrypt seals data under password with Argon2id and
// XChaCha20-Poly1305. The header is bound to the ciphertext as
// additional data.
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	if params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("argon2 iterations and parallelism must be positive")
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	out := make([]byte, headerSize+len(nonce), headerSize+len(nonce)+len(data)+aead.Overhead())
	w := wire.NewWriter(out)
	w.Uint8(sealVersion)
	w.Bytes(salt)
	w.Uint32(params.Memory)
	w.Uint32(params.Iterations)
	w.Uint8(params.Parallelism)
	w.Bytes(nonce)
	if err := w.Err(); err != nil {
		panic(fmt.Sprintf("seal header: %v", err))
	}
	header := append([]byte(nil), out[:headerSize]...)
	return aead.Seal(out, nonce, data, header), nil
}

// Decrypt opens data sealed by Encrypt.
func Decrypt(sealed, password []byte) ([]byte, error) {
	r := wire.NewReader(sealed)
	version, err := r.Uint8("version")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSealedData, err)
	}
	if version != sealVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSealedData, version)
	}

	var params EncryptionParams
	salt, err := r.Bytes(SaltSize, "salt")
	if err == nil {
		params.Memory, err = r.Uint32("memory")
	}
	if err == nil {
		params.Iterations, err = r.Uint32("iterations")
	}
	if err == nil {
		params.Parallelism, err = r.Uint8("parallelism")
	}
	var nonce []byte
	if err == nil {
		nonce, err = r.Bytes(chacha20poly1305.NonceSizeX, "nonce")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSealedData, err)
	}
	if params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("%w: bad argon2 params", ErrBadSealedData)
	}
	if r.Remaining() < chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrBadSealedData)
	}

	key := deriveKey(password, salt, params)
	defer zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, sealed[r.Offset():], sealed[:headerSize])
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}
