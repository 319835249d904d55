package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressSize is the length of an address hash in bytes.
const AddressSize = 20

// P2PKH address version bytes.
const (
	MainnetAddressVersion byte = 0x00
	TestnetAddressVersion byte = 0x6f
)

// activeVersion is the version byte used by String() and MarshalJSON().
// Set once at startup via SetAddressVersion(). Default is mainnet.
var activeVersion = MainnetAddressVersion

// SetAddressVersion sets the active P2PKH version byte (call once at startup).
func SetAddressVersion(v byte) {
	activeVersion = v
}

// GetAddressVersion returns the currently active P2PKH version byte.
func GetAddressVersion() byte {
	return activeVersion
}

// Address is a 160-bit public key hash, ripemd160(sha256(pubkey)).
type Address [AddressSize]byte

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the Base58Check address for the active network.
func (a Address) String() string {
	return a.Encode(activeVersion)
}

// Encode returns the Base58Check address under the given version byte.
func (a Address) Encode(version byte) string {
	return base58.CheckEncode(a[:], version)
}

// Hex returns the raw hex-encoded hash.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address hash as a byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// MarshalJSON encodes the address as a Base58Check string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a Base58Check string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, _, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes a Base58Check P2PKH address and returns the hash
// together with its version byte.
func ParseAddress(s string) (Address, byte, error) {
	if s == "" {
		return Address{}, 0, fmt.Errorf("empty address")
	}
	decoded, version, err := base58.CheckDecode(s)
	if err != nil {
		return Address{}, 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(decoded) != AddressSize {
		return Address{}, 0, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(decoded))
	}
	var a Address
	copy(a[:], decoded)
	return a, version, nil
}

// HexToAddress converts a raw hex string to an Address.
// Returns an error if the string is not exactly 40 hex characters.
func HexToAddress(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}
