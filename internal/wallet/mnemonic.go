// Package wallet derives the keys that receive coinbase rewards: BIP-39
// mnemonics, BIP-32 keys along the BIP-44 Bitcoin path, and an encrypted
// on-disk keystore for the seed.
package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// Mnemonic entropy sizes.
const (
	MnemonicEntropyBits  = 256 // 24 words
	ShortMnemonicEntropy = 128 // 12 words
)

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	return generateMnemonic(MnemonicEntropyBits)
}

// GenerateShortMnemonic creates a new 12-word BIP-39 mnemonic.
func GenerateShortMnemonic() (string, error) {
	return generateMnemonic(ShortMnemonicEntropy)
}

func generateMnemonic(bits int) (string, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic lowercases a mnemonic and collapses its whitespace.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

// ValidateMnemonic reports whether mnemonic has a valid word count, words
// and checksum.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}
