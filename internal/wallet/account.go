package wallet

import (
	"fmt"

	"github.com/kykchain/kyk/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// Account is one derived receiving key.
type Account struct {
	Path    string
	Account uint32
	Change  uint32
	Index   uint32
	PubKey  []byte // compressed
	Address types.Address
}

// CoinTypeFor returns the BIP-44 coin type matching an address version.
func CoinTypeFor(addressVersion byte) uint32 {
	if addressVersion == types.MainnetAddressVersion {
		return CoinTypeBitcoin
	}
	return CoinTypeTestnet
}

// DeriveAccount derives the key at m/44'/coin'/account'/change/index from
// master and describes it.
func DeriveAccount(master *HDKey, coinType, account, change, index uint32) (*Account, *HDKey, error) {
	key, err := master.DeriveAddress(coinType, account, change, index)
	if err != nil {
		return nil, nil, err
	}
	return &Account{
		Path:    FormatPath(coinType, account, change, index),
		Account: account,
		Change:  change,
		Index:   index,
		PubKey:  key.PublicKeyBytes(),
		Address: key.Address(),
	}, key, nil
}

// FormatPath renders a BIP-44 path, e.g. m/44'/0'/0'/0/3.
func FormatPath(coinType, account, change, index uint32) string {
	return fmt.Sprintf("m/44'/%d'/%d'/%d/%d", coinType-bip32.FirstHardenedChild, account, change, index)
}

// Script returns the P2PKH locking script paying the account.
func (a *Account) Script() types.Script {
	return types.P2PKHScript(a.Address)
}
