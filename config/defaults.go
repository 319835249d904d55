package config

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/types"
)

// Amount units.
const (
	Decimals = 8
	Coin     = 100_000_000 // satoshis per coin
)

// DefaultCoinbaseReward is the subsidy of the first halving era.
const DefaultCoinbaseReward = 50 * Coin

// Params are the fixed wire parameters of a network.
type Params struct {
	Name           NetworkType
	Magic          uint32
	AddressVersion byte
	PowLimit       *big.Int // highest target a block may declare
}

var networkParams = map[NetworkType]Params{
	Mainnet: {
		Name:           Mainnet,
		Magic:          block.MainnetMagic,
		AddressVersion: types.MainnetAddressVersion,
		PowLimit:       chaincfg.MainNetParams.PowLimit,
	},
	Testnet: {
		Name:           Testnet,
		Magic:          block.TestnetMagic,
		AddressVersion: types.TestnetAddressVersion,
		PowLimit:       chaincfg.TestNet3Params.PowLimit,
	},
	Regtest: {
		Name:           Regtest,
		Magic:          block.RegtestMagic,
		AddressVersion: types.TestnetAddressVersion,
		PowLimit:       chaincfg.RegressionNetParams.PowLimit,
	},
}

// ParamsFor returns the parameters of network. ok is false for an
// unknown network.
func ParamsFor(network NetworkType) (Params, bool) {
	p, ok := networkParams[network]
	return p, ok
}

// Params returns the parameters of the configured network, falling back
// to mainnet.
func (c *Config) Params() Params {
	if p, ok := ParamsFor(c.Network); ok {
		return p
	}
	return networkParams[Mainnet]
}

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		DB: DBConfig{
			Backend: storage.BackendBadger,
		},
		Chain: ChainConfig{
			StrictInputs: false,
			ProofOfWork:  true,
		},
		Coinbase: CoinbaseConfig{
			Reward: DefaultCoinbaseReward,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	return cfg
}

// DefaultRegtest returns the default configuration for regtest. Regtest
// chains start at genesis, so inputs are checked strictly. Blocks built
// by the mine command carry no proof of work, so the check is off.
func DefaultRegtest() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Regtest
	cfg.Chain.StrictInputs = true
	cfg.Chain.ProofOfWork = false
	cfg.Log.Level = "debug"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Regtest:
		return DefaultRegtest()
	default:
		return DefaultMainnet()
	}
}
