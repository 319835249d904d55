package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Version is the release reported by --version.
const Version = "0.1.0"

// Flags holds parsed global command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string
	EnvFile string

	// Storage
	DBBackend string

	// Ledger
	Strict bool
	PoW    bool

	// Coinbase
	CoinbaseNote   string
	CoinbaseReward uint64
	CoinbasePubKey string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args: the command and its arguments.
	Args []string

	// Explicitly-set flags (for true/false and zero overrides).
	SetStrict         bool
	SetPoW            bool
	SetLogJSON        bool
	SetCoinbaseReward bool
}

// ParseFlags parses the global flags in args, which excludes the program
// name. Parsing stops at the first non-flag argument, the command.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("kyk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	var testnet, regtest bool
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet, testnet or regtest)")
	fs.BoolVar(&testnet, "testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.BoolVar(&regtest, "regtest", false, "Use regtest (shorthand for --network=regtest)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")
	fs.StringVar(&f.EnvFile, "env", ".env", "Dotenv file with KYK_* settings")

	// Storage
	fs.StringVar(&f.DBBackend, "db", "", "Storage backend (badger, leveldb or memory)")

	// Ledger
	fs.BoolVar(&f.Strict, "strict", false, "Reject blocks spending unknown outputs")
	fs.BoolVar(&f.PoW, "pow", false, "Check block proof of work")

	// Coinbase
	fs.StringVar(&f.CoinbaseNote, "coinbase-note", "", "Note embedded in coinbase scripts")
	fs.Uint64Var(&f.CoinbaseReward, "coinbase-reward", 0, "Coinbase reward in satoshis")
	fs.StringVar(&f.CoinbasePubKey, "coinbase-pubkey", "", "Hex public key receiving the coinbase reward")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	switch {
	case testnet && regtest:
		return nil, fmt.Errorf("--testnet and --regtest are mutually exclusive")
	case testnet:
		f.Network = string(Testnet)
	case regtest:
		f.Network = string(Regtest)
	}
	f.SetStrict = isFlagSet(fs, "strict")
	f.SetPoW = isFlagSet(fs, "pow")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.SetCoinbaseReward = isFlagSet(fs, "coinbase-reward")

	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Storage
	if f.DBBackend != "" {
		cfg.DB.Backend = strings.ToLower(f.DBBackend)
	}

	// Ledger
	if f.SetStrict {
		cfg.Chain.StrictInputs = f.Strict
	}
	if f.SetPoW {
		cfg.Chain.ProofOfWork = f.PoW
	}

	// Coinbase
	if f.CoinbaseNote != "" {
		cfg.Coinbase.Note = f.CoinbaseNote
	}
	if f.SetCoinbaseReward {
		cfg.Coinbase.Reward = f.CoinbaseReward
	}
	if f.CoinbasePubKey != "" {
		cfg.Coinbase.PubKey = f.CoinbasePubKey
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the global usage text to w. commands lists the
// command summary of the calling program.
func PrintUsage(w io.Writer, commands string) {
	usage := `kyk - Bitcoin block, transaction and UTXO ledger tool

Usage:
  kyk [options] <command> [arguments]
  kyk --help

Commands:
` + commands + `
Core Options:
  --network       Network type: mainnet (default), testnet or regtest
  --testnet       Shorthand for --network=testnet
  --regtest       Shorthand for --network=regtest
  --datadir       Data directory (default: ~/.kyk)
  --config, -c    Config file path (default: <datadir>/kyk.conf)
  --env           Dotenv file with KYK_* settings (default: .env)

Storage Options:
  --db            Backend: badger (default), leveldb or memory

Ledger Options:
  --strict        Reject blocks spending outputs the ledger has not seen
  --pow           Check proof of work (default: on, off for regtest)

Coinbase Options:
  --coinbase-note     Note embedded in the coinbase script (max 92 bytes)
  --coinbase-reward   Reward in satoshis (default: 5000000000)
  --coinbase-pubkey   Hex public key receiving the reward

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: stderr only)
  --log-json      Output logs as JSON

Environment:
  Every config file key can be set as KYK_<KEY> with dots replaced by
  underscores, e.g. KYK_DB_BACKEND=leveldb or KYK_LOG_LEVEL=debug.
`
	fmt.Fprint(w, usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Dotenv file and KYK_* environment variables
// 5. Command-line flags
//
// Help and version requests are reported through the returned Flags and
// leave the Config nil.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	env, err := LoadEnv(flags.EnvFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading environment: %w", err)
	}

	// Determine network first (needed for defaults)
	network := NetworkType(strings.ToLower(flags.Network))
	if network == "" {
		network = NetworkType(strings.ToLower(env["network"]))
	}
	cfg := Default(network)

	if v := env["datadir"]; v != "" {
		cfg.DataDir = v
	}
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	// Auto-create data directories and default config on first start.
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, env); err != nil {
		return nil, nil, fmt.Errorf("applying environment: %w", err)
	}

	// Apply flags (highest precedence)
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. It is idempotent.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.ChainDataDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// Create default config if it doesn't exist.
	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
