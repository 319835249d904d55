package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/types"
)

const testPubKey = "04c4ae8574bd6a8a89af1fad3a945b14f6745cc998f544ab193ffc568b33598f21" +
	"91dd06dd37c3b971f6f8452e84d86bcb82c29d7fb8787723ca08216a24051af3"

func TestDefault(t *testing.T) {
	tests := []struct {
		network NetworkType
		magic   uint32
		version byte
		strict  bool
		pow     bool
	}{
		{Mainnet, block.MainnetMagic, types.MainnetAddressVersion, false, true},
		{Testnet, block.TestnetMagic, types.TestnetAddressVersion, false, true},
		{Regtest, block.RegtestMagic, types.TestnetAddressVersion, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.network), func(t *testing.T) {
			cfg := Default(tt.network)
			if cfg.Network != tt.network {
				t.Errorf("Network = %s, want %s", cfg.Network, tt.network)
			}
			p := cfg.Params()
			if p.Magic != tt.magic || p.AddressVersion != tt.version {
				t.Errorf("Params() = %+v", p)
			}
			if cfg.Chain.StrictInputs != tt.strict {
				t.Errorf("StrictInputs = %v, want %v", cfg.Chain.StrictInputs, tt.strict)
			}
			if cfg.Chain.ProofOfWork != tt.pow {
				t.Errorf("ProofOfWork = %v, want %v", cfg.Chain.ProofOfWork, tt.pow)
			}
			if p.PowLimit == nil || p.PowLimit.Sign() <= 0 {
				t.Errorf("PowLimit = %v", p.PowLimit)
			}
			if err := Validate(cfg); err != nil {
				t.Errorf("Validate(default) error: %v", err)
			}
		})
	}
}

func TestParamsFor_Unknown(t *testing.T) {
	if _, ok := ParamsFor("signet"); ok {
		t.Error("ParamsFor() should reject unknown networks")
	}
	cfg := &Config{Network: "signet"}
	if cfg.Params().Magic != block.MainnetMagic {
		t.Error("Params() should fall back to mainnet")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kyk.conf")
	content := `# comment
network = testnet
db.backend = "leveldb"
coinbase.note = 'hello world'
chain.pow = off
log.json = yes
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig() error: %v", err)
	}
	if cfg.Network != Testnet || cfg.DB.Backend != "leveldb" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Coinbase.Note != "hello world" {
		t.Errorf("Note = %q, quotes not stripped", cfg.Coinbase.Note)
	}
	if !cfg.Log.JSON {
		t.Error("log.json = yes not applied")
	}
	if cfg.Chain.ProofOfWork {
		t.Error("chain.pow = off not applied")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "absent.conf"))
	if err != nil {
		t.Fatalf("LoadFile() missing file error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("LoadFile() = %v, want empty", values)
	}
}

func TestLoadFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kyk.conf")
	os.WriteFile(path, []byte("network testnet\n"), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should reject a line without '='")
	}
}

func TestApplyFileConfig_BadReward(t *testing.T) {
	cfg := DefaultMainnet()
	err := ApplyFileConfig(cfg, map[string]string{"coinbase.reward": "lots"})
	if err == nil || !strings.Contains(err.Error(), "coinbase.reward") {
		t.Errorf("ApplyFileConfig() = %v, want coinbase.reward error", err)
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "KYK_DB_BACKEND=memory\nKYK_LOG_LEVEL=warn\nOTHER_VAR=ignored\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KYK_LOG_LEVEL", "debug")
	t.Setenv("KYK_COINBASE_PUBKEY", testPubKey)

	values, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("LoadEnv() error: %v", err)
	}
	want := map[string]string{
		"db.backend":      "memory",
		"log.level":       "debug",
		"coinbase.pubkey": testPubKey,
	}
	for k, v := range want {
		if values[k] != v {
			t.Errorf("values[%s] = %q, want %q", k, values[k], v)
		}
	}
	if _, ok := values["other.var"]; ok {
		t.Error("variables without the prefix should be ignored")
	}
}

func TestLoadEnv_MissingFile(t *testing.T) {
	if _, err := LoadEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("LoadEnv() missing file error: %v", err)
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{
		"--regtest", "--db=leveldb", "--strict=false", "--pow",
		"--coinbase-reward", "0", "--log-json",
		"import", "--dump", "blocks.dat",
	})
	if err != nil {
		t.Fatalf("ParseFlags() error: %v", err)
	}
	if f.Network != string(Regtest) {
		t.Errorf("Network = %q, want regtest", f.Network)
	}
	if got := strings.Join(f.Args, " "); got != "import --dump blocks.dat" {
		t.Errorf("Args = %q", got)
	}

	cfg := DefaultRegtest()
	ApplyFlags(cfg, f)
	if cfg.DB.Backend != "leveldb" {
		t.Errorf("Backend = %q", cfg.DB.Backend)
	}
	if cfg.Chain.StrictInputs {
		t.Error("--strict=false should override the regtest default")
	}
	if !cfg.Chain.ProofOfWork {
		t.Error("--pow should override the regtest default")
	}
	if cfg.Coinbase.Reward != 0 {
		t.Errorf("explicit zero reward not applied: %d", cfg.Coinbase.Reward)
	}
	if !cfg.Log.JSON {
		t.Error("--log-json not applied")
	}
}

func TestParseFlags_Errors(t *testing.T) {
	if _, err := ParseFlags([]string{"--testnet", "--regtest"}); err == nil {
		t.Error("ParseFlags() should reject two network shorthands")
	}
	if _, err := ParseFlags([]string{"--no-such-flag"}); err == nil {
		t.Error("ParseFlags() should reject unknown flags")
	}
	f, err := ParseFlags([]string{"-h"})
	if err != nil || !f.Help {
		t.Errorf("ParseFlags(-h) = %+v, %v", f, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"unknown network", func(c *Config) { c.Network = "signet" }, true},
		{"empty datadir", func(c *Config) { c.DataDir = "" }, true},
		{"unknown backend", func(c *Config) { c.DB.Backend = "sqlite" }, true},
		{"long note", func(c *Config) { c.Coinbase.Note = strings.Repeat("x", 93) }, true},
		{"max note", func(c *Config) { c.Coinbase.Note = strings.Repeat("x", 92) }, false},
		{"reward too large", func(c *Config) { c.Coinbase.Reward = 21_000_001 * 100_000_000 }, true},
		{"pubkey not hex", func(c *Config) { c.Coinbase.PubKey = "zz" }, true},
		{"pubkey bad length", func(c *Config) { c.Coinbase.PubKey = "02abcd" }, true},
		{"valid pubkey", func(c *Config) { c.Coinbase.PubKey = testPubKey }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			cfg.DataDir = t.TempDir()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) should fail")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KYK_LOG_LEVEL", "warn")

	cfg, flags, err := Load([]string{"--datadir", dir, "--env", "", "--testnet", "--db", "memory", "tip"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Network != Testnet || cfg.DB.Backend != "memory" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, env not applied", cfg.Log.Level)
	}
	if len(flags.Args) != 1 || flags.Args[0] != "tip" {
		t.Errorf("Args = %v", flags.Args)
	}
	if _, err := os.Stat(filepath.Join(dir, "kyk.conf")); err != nil {
		t.Errorf("default config not written: %v", err)
	}
	if _, err := os.Stat(cfg.ChainDataDir()); err != nil {
		t.Errorf("chain data dir not created: %v", err)
	}
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "kyk.conf"), []byte("db.backend = leveldb\nlog.level = error\n"), 0644)

	cfg, _, err := Load([]string{"--datadir", dir, "--env", "", "--log-level", "debug"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DB.Backend != "leveldb" {
		t.Errorf("Backend = %q, file not applied", cfg.DB.Backend)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, flag should win", cfg.Log.Level)
	}
}

func TestLoad_Help(t *testing.T) {
	cfg, flags, err := Load([]string{"--version"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != nil || !flags.Version {
		t.Error("--version should return flags only")
	}
}
