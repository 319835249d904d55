package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/kykchain/kyk/config"
	"github.com/kykchain/kyk/internal/node"
	"github.com/kykchain/kyk/internal/wallet"
	"golang.org/x/term"
)

const walletUsage = "Usage: kyk wallet <create|import|list|address|new-address|balance> [flags]"

// keystoreDir returns <datadir>/<network>/keystore.
func keystoreDir(cfg *config.Config) string {
	return filepath.Join(cfg.ChainDataDir(), "keystore")
}

func openKeystore(cfg *config.Config) *wallet.Keystore {
	ks, err := wallet.NewKeystore(keystoreDir(cfg))
	if err != nil {
		fatal("open keystore: %v", err)
	}
	return ks
}

func cmdNewKey(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("newkey", flag.ExitOnError)
	short := fs.Bool("short", false, "Generate a 12-word mnemonic")
	fs.Parse(args)

	gen := wallet.GenerateMnemonic
	if *short {
		gen = wallet.GenerateShortMnemonic
	}
	mnemonic, err := gen()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	acct := deriveAccount(cfg, seed, 0)
	zeroBytes(seed)

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)
	fmt.Printf("Path:    %s\n", acct.Path)
	fmt.Printf("PubKey:  %x\n", acct.PubKey)
	fmt.Printf("Address: %s\n", acct.Address)
}

func cmdWallet(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal(walletUsage)
	}

	switch args[0] {
	case "create":
		cmdWalletCreate(cfg, args[1:], "")
	case "import":
		fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
		mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
		fs.Parse(args[1:])
		if !wallet.ValidateMnemonic(*mnemonic) {
			fatal("invalid mnemonic")
		}
		cmdWalletCreate(cfg, fs.Args(), wallet.NormalizeMnemonic(*mnemonic))
	case "list":
		cmdWalletList(cfg)
	case "address":
		cmdWalletAddress(cfg, args[1:])
	case "new-address":
		cmdWalletNewAddress(cfg, args[1:])
	case "balance":
		cmdWalletBalance(cfg, args[1:])
	default:
		fatal("Unknown wallet command: %s\n%s", args[0], walletUsage)
	}
}

// cmdWalletCreate stores a new wallet. An empty mnemonic generates one.
func cmdWalletCreate(cfg *config.Config, args []string, mnemonic string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: kyk wallet create|import --name <name>")
	}

	if mnemonic == "" {
		var err error
		if mnemonic, err = wallet.GenerateMnemonic(); err != nil {
			fatal("generate mnemonic: %v", err)
		}
		fmt.Println("Mnemonic (write this down!):")
		fmt.Printf("  %s\n\n", mnemonic)
	}

	password := readNewPassword()
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	acct := deriveAccount(cfg, seed, 0)

	ks := openKeystore(cfg)
	err = ks.Create(*name, string(cfg.Network), seed, password, wallet.DefaultParams())
	zeroBytes(seed)
	if err != nil {
		fatal("create wallet: %v", err)
	}
	if err := ks.AddKey(*name, wallet.NewKeyEntry(acct)); err != nil {
		fatal("record key: %v", err)
	}

	fmt.Printf("\nWallet created: %s\n", *name)
	fmt.Printf("Address: %s\n", acct.Address)
}

func cmdWalletList(cfg *config.Config) {
	names, err := openKeystore(cfg).List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
}

func walletName(name string, args []string) string {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	w := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)
	if *w == "" {
		fatal("Usage: kyk %s --wallet <name>", name)
	}
	return *w
}

func cmdWalletAddress(cfg *config.Config, args []string) {
	name := walletName("wallet address", args)
	keys, err := openKeystore(cfg).Keys(name)
	if err != nil {
		fatal("list keys: %v", err)
	}
	if len(keys) == 0 {
		fmt.Println("No addresses found.")
		return
	}
	for _, k := range keys {
		fmt.Printf("  [%d] %s  %s\n", k.Index, k.Address, k.Path)
	}
}

func cmdWalletNewAddress(cfg *config.Config, args []string) {
	name := walletName("wallet new-address", args)
	ks := openKeystore(cfg)

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	seed, err := ks.Load(name, password)
	if err != nil {
		fatal("load wallet: %v", err)
	}
	next, err := ks.NextIndex(name)
	if err != nil {
		fatal("next index: %v", err)
	}
	acct := deriveAccount(cfg, seed, next)
	zeroBytes(seed)

	if err := ks.AddKey(name, wallet.NewKeyEntry(acct)); err != nil {
		fatal("record key: %v", err)
	}
	fmt.Printf("New address [%d]: %s\n", acct.Index, acct.Address)
}

// cmdWalletBalance sums the ledger balance of every recorded key.
func cmdWalletBalance(cfg *config.Config, args []string) {
	name := walletName("wallet balance", args)
	keys, err := openKeystore(cfg).Keys(name)
	if err != nil {
		fatal("list keys: %v", err)
	}

	n, err := node.New(cfg)
	if err != nil {
		fatal("%v", err)
	}
	defer n.Close()

	var total uint64
	for _, k := range keys {
		bal, err := n.UTXOs().Balance(k.Address)
		if err != nil {
			n.Close()
			fatal("balance of %s: %v", k.Address, err)
		}
		total += bal
		fmt.Printf("  %s  %s\n", k.Address, formatAmount(bal))
	}
	fmt.Printf("Total: %s\n", formatAmount(total))
}

// deriveAccount derives the external key at index for the configured
// network, exiting on failure.
func deriveAccount(cfg *config.Config, seed []byte, index uint32) *wallet.Account {
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	coin := wallet.CoinTypeFor(cfg.Params().AddressVersion)
	acct, _, err := wallet.DeriveAccount(master, coin, 0, wallet.ChangeExternal, index)
	if err != nil {
		fatal("derive address: %v", err)
	}
	return acct
}

func readNewPassword() []byte {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}
	return password
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
