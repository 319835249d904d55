// kyk decodes Bitcoin blocks and transactions and maintains a local
// ledger of headers, blocks and unspent outputs.
//
// Usage:
//
//	kyk [options] <command> [arguments]
//	kyk --help
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kykchain/kyk/config"
	"github.com/kykchain/kyk/internal/node"
	"github.com/kykchain/kyk/pkg/types"
)

const commands = `  decode-block <hex|@file|->   Decode a framed or unframed block (--dump)
  decode-tx <hex|@file|->      Decode a transaction (--dump)
  newkey                       Generate a mnemonic and its first receiving key
  wallet <sub> [flags]         create | import | list | address | new-address | balance

  import <file>...             Import framed block files (blk*.dat) into the ledger
  tip                          Show the chain tip
  headers [--from N --limit N] List header chain entries
  block <hash|height>          Show a stored block (--dump)
  tx <txid>                    Show a stored transaction
  coinbase [--note s]          Print a coinbase paying the configured key
  mine [--count N --note s]    Append unmined local blocks (needs chain.pow off)
  utxos <address> [--all]      List outputs claimable by an address
  balance <address>            Show the unspent balance of an address
  snapshot <file> [--all]      Write the UTXO set as a snapshot
  load-snapshot <file>         Load a snapshot into the UTXO set
  commitment [--all]           Print the BLAKE3 commitment of the UTXO set
  export-utxos <file> [--all]  Export the UTXO set as parquet
`

// offlineCommands run without opening the ledger.
var offlineCommands = map[string]func(cfg *config.Config, args []string){
	"decode-block": cmdDecodeBlock,
	"decode-tx":    cmdDecodeTx,
	"newkey":       cmdNewKey,
	"wallet":       cmdWallet,
}

// nodeCommands run against an open node, which is closed afterwards.
var nodeCommands = map[string]func(ctx context.Context, n *node.Node, args []string) error{
	"import":        cmdImport,
	"tip":           cmdTip,
	"headers":       cmdHeaders,
	"block":         cmdBlock,
	"tx":            cmdTx,
	"coinbase":      cmdCoinbase,
	"mine":          cmdMine,
	"utxos":         cmdUTXOs,
	"balance":       cmdBalance,
	"snapshot":      cmdSnapshot,
	"load-snapshot": cmdLoadSnapshot,
	"commitment":    cmdCommitment,
	"export-utxos":  cmdExportUTXOs,
}

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}
	if flags.Version {
		fmt.Printf("kyk %s\n", config.Version)
		return
	}
	if flags.Help || len(flags.Args) == 0 {
		config.PrintUsage(os.Stderr, commands)
		if !flags.Help {
			os.Exit(1)
		}
		return
	}

	types.SetAddressVersion(cfg.Params().AddressVersion)
	cmd, args := flags.Args[0], flags.Args[1:]
	if fn, ok := offlineCommands[cmd]; ok {
		fn(cfg, args)
		return
	}
	fn, ok := nodeCommands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		config.PrintUsage(os.Stderr, commands)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.New(cfg)
	if err != nil {
		fatal("%v", err)
	}
	err = fn(ctx, n, args)
	if cerr := n.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close node: %w", cerr)
	}
	if err != nil {
		fatal("%v", err)
	}
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode output: %v", err)
	}
	fmt.Println(string(data))
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
