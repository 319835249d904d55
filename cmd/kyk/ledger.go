package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kykchain/kyk/internal/node"
	"github.com/kykchain/kyk/internal/utxo"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/types"
)

func cmdImport(ctx context.Context, n *node.Node, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: kyk import <file>...")
	}
	var total node.ImportStats
	for _, path := range args {
		stats, err := n.ImportFile(ctx, path)
		if stats != nil {
			total.Accepted += stats.Accepted
			total.Known += stats.Known
			total.Rejected += stats.Rejected
			total.Created += stats.Created
			total.Spent += stats.Spent
		}
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
	}
	fmt.Printf("Accepted: %d  Known: %d  Rejected: %d\n", total.Accepted, total.Known, total.Rejected)
	fmt.Printf("Outputs created: %d  spent: %d\n", total.Created, total.Spent)
	fmt.Printf("Height: %d\n", n.Height())
	return nil
}

func cmdTip(_ context.Context, n *node.Node, _ []string) error {
	tail := n.Chain().Headers().Tail()
	if tail == nil {
		fmt.Println("Chain is empty.")
		return nil
	}
	total, unspent, err := n.UTXOs().Count()
	if err != nil {
		return err
	}
	view := newHeaderView(tail.Header())
	height := tail.Height()
	view.Height = &height
	printJSON(struct {
		Network string     `json:"network"`
		Tip     headerView `json:"tip"`
		UTXOs   int        `json:"utxos"`
		Unspent int        `json:"unspent"`
	}{string(n.Config().Network), view, total, unspent})
	return nil
}

func cmdHeaders(_ context.Context, n *node.Node, args []string) error {
	fs := flag.NewFlagSet("headers", flag.ContinueOnError)
	from := fs.Uint64("from", 0, "First height")
	limit := fs.Int("limit", 20, "Maximum number of headers (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	nodes := n.Chain().Headers().Headers(*from, *limit)
	views := make([]headerView, 0, len(nodes))
	for _, hn := range nodes {
		v := newHeaderView(hn.Header())
		height := hn.Height()
		v.Height = &height
		views = append(views, v)
	}
	printJSON(views)
	return nil
}

func cmdBlock(_ context.Context, n *node.Node, args []string) error {
	fs := flag.NewFlagSet("block", flag.ContinueOnError)
	dump := fs.Bool("dump", false, "Dump the decoded Go value instead of JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: kyk block [--dump] <hash|height>")
	}

	var (
		blk *block.Block
		err error
	)
	if height, perr := strconv.ParseUint(fs.Arg(0), 10, 64); perr == nil {
		blk, err = n.Chain().GetBlockByHeight(height)
	} else {
		hash, herr := types.HexToHash(fs.Arg(0))
		if herr != nil {
			return fmt.Errorf("block must be a height or a hash: %w", herr)
		}
		blk, err = n.Chain().GetBlock(hash)
	}
	if err != nil {
		return err
	}
	if *dump {
		dumper.Fdump(os.Stdout, blk)
		return nil
	}
	view, err := newBlockView(blk)
	if err != nil {
		return err
	}
	printJSON(view)
	return nil
}

func cmdTx(_ context.Context, n *node.Node, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: kyk tx <txid>")
	}
	id, err := types.HexToHash(args[0])
	if err != nil {
		return fmt.Errorf("invalid txid: %w", err)
	}
	t, err := n.Chain().GetTransaction(id)
	if err != nil {
		return err
	}
	view, err := newTxView(t)
	if err != nil {
		return err
	}
	printJSON(view)
	return nil
}

func cmdCoinbase(_ context.Context, n *node.Node, args []string) error {
	fs := flag.NewFlagSet("coinbase", flag.ContinueOnError)
	note := fs.String("note", "", "Coinbase note (default: coinbase.note)")
	amount := fs.String("amount", "", "Reward in coins (default: coinbase.reward)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *amount != "" {
		reward, err := parseAmount(*amount)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		n.Config().Coinbase.Reward = reward
	}
	cb, err := n.NewCoinbase(*note)
	if err != nil {
		return err
	}
	raw, err := cb.Serialize()
	if err != nil {
		return err
	}
	view, err := newTxView(cb)
	if err != nil {
		return err
	}
	printJSON(struct {
		Hex string `json:"hex"`
		Tx  txView `json:"tx"`
	}{fmt.Sprintf("%x", raw), view})
	return nil
}

func cmdMine(ctx context.Context, n *node.Node, args []string) error {
	fs := flag.NewFlagSet("mine", flag.ContinueOnError)
	count := fs.Int("count", 1, "Number of blocks to append")
	note := fs.String("note", "", "Coinbase note (default: coinbase.note)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	for i := 0; i < *count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		blk, err := n.NextBlock(*note)
		if err != nil {
			return err
		}
		res, err := n.Chain().ProcessBlock(blk)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		fmt.Printf("[%d] %s\n", res.Height, res.Hash)
	}
	return nil
}

func cmdUTXOs(_ context.Context, n *node.Node, args []string) error {
	fs := flag.NewFlagSet("utxos", flag.ContinueOnError)
	all := fs.Bool("all", false, "Include spent outputs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: kyk utxos [--all] <address>")
	}

	records, err := n.UTXOs().GetByAddress(fs.Arg(0))
	if err != nil {
		return err
	}
	views := make([]utxoView, 0, len(records))
	for _, u := range records {
		if u.Spent && !*all {
			continue
		}
		views = append(views, newUTXOView(u))
	}
	printJSON(views)
	return nil
}

func cmdBalance(_ context.Context, n *node.Node, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: kyk balance <address>")
	}
	bal, err := n.UTXOs().Balance(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", args[0], formatAmount(bal))
	return nil
}

// snapshotFlags parses [--all] <file>, resolving a bare file name into
// the export directory.
func snapshotFlags(n *node.Node, name string, args []string) (path string, all bool, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	allFlag := fs.Bool("all", false, "Include spent outputs")
	if err := fs.Parse(args); err != nil {
		return "", false, err
	}
	if fs.NArg() != 1 {
		return "", false, fmt.Errorf("usage: kyk %s [--all] <file>", name)
	}
	path = fs.Arg(0)
	if filepath.Base(path) == path {
		dir := n.Config().ExportDir()
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", false, fmt.Errorf("create export dir: %w", err)
		}
		path = filepath.Join(dir, path)
	}
	return path, *allFlag, nil
}

func cmdSnapshot(_ context.Context, n *node.Node, args []string) error {
	path, all, err := snapshotFlags(n, "snapshot", args)
	if err != nil {
		return err
	}
	snap, err := n.UTXOs().Snapshot(!all)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := utxo.WriteSnapshot(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %d records to %s\n", snap.Len(), path)
	return nil
}

func cmdLoadSnapshot(_ context.Context, n *node.Node, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: kyk load-snapshot <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := utxo.ReadSnapshot(f)
	if err != nil {
		return err
	}
	loaded, err := n.UTXOs().Load(snap)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d records\n", loaded)
	return nil
}

func cmdCommitment(_ context.Context, n *node.Node, args []string) error {
	fs := flag.NewFlagSet("commitment", flag.ContinueOnError)
	all := fs.Bool("all", false, "Include spent outputs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := n.UTXOs().Snapshot(!*all)
	if err != nil {
		return err
	}
	digest, err := utxo.Commitment(snap)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d records)\n", digest, snap.Len())
	return nil
}

func cmdExportUTXOs(_ context.Context, n *node.Node, args []string) error {
	path, all, err := snapshotFlags(n, "export-utxos", args)
	if err != nil {
		return err
	}
	snap, err := n.UTXOs().Snapshot(!all)
	if err != nil {
		return err
	}
	rows, err := utxo.ExportParquet(path, snap)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d rows to %s\n", rows, path)
	return nil
}
