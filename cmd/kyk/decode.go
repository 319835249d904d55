package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/kykchain/kyk/config"
	"github.com/kykchain/kyk/internal/consensus"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/tx"
	"github.com/kykchain/kyk/pkg/wire"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// readInput resolves a command argument to raw bytes: "-" reads hex from
// stdin, "@path" reads a file holding hex or raw bytes, and anything else
// is taken as hex.
func readInput(arg string, stdin io.Reader) ([]byte, error) {
	var text []byte
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		text = data
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(string(data))
		if b, err := hex.DecodeString(trimmed); err == nil {
			return b, nil
		}
		return data, nil
	default:
		text = []byte(arg)
	}
	b, err := hex.DecodeString(strings.TrimSpace(string(text)))
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}

// decodeBlock decodes a framed block when raw starts with a known network
// magic, and an unframed block otherwise.
func decodeBlock(raw []byte) (*block.Block, int, error) {
	r := wire.NewReader(raw)
	if magic, err := r.Uint32("magic"); err == nil && block.IsKnownMagic(magic) {
		return block.DeserializeBlock(raw)
	}
	return block.DeserializeBlockBody(raw)
}

func decodeFlags(name string, args []string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	dump := fs.Bool("dump", false, "Dump the decoded Go value instead of JSON")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fatal("Usage: kyk %s [--dump] <hex|@file|->", name)
	}
	return fs, dump
}

func cmdDecodeBlock(cfg *config.Config, args []string) {
	fs, dump := decodeFlags("decode-block", args)
	raw, err := readInput(fs.Arg(0), os.Stdin)
	if err != nil {
		fatal("%v", err)
	}
	blk, n, err := decodeBlock(raw)
	if err != nil {
		fatal("%v", err)
	}
	if n != len(raw) {
		fmt.Fprintf(os.Stderr, "warning: %d trailing bytes ignored\n", len(raw)-n)
	}
	if *dump {
		dumper.Fdump(os.Stdout, blk)
		return
	}
	if err := blk.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: block is invalid: %v\n", err)
	}
	if err := consensus.CheckProofOfWork(blk.Header, cfg.Params().PowLimit); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	view, err := newBlockView(blk)
	if err != nil {
		fatal("%v", err)
	}
	printJSON(view)
}

func cmdDecodeTx(_ *config.Config, args []string) {
	fs, dump := decodeFlags("decode-tx", args)
	raw, err := readInput(fs.Arg(0), os.Stdin)
	if err != nil {
		fatal("%v", err)
	}
	t, n, err := tx.Deserialize(raw)
	if err != nil {
		fatal("%v", err)
	}
	if n != len(raw) {
		fmt.Fprintf(os.Stderr, "warning: %d trailing bytes ignored\n", len(raw)-n)
	}
	if *dump {
		dumper.Fdump(os.Stdout, t)
		return
	}
	view, err := newTxView(t)
	if err != nil {
		fatal("%v", err)
	}
	printJSON(view)
}
