// Package node wires configuration, logging, storage and the ledger into
// a reusable node that the CLI (or any other binary) can embed.
package node

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kykchain/kyk/config"
	"github.com/kykchain/kyk/internal/chain"
	klog "github.com/kykchain/kyk/internal/log"
	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/internal/utxo"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/types"
	"github.com/kykchain/kyk/pkg/wire"
	"github.com/rs/zerolog"
)

// Storage namespaces inside the node database.
var (
	chainPrefix = []byte("chain/")
	utxoPrefix  = []byte("utxo/")
)

// ErrWrongNetwork is returned when an imported block carries the magic of
// another network.
var ErrWrongNetwork = errors.New("block belongs to another network")

// Node is a fully-initialized ledger node.
type Node struct {
	cfg    *config.Config
	params config.Params
	logger zerolog.Logger

	logCloser io.Closer
	db        storage.DB
	utxos     *utxo.Store
	ch        *chain.Chain

	closeOnce sync.Once
}

// New validates cfg, initializes logging, opens the database and replays
// the stored chain. The caller must Close the node.
func New(cfg *config.Config) (*Node, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	params := cfg.Params()

	// ── 1. Address version ──────────────────────────────────────────
	types.SetAddressVersion(params.AddressVersion)

	// ── 2. Logger ───────────────────────────────────────────────────
	logFile, err := logFilePath(cfg)
	if err != nil {
		return nil, err
	}
	logCloser, err := klog.Init(klog.Options{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		File:  logFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("magic", fmt.Sprintf("%#08x", params.Magic)).
		Str("backend", cfg.DB.Backend).
		Bool("strict", cfg.Chain.StrictInputs).
		Bool("pow", cfg.Chain.ProofOfWork).
		Msg("Starting kyk node")

	// ── 3. Storage ──────────────────────────────────────────────────
	dbPath := expandHome(cfg.DBDir())
	db, err := storage.Open(cfg.DB.Backend, dbPath)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("open database at %s: %w", dbPath, err)
	}
	klog.Storage.Info().Str("path", dbPath).Str("backend", cfg.DB.Backend).Msg("Database opened")

	// ── 4. Ledger ───────────────────────────────────────────────────
	opts := chain.Options{
		Magic:        params.Magic,
		StrictInputs: cfg.Chain.StrictInputs,
	}
	if cfg.Chain.ProofOfWork {
		opts.PowLimit = params.PowLimit
	}
	utxos := utxo.NewStore(storage.NewPrefixDB(db, utxoPrefix))
	ch, err := chain.New(storage.NewPrefixDB(db, chainPrefix), utxos, opts)
	if err != nil {
		db.Close()
		logCloser.Close()
		return nil, fmt.Errorf("open chain: %w", err)
	}

	n := &Node{
		cfg:       cfg,
		params:    params,
		logger:    logger,
		logCloser: logCloser,
		db:        db,
		utxos:     utxos,
		ch:        ch,
	}
	if _, height, ok := ch.Tip(); ok {
		logger.Info().Uint64("height", height).Str("tip", ch.Headers().TipHash().String()).Msg("Chain loaded")
	} else {
		logger.Info().Msg("Chain is empty")
	}
	return n, nil
}

// Close releases the database and the log file. It is safe to call more
// than once.
func (n *Node) Close() error {
	var err error
	n.closeOnce.Do(func() {
		err = n.db.Close()
		n.logger.Info().Msg("Goodbye!")
		if cerr := n.logCloser.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// Config returns the node configuration.
func (n *Node) Config() *config.Config { return n.cfg }

// Params returns the network parameters in effect.
func (n *Node) Params() config.Params { return n.params }

// Chain returns the ledger.
func (n *Node) Chain() *chain.Chain { return n.ch }

// UTXOs returns the UTXO store.
func (n *Node) UTXOs() *utxo.Store { return n.utxos }

// Height returns the height of the chain tip, or 0 for an empty chain.
func (n *Node) Height() uint64 {
	_, height, _ := n.ch.Tip()
	return height
}

// ImportStats counts the outcome of an Import.
type ImportStats struct {
	Accepted int
	Known    int
	Rejected int
	Created  int
	Spent    int
}

// Import feeds framed blocks (magic | size | body) read from r to the
// ledger, in order, until EOF or a zero magic (the padding at the end of
// a block file). Blocks already stored or not linking to the tip are
// counted and skipped; any other failure stops the import.
func (n *Node) Import(ctx context.Context, r io.Reader) (*ImportStats, error) {
	defer klog.Benchmark("import")()

	br := bufio.NewReader(r)
	stats := &ImportStats{}
	frame := make([]byte, 8)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if _, err := io.ReadFull(br, frame); err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("read block frame: %w", err)
		}
		fr := wire.NewReader(frame)
		magic, _ := fr.Uint32("magic")
		size, _ := fr.Uint32("size")
		if magic == 0 {
			return stats, nil
		}
		if magic != n.params.Magic {
			return stats, fmt.Errorf("%w: magic %#08x, want %#08x", ErrWrongNetwork, magic, n.params.Magic)
		}
		if size > block.MaxBlockSize {
			return stats, fmt.Errorf("block %d: %w", stats.total(), block.ErrBlockTooLarge)
		}

		raw := make([]byte, 8+int(size))
		copy(raw, frame)
		if _, err := io.ReadFull(br, raw[8:]); err != nil {
			return stats, fmt.Errorf("block %d: read body: %w", stats.total(), err)
		}
		blk, _, err := block.DeserializeBlock(raw)
		if err != nil {
			return stats, fmt.Errorf("block %d: %w", stats.total(), err)
		}

		res, err := n.ch.ProcessBlock(blk)
		switch {
		case errors.Is(err, chain.ErrBlockKnown):
			stats.Known++
		case errors.Is(err, chain.ErrChainLinkMismatch):
			stats.Rejected++
		case err != nil:
			return stats, fmt.Errorf("block %s: %w", blk.Hash(), err)
		default:
			stats.Accepted++
			stats.Created += res.Created
			stats.Spent += res.Spent
		}
	}
}

func (s *ImportStats) total() int {
	return s.Accepted + s.Known + s.Rejected
}

// ImportFile imports the framed blocks stored in the file at path.
func (n *Node) ImportFile(ctx context.Context, path string) (*ImportStats, error) {
	f, err := os.Open(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("open block file: %w", err)
	}
	defer f.Close()

	stats, err := n.Import(ctx, f)
	if err == nil {
		n.logger.Info().
			Str("file", path).
			Int("accepted", stats.Accepted).
			Int("known", stats.Known).
			Int("rejected", stats.Rejected).
			Msg("Import finished")
	}
	return stats, err
}
