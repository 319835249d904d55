// Package chain implements the ledger: a header chain that enforces
// parent-hash linkage, a block store, and the UTXO bookkeeping applied as
// blocks are accepted.
package chain

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/kykchain/kyk/internal/consensus"
	"github.com/kykchain/kyk/internal/log"
	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/internal/utxo"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/tx"
	"github.com/kykchain/kyk/pkg/types"
)

// Block processing errors.
var (
	ErrNilBlock    = errors.New("nil block or header")
	ErrBlockKnown  = errors.New("block already known")
	ErrDoubleSpend = errors.New("output already spent")
)

// Options configures a Chain.
type Options struct {
	// Magic is the network magic stamped on blocks loaded from storage.
	Magic uint32
	// StrictInputs rejects blocks whose inputs reference unknown outputs
	// or spend more than they reference. When false, unknown inputs are
	// logged and skipped, which lets a ledger start from a block that is
	// not the genesis block.
	StrictInputs bool
	// PowLimit enables the proof of work check: a block hash must meet
	// the target of its bits, and that target must not exceed PowLimit.
	// Nil accepts any hash.
	PowLimit *big.Int
}

// Result summarizes the effect of an accepted block.
type Result struct {
	Hash    types.Hash
	Height  uint64
	Created int // outputs recorded
	Spent   int // outputs marked spent
	Skipped int // inputs whose outputs are unknown
	Ignored int // outputs without a derivable address
}

// Chain is the ledger service. ProcessBlock calls are serialized; the
// header chain and UTXO store are also safe for concurrent readers.
type Chain struct {
	mu      sync.Mutex // Serializes ProcessBlock.
	headers *HeaderChain
	blocks  *BlockStore
	utxos   *utxo.Store
	opts    Options
}

// New creates a ledger over db, replaying stored headers into the header
// chain.
func New(db storage.DB, utxos *utxo.Store, opts Options) (*Chain, error) {
	if db == nil {
		return nil, fmt.Errorf("storage db is nil")
	}
	if utxos == nil {
		return nil, fmt.Errorf("utxo store is nil")
	}
	if opts.Magic == 0 {
		opts.Magic = block.MainnetMagic
	}

	c := &Chain{
		headers: NewHeaderChain(),
		blocks:  NewBlockStore(db, opts.Magic),
		utxos:   utxos,
		opts:    opts,
	}
	if err := c.replayHeaders(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) replayHeaders() error {
	tipHash, tipHeight, ok, err := c.blocks.GetTip()
	if err != nil {
		return fmt.Errorf("recover tip: %w", err)
	}
	if !ok {
		return nil
	}
	defer log.Benchmark("replay headers")()

	for h := uint64(0); h <= tipHeight; h++ {
		blk, err := c.blocks.GetBlockByHeight(h)
		if err != nil {
			return fmt.Errorf("load block at height %d: %w", h, err)
		}
		if _, err := c.headers.Append(blk.Header); err != nil {
			return fmt.Errorf("replay header at height %d: %w", h, err)
		}
	}
	if got := c.headers.TipHash(); got != tipHash {
		return fmt.Errorf("replayed tip %s does not match stored tip %s", got, tipHash)
	}
	log.Chain.Info().
		Uint64("height", tipHeight).
		Str("tip", tipHash.String()).
		Msg("Header chain restored")
	return nil
}

// Headers returns the header chain.
func (c *Chain) Headers() *HeaderChain { return c.headers }

// UTXOs returns the UTXO store.
func (c *Chain) UTXOs() *utxo.Store { return c.utxos }

// Blocks returns the block store.
func (c *Chain) Blocks() *BlockStore { return c.blocks }

// Tip returns the hash and height of the last accepted block. ok is false
// before the first block.
func (c *Chain) Tip() (hash types.Hash, height uint64, ok bool) {
	tail := c.headers.Tail()
	if tail == nil {
		return types.Hash{}, 0, false
	}
	return tail.Hash(), tail.Height(), true
}

// GetBlock retrieves a block by its hash.
func (c *Chain) GetBlock(hash types.Hash) (*block.Block, error) {
	return c.blocks.GetBlock(hash)
}

// GetBlockByHeight retrieves a block by its height.
func (c *Chain) GetBlockByHeight(height uint64) (*block.Block, error) {
	return c.blocks.GetBlockByHeight(height)
}

// GetTransaction looks up a confirmed transaction by id via the tx index.
func (c *Chain) GetTransaction(id types.Hash) (*tx.Transaction, error) {
	_, blockHash, err := c.blocks.GetTxLocation(id)
	if err != nil {
		return nil, err
	}
	blk, err := c.blocks.GetBlock(blockHash)
	if err != nil {
		return nil, fmt.Errorf("load block for tx: %w", err)
	}
	for _, t := range blk.Transactions {
		if h, err := t.Hash(); err == nil && h == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("tx %s not found in block %s (index corrupt)", id, blockHash)
}

// ProcessBlock validates blk and applies it to the ledger: the header is
// linked onto the header chain, its outputs are recorded as UTXOs, the
// outputs its inputs reference are marked spent and the block is stored.
// A header that does not link to the tip is rejected with
// ErrChainLinkMismatch. On any error the ledger is left as it was.
func (c *Chain) ProcessBlock(blk *block.Block) (*Result, error) {
	if blk == nil || blk.Header == nil {
		return nil, ErrNilBlock
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := blk.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if c.opts.PowLimit != nil {
		if err := consensus.CheckProofOfWork(blk.Header, c.opts.PowLimit); err != nil {
			return nil, fmt.Errorf("proof of work: %w", err)
		}
	}
	hash := blk.Hash()
	known, err := c.blocks.HasBlock(hash)
	if err != nil {
		return nil, fmt.Errorf("check block: %w", err)
	}
	if known {
		return nil, fmt.Errorf("%w: %s", ErrBlockKnown, hash)
	}
	if err := c.headers.Validate(blk.Header); err != nil {
		log.Chain.Warn().
			Str("hash", hash.String()).
			Str("prev", blk.Header.PrevHash.String()).
			Str("tip", c.headers.TipHash().String()).
			Msg("Header rejected")
		return nil, err
	}

	plan, err := c.planBlock(blk, hash)
	if err != nil {
		return nil, err
	}

	node, err := c.headers.Append(blk.Header)
	if err != nil {
		return nil, err
	}
	res := &Result{Hash: hash, Height: node.Height(), Skipped: plan.skipped, Ignored: plan.ignored}
	if err := c.applyBlock(blk, node.Height(), plan, res); err != nil {
		c.headers.removeTail(node)
		return nil, err
	}

	log.Chain.Info().
		Uint64("height", res.Height).
		Str("hash", hash.String()).
		Int("txs", len(blk.Transactions)).
		Int("created", res.Created).
		Int("spent", res.Spent).
		Msg("Block accepted")
	return res, nil
}

// blockPlan is the set of UTXO changes a block makes, computed before
// anything is written.
type blockPlan struct {
	created []*utxo.UTXO
	spends  []types.Outpoint // outputs that existed before this block
	skipped int
	ignored int
}

func (c *Chain) planBlock(blk *block.Block, hash types.Hash) (*blockPlan, error) {
	view := newBlockView(c.utxos)
	plan := &blockPlan{}

	for i, t := range blk.Transactions {
		txID, err := t.Hash()
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}

		if !t.IsCoinbase() {
			if c.opts.StrictInputs {
				if _, err := t.ValidateWithUTXOs(view); err != nil {
					return nil, fmt.Errorf("tx %d (%s): %w", i, txID, err)
				}
			}
			for j, in := range t.Inputs {
				_, spent, err := view.GetUTXO(in.PrevOut)
				if errors.Is(err, utxo.ErrNotFound) {
					plan.skipped++
					log.Chain.Warn().
						Str("tx", txID.String()).
						Int("input", j).
						Str("outpoint", in.PrevOut.String()).
						Msg("Input references unknown output, skipping")
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("tx %d input %d: %w", i, j, err)
				}
				if spent {
					return nil, fmt.Errorf("tx %d input %d (%s): %w", i, j, in.PrevOut, ErrDoubleSpend)
				}
				if !view.spendCreated(in.PrevOut) {
					plan.spends = append(plan.spends, in.PrevOut)
				}
				view.spent[in.PrevOut] = true
			}
		}

		for j, out := range t.Outputs {
			addr, ok := ScriptAddress(out.Script)
			if !ok {
				plan.ignored++
				log.Chain.Warn().
					Str("tx", txID.String()).
					Int("output", j).
					Str("type", out.Script.Type().String()).
					Msg("Output has no derivable address, not recorded")
				continue
			}
			u := &utxo.UTXO{
				TxID:        txID,
				BlockHash:   hash,
				Address:     []byte(addr),
				OutputIndex: uint32(j),
				Value:       out.Value,
				Script:      out.Script.Clone(),
			}
			view.created[u.Outpoint()] = u
			plan.created = append(plan.created, u)
		}
	}
	return plan, nil
}

// applyBlock writes the planned UTXO changes and then the block. If any
// write fails, the changes already made are undone.
func (c *Chain) applyBlock(blk *block.Block, height uint64, plan *blockPlan, res *Result) (err error) {
	var undo []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			if uerr := undo[i](); uerr != nil {
				log.Chain.Error().Err(uerr).Str("hash", res.Hash.String()).Msg("Undo failed, UTXO set may be inconsistent")
			}
		}
		res.Created, res.Spent = 0, 0
	}()

	for _, u := range plan.created {
		op := u.Outpoint()
		// A repeated txid replaces the older output; undo puts it back.
		prev, err := c.utxos.Get(op)
		if err != nil && !errors.Is(err, utxo.ErrNotFound) {
			return fmt.Errorf("record output %s: %w", op, err)
		}
		if prev != nil {
			log.Chain.Warn().Str("outpoint", op.String()).Msg("Output replaces an existing record")
		}
		if err := c.utxos.Put(u); err != nil {
			return fmt.Errorf("record output %s: %w", op, err)
		}
		if prev != nil {
			undo = append(undo, func() error { return c.utxos.Put(prev) })
		} else {
			undo = append(undo, func() error { return c.utxos.Delete(op) })
		}
		res.Created++
		if u.Spent {
			res.Spent++
		}
	}
	for _, op := range plan.spends {
		u, err := c.utxos.MarkSpent(op)
		if err != nil {
			return fmt.Errorf("spend %s: %w", op, err)
		}
		undo = append(undo, func() error {
			u.Spent = false
			return c.utxos.Put(u)
		})
		res.Spent++
	}
	if err := c.blocks.PutBlock(blk, height); err != nil {
		return fmt.Errorf("store block: %w", err)
	}
	return nil
}

// ScriptAddress returns the address that can claim an output locked by
// script: the hash160 for P2PKH, or the hash160 of the key for P2PK.
func ScriptAddress(script types.Script) (string, bool) {
	switch script.Type() {
	case types.ScriptTypeP2PKH:
		if addr, ok := script.PubKeyHash(); ok {
			return addr.String(), true
		}
	case types.ScriptTypeP2PK:
		if pub, ok := script.PubKey(); ok {
			if addr, err := crypto.AddressFromPubKey(pub); err == nil {
				return addr.String(), true
			}
		}
	}
	return "", false
}

// blockView layers the outputs created and spent by the block being
// planned over the UTXO store.
type blockView struct {
	store   *utxo.Store
	created map[types.Outpoint]*utxo.UTXO
	spent   map[types.Outpoint]bool
}

func newBlockView(store *utxo.Store) *blockView {
	return &blockView{
		store:   store,
		created: make(map[types.Outpoint]*utxo.UTXO),
		spent:   make(map[types.Outpoint]bool),
	}
}

// spendCreated flags an output created earlier in the block as spent and
// reports whether op was one.
func (v *blockView) spendCreated(op types.Outpoint) bool {
	u, ok := v.created[op]
	if ok {
		u.Spent = true
	}
	return ok
}

func (v *blockView) HasUTXO(op types.Outpoint) bool {
	if _, ok := v.created[op]; ok {
		return true
	}
	return v.store.HasUTXO(op)
}

func (v *blockView) GetUTXO(op types.Outpoint) (uint64, bool, error) {
	if u, ok := v.created[op]; ok {
		return u.Value, u.Spent || v.spent[op], nil
	}
	value, spent, err := v.store.GetUTXO(op)
	if err != nil {
		return 0, false, err
	}
	return value, spent || v.spent[op], nil
}
