package chain

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/types"
)

// Key prefixes and state keys for the block store.
var (
	prefixBlock  = []byte("b/") // b/<hash(32)> -> block body
	prefixHeight = []byte("h/") // h/<height(8)> -> hash(32)
	prefixTx     = []byte("x/") // x/<txid(32)> -> height(8) + blockHash(32)
	keyTip       = []byte("s/tip")
)

// ErrBlockNotFound is returned when a block is not in the store.
var ErrBlockNotFound = errors.New("block not found")

// BlockStore persists blocks and chain metadata to a storage.DB. Blocks
// are kept in their unframed body encoding.
type BlockStore struct {
	db    storage.DB
	magic uint32
}

// NewBlockStore creates a block store backed by the given database.
// Loaded blocks carry magic.
func NewBlockStore(db storage.DB, magic uint32) *BlockStore {
	return &BlockStore{db: db, magic: magic}
}

// PutBlock stores a block at height and indexes it by hash, height and
// transaction id in one batch.
func (bs *BlockStore) PutBlock(blk *block.Block, height uint64) error {
	data, err := blk.SerializeForStorage()
	if err != nil {
		return fmt.Errorf("block encode: %w", err)
	}
	ids, err := blk.TxHashes()
	if err != nil {
		return fmt.Errorf("block tx ids: %w", err)
	}

	hash := blk.Hash()
	b := storage.NewBatch(bs.db)
	if err := b.Put(blockKey(hash), data); err != nil {
		return fmt.Errorf("block put: %w", err)
	}
	if err := b.Put(heightKey(height), hash[:]); err != nil {
		return fmt.Errorf("height index put: %w", err)
	}
	loc := txLocation(height, hash)
	for _, id := range ids {
		if err := b.Put(txKey(id), loc); err != nil {
			return fmt.Errorf("tx index put %s: %w", id, err)
		}
	}
	if err := b.Put(keyTip, loc); err != nil {
		return fmt.Errorf("set tip: %w", err)
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("store block %s: %w", hash, err)
	}
	return nil
}

// GetBlock retrieves a block by its hash.
func (bs *BlockStore) GetBlock(hash types.Hash) (*block.Block, error) {
	data, err := bs.db.Get(blockKey(hash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("block get: %w", err)
	}
	blk, _, err := block.DeserializeBlockBody(data)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", hash, err)
	}
	return blk.SetMagic(bs.magic), nil
}

// GetBlockByHeight retrieves a block by its height.
func (bs *BlockStore) GetBlockByHeight(height uint64) (*block.Block, error) {
	hashBytes, err := bs.db.Get(heightKey(height))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: height %d", ErrBlockNotFound, height)
	}
	if err != nil {
		return nil, fmt.Errorf("height index get: %w", err)
	}
	if len(hashBytes) != types.HashSize {
		return nil, fmt.Errorf("corrupt height index: got %d bytes, want %d", len(hashBytes), types.HashSize)
	}
	var hash types.Hash
	copy(hash[:], hashBytes)
	return bs.GetBlock(hash)
}

// HasBlock checks if a block exists by hash.
func (bs *BlockStore) HasBlock(hash types.Hash) (bool, error) {
	return bs.db.Has(blockKey(hash))
}

// GetTip returns the tip hash and height. ok is false for an empty store.
func (bs *BlockStore) GetTip() (hash types.Hash, height uint64, ok bool, err error) {
	data, err := bs.db.Get(keyTip)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Hash{}, 0, false, nil
	}
	if err != nil {
		return types.Hash{}, 0, false, fmt.Errorf("get tip: %w", err)
	}
	height, hash, err = parseTxLocation(data)
	if err != nil {
		return types.Hash{}, 0, false, fmt.Errorf("corrupt tip: %w", err)
	}
	return hash, height, true, nil
}

// GetTxLocation returns the block height and hash that contain the given
// transaction.
func (bs *BlockStore) GetTxLocation(txID types.Hash) (uint64, types.Hash, error) {
	data, err := bs.db.Get(txKey(txID))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, types.Hash{}, fmt.Errorf("tx %s: %w", txID, ErrBlockNotFound)
	}
	if err != nil {
		return 0, types.Hash{}, fmt.Errorf("tx index get: %w", err)
	}
	height, hash, err := parseTxLocation(data)
	if err != nil {
		return 0, types.Hash{}, fmt.Errorf("corrupt tx index: %w", err)
	}
	return height, hash, nil
}

func blockKey(hash types.Hash) []byte {
	key := make([]byte, len(prefixBlock)+types.HashSize)
	copy(key, prefixBlock)
	copy(key[len(prefixBlock):], hash[:])
	return key
}

func heightKey(height uint64) []byte {
	key := make([]byte, len(prefixHeight)+8)
	copy(key, prefixHeight)
	binary.BigEndian.PutUint64(key[len(prefixHeight):], height)
	return key
}

func txKey(hash types.Hash) []byte {
	key := make([]byte, len(prefixTx)+types.HashSize)
	copy(key, prefixTx)
	copy(key[len(prefixTx):], hash[:])
	return key
}

// txLocation encodes height(8) | hash(32), the value of tx index and tip
// entries.
func txLocation(height uint64, hash types.Hash) []byte {
	val := make([]byte, 8+types.HashSize)
	binary.BigEndian.PutUint64(val[:8], height)
	copy(val[8:], hash[:])
	return val
}

func parseTxLocation(data []byte) (uint64, types.Hash, error) {
	var hash types.Hash
	if len(data) != 8+types.HashSize {
		return 0, hash, fmt.Errorf("got %d bytes, want %d", len(data), 8+types.HashSize)
	}
	copy(hash[:], data[8:])
	return binary.BigEndian.Uint64(data[:8]), hash, nil
}
