package storage

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/kykchain/kyk/internal/log"
)

var levelDBOptions = opt.Options{
	Compression:        opt.NoCompression,
	BlockCacheCapacity: 64 * opt.MiB,
	WriteBuffer:        32 * opt.MiB,
}

// LevelDB implements DB using goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens the LevelDB database at path, creating it if needed. A
// corrupted database is recovered in place.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, &levelDBOptions)

	var corrupted *ldberrors.ErrCorrupted
	if errors.As(err, &corrupted) {
		log.Storage.Warn().Str("path", path).Err(err).Msg("LevelDB corruption detected, recovering")
		db, err = leveldb.RecoverFile(path, &levelDBOptions)
		if err == nil {
			log.Storage.Warn().Str("path", path).Msg("LevelDB recovered")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// Get retrieves a value by key. Returns ErrNotFound if the key does not exist.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get: %w", err)
	}
	return val, nil
}

// Put stores a key-value pair.
func (l *LevelDB) Put(key, value []byte) error {
	if err := l.db.Put(key, value, nil); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

// Delete removes a key.
func (l *LevelDB) Delete(key []byte) error {
	if err := l.db.Delete(key, nil); err != nil {
		return fmt.Errorf("leveldb delete: %w", err)
	}
	return nil
}

// Has checks if a key exists.
func (l *LevelDB) Has(key []byte) (bool, error) {
	ok, err := l.db.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("leveldb has: %w", err)
	}
	return ok, nil
}

// ForEach iterates over all keys with the given prefix.
func (l *LevelDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		// The iterator reuses its buffers between steps.
		if err := fn(cloneBytes(it.Key()), cloneBytes(it.Value())); err != nil {
			return err
		}
	}
	if err := it.Error(); err != nil {
		return fmt.Errorf("leveldb iterate: %w", err)
	}
	return nil
}

// NewBatch returns a batch written with a single atomic Write.
func (l *LevelDB) NewBatch() Batch {
	return &levelBatch{db: l.db, batch: new(leveldb.Batch)}
}

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

type levelBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (lb *levelBatch) Put(key, value []byte) error {
	lb.batch.Put(key, value)
	return nil
}

func (lb *levelBatch) Delete(key []byte) error {
	lb.batch.Delete(key)
	return nil
}

func (lb *levelBatch) Commit() error {
	if err := lb.db.Write(lb.batch, nil); err != nil {
		return fmt.Errorf("leveldb batch commit: %w", err)
	}
	lb.batch.Reset()
	return nil
}
