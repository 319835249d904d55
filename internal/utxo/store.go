package utxo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/kykchain/kyk/internal/log"
	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/pkg/types"
)

// Store errors.
var (
	ErrNotFound     = errors.New("utxo not found")
	ErrAlreadySpent = errors.New("utxo already spent")
)

// Key prefixes for the UTXO store.
var (
	prefixUTXO = []byte("u/") // u/<txid><index> -> record
	prefixAddr = []byte("a/") // a/<addr_len><address><txid><index> -> empty (index)
)

// Store keeps UTXO records in a storage.DB, indexed by outpoint and by
// address. Spent records are kept, flagged, so a snapshot still shows
// the full history of outputs. A Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	db storage.DB
}

// NewStore creates a new UTXO store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// utxoKey builds a storage key for an outpoint: "u/" + txid(32) + index(4).
// The index is big-endian so outputs of a transaction sort in order.
func utxoKey(op types.Outpoint) []byte {
	key := make([]byte, len(prefixUTXO)+types.HashSize+4)
	copy(key, prefixUTXO)
	copy(key[len(prefixUTXO):], op.TxID[:])
	binary.BigEndian.PutUint32(key[len(prefixUTXO)+types.HashSize:], op.Index)
	return key
}

// addrPrefix builds the index prefix for one address:
// "a/" + addr_len(1) + address.
func addrPrefix(addr []byte) []byte {
	key := make([]byte, 0, len(prefixAddr)+1+len(addr)+types.HashSize+4)
	key = append(key, prefixAddr...)
	key = append(key, byte(len(addr)))
	return append(key, addr...)
}

func addrKey(addr []byte, op types.Outpoint) []byte {
	key := addrPrefix(addr)
	key = append(key, op.TxID[:]...)
	return binary.BigEndian.AppendUint32(key, op.Index)
}

// Get retrieves a UTXO by its outpoint.
func (s *Store) Get(op types.Outpoint) (*UTXO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(op)
}

func (s *Store) get(op types.Outpoint) (*UTXO, error) {
	data, err := s.db.Get(utxoKey(op))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	if err != nil {
		return nil, fmt.Errorf("utxo get: %w", err)
	}
	u, _, err := DeserializeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("utxo %s: %w", op, err)
	}
	return u, nil
}

// Put stores a UTXO and updates the address index.
func (s *Store) Put(u *UTXO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(u)
}

func (s *Store) put(u *UTXO) error {
	data, err := u.Serialize()
	if err != nil {
		return fmt.Errorf("utxo encode: %w", err)
	}
	op := u.Outpoint()
	b := storage.NewBatch(s.db)
	prev, err := s.get(op)
	switch {
	case err == nil:
		if string(prev.Address) != string(u.Address) {
			if err := b.Delete(addrKey(prev.Address, op)); err != nil {
				return fmt.Errorf("utxo index delete: %w", err)
			}
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}
	if err := b.Put(utxoKey(op), data); err != nil {
		return fmt.Errorf("utxo put: %w", err)
	}
	if err := b.Put(addrKey(u.Address, op), []byte{}); err != nil {
		return fmt.Errorf("utxo index put: %w", err)
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("utxo put: %w", err)
	}
	return nil
}

// Delete removes a UTXO and its address index entry.
func (s *Store) Delete(op types.Outpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := storage.NewBatch(s.db)
	// Read first to clean up the secondary index.
	u, err := s.get(op)
	switch {
	case err == nil:
		if err := b.Delete(addrKey(u.Address, op)); err != nil {
			return fmt.Errorf("utxo index delete: %w", err)
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}
	if err := b.Delete(utxoKey(op)); err != nil {
		return fmt.Errorf("utxo delete: %w", err)
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("utxo delete: %w", err)
	}
	return nil
}

// Has checks if a UTXO exists for the given outpoint.
func (s *Store) Has(op types.Outpoint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Has(utxoKey(op))
}

// MarkSpent flags the output at op as spent and returns the updated
// record. Spending an already spent output fails with ErrAlreadySpent.
func (s *Store) MarkSpent(op types.Outpoint) (*UTXO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.get(op)
	if err != nil {
		return nil, err
	}
	if u.Spent {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySpent, op)
	}
	u.Spent = true
	if err := s.put(u); err != nil {
		return nil, err
	}
	log.UTXO.Debug().Str("outpoint", op.String()).Uint64("value", u.Value).Msg("Output spent")
	return u, nil
}

// HasUTXO reports whether an unspent or spent record exists for op.
func (s *Store) HasUTXO(op types.Outpoint) bool {
	ok, err := s.Has(op)
	return err == nil && ok
}

// GetUTXO returns the value and spent flag of the record at op.
func (s *Store) GetUTXO(op types.Outpoint) (uint64, bool, error) {
	u, err := s.Get(op)
	if err != nil {
		return 0, false, err
	}
	return u.Value, u.Spent, nil
}

// ForEach iterates over all records in key order.
func (s *Store) ForEach(fn func(*UTXO) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forEach(fn)
}

func (s *Store) forEach(fn func(*UTXO) error) error {
	return s.db.ForEach(prefixUTXO, func(key, value []byte) error {
		u, _, err := DeserializeRecord(value)
		if err != nil {
			return fmt.Errorf("utxo key %x: %w", key, err)
		}
		return fn(u)
	})
}

// GetByAddress returns all records claimable by addr, spent or not.
// It scans the address index and loads each referenced record.
func (s *Store) GetByAddress(addr string) ([]*UTXO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := addrPrefix([]byte(addr))
	var utxos []*UTXO
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		// Key layout: prefix + txid(32) + index(4).
		off := len(prefix)
		if len(key) != off+types.HashSize+4 {
			return nil // Malformed key, skip.
		}
		var op types.Outpoint
		copy(op.TxID[:], key[off:off+types.HashSize])
		op.Index = binary.BigEndian.Uint32(key[off+types.HashSize:])

		u, err := s.get(op)
		if err != nil {
			return nil // Record was deleted, skip.
		}
		utxos = append(utxos, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan address index: %w", err)
	}
	return utxos, nil
}

// Balance returns the total unspent value claimable by addr.
func (s *Store) Balance(addr string) (uint64, error) {
	utxos, err := s.GetByAddress(addr)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, u := range utxos {
		if !u.Spent {
			total += u.Value
		}
	}
	return total, nil
}

// Count returns the number of records and how many of them are unspent.
func (s *Store) Count() (total, unspent int, err error) {
	err = s.ForEach(func(u *UTXO) error {
		total++
		if !u.Spent {
			unspent++
		}
		return nil
	})
	return total, unspent, err
}

// Snapshot returns every record as a chain, in key order. With
// unspentOnly set, spent records are left out.
func (s *Store) Snapshot(unspentOnly bool) (*Chain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := NewChain()
	err := s.forEach(func(u *UTXO) error {
		if unspentOnly && u.Spent {
			return nil
		}
		return c.Append(u)
	})
	if err != nil {
		return nil, fmt.Errorf("utxo snapshot: %w", err)
	}
	return c, nil
}

// Load stores every record of c, replacing records with the same
// outpoint, and returns how many were written.
func (s *Store) Load(c *Chain) (int, error) {
	if c == nil {
		return 0, ErrNilChain
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, u := range c.All() {
		if err := s.put(u); err != nil {
			return n, fmt.Errorf("record %d: %w", n, err)
		}
		n++
	}
	log.UTXO.Info().Int("records", n).Msg("Snapshot loaded")
	return n, nil
}

// ClearAll removes all records and their address index entries.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := storage.NewBatch(s.db)
	for _, prefix := range [][]byte{prefixUTXO, prefixAddr} {
		if err := s.db.ForEach(prefix, func(key, _ []byte) error {
			return b.Delete(key)
		}); err != nil {
			return fmt.Errorf("scan prefix %s: %w", prefix, err)
		}
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("clear utxos: %w", err)
	}
	return nil
}
