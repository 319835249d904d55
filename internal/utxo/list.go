package utxo

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"sync"

	"github.com/kykchain/kyk/pkg/wire"
)

// Chain errors.
var (
	ErrNilChain  = errors.New("utxo chain is nil")
	ErrNilRecord = errors.New("utxo record is nil")
	ErrOverflow  = errors.New("utxo value overflow")
)

// Chain is an append-only, ordered sequence of UTXO records: a ledger
// snapshot. It keeps a read cursor for sequential walks. A Chain is safe
// for concurrent use.
type Chain struct {
	mu      sync.RWMutex
	records []*UTXO
	cursor  int
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Append adds u at the tail. The chain takes ownership of u.
func (c *Chain) Append(u *UTXO) error {
	if c == nil {
		return ErrNilChain
	}
	if u == nil {
		return ErrNilRecord
	}
	c.mu.Lock()
	c.records = append(c.records, u)
	c.mu.Unlock()
	return nil
}

// Len returns the number of records.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Head returns the first record, or nil for an empty chain.
func (c *Chain) Head() *UTXO {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.records) == 0 {
		return nil
	}
	return c.records[0]
}

// Tail returns the last record, or nil for an empty chain.
func (c *Chain) Tail() *UTXO {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.records) == 0 {
		return nil
	}
	return c.records[len(c.records)-1]
}

// Next returns the record under the cursor and advances it. It returns nil
// once the cursor has passed the tail; records appended later are then
// returned by subsequent calls.
func (c *Chain) Next() *UTXO {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor >= len(c.records) {
		return nil
	}
	u := c.records[c.cursor]
	c.cursor++
	return u
}

// Rewind moves the cursor back to the head.
func (c *Chain) Rewind() {
	c.mu.Lock()
	c.cursor = 0
	c.mu.Unlock()
}

// All iterates the records from head to tail over a point-in-time view.
func (c *Chain) All() iter.Seq2[int, *UTXO] {
	records := c.Records()
	return func(yield func(int, *UTXO) bool) {
		for i, u := range records {
			if !yield(i, u) {
				return
			}
		}
	}
}

// Records returns a copy of the record list.
func (c *Chain) Records() []*UTXO {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*UTXO, len(c.records))
	copy(out, c.records)
	return out
}

// Value returns the total value of the unspent records.
func (c *Chain) Value() (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total uint64
	for i, u := range c.records {
		if u.Spent {
			continue
		}
		if total > math.MaxUint64-u.Value {
			return 0, fmt.Errorf("%w at record %d", ErrOverflow, i)
		}
		total += u.Value
	}
	return total, nil
}

// SerializeSize returns the length of the concatenated record encodings.
func (c *Chain) SerializeSize() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serializeSize()
}

func (c *Chain) serializeSize() (int, error) {
	var n int
	for i, u := range c.records {
		size, err := u.SerializeSize()
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		n += size
	}
	return n, nil
}

// Serialize returns every record encoded back to back, head first.
func (c *Chain) Serialize() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	size, err := c.serializeSize()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	w := wire.NewWriter(buf)
	for _, u := range c.records {
		u.Encode(w)
	}
	if w.Err() != nil || w.Len() != size {
		panic(fmt.Sprintf("utxo chain serialize: wrote %d of %d bytes: %v", w.Len(), size, w.Err()))
	}
	return buf, nil
}

// DeserializeChain decodes count consecutive records from buf into a new
// chain, in input order. No chain is returned if any record fails.
func DeserializeChain(buf []byte, count int) (*Chain, int, error) {
	if count < 0 {
		return nil, 0, fmt.Errorf("%w: negative count %d", ErrMalformedRecord, count)
	}
	r := wire.NewReader(buf)
	if err := r.CheckCount(uint64(count), minRecordLen, "records"); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	c := &Chain{records: make([]*UTXO, 0, count)}
	for i := 0; i < count; i++ {
		u, err := DecodeRecord(r)
		if err != nil {
			return nil, 0, fmt.Errorf("record %d: %w", i, err)
		}
		c.records = append(c.records, u)
	}
	return c, r.Offset(), nil
}
