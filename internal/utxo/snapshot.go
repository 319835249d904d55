package utxo

import (
	"errors"
	"fmt"
	"io"

	"github.com/kykchain/kyk/pkg/wire"
)

// ErrTrailingData is returned by ReadSnapshot when bytes follow the last
// declared record.
var ErrTrailingData = errors.New("trailing data after snapshot")

// WriteSnapshot writes c to w as a record count followed by the chain
// encoding: count(varint) | record... .
func WriteSnapshot(w io.Writer, c *Chain) error {
	if c == nil {
		return ErrNilChain
	}
	records := c.Records()
	buf := wire.EncodeVarInt(uint64(len(records)))
	for i, u := range records {
		data, err := u.Serialize()
		if err != nil {
			return fmt.Errorf("encode snapshot: record %d: %w", i, err)
		}
		buf = append(buf, data...)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Chain, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	count, n, err := wire.ReadVarInt(data)
	if err != nil {
		return nil, fmt.Errorf("%w: count: %w", ErrMalformedRecord, err)
	}
	if count > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %w: %d records declared", ErrMalformedRecord, wire.ErrAllocationLimit, count)
	}
	c, used, err := DeserializeChain(data[n:], int(count))
	if err != nil {
		return nil, err
	}
	if rest := len(data) - n - used; rest != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, rest)
	}
	return c, nil
}
