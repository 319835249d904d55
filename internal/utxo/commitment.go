package utxo

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/types"
)

// Commitment computes a merkle root over the records of c. Each record is
// hashed with BLAKE3 over its encoding, the hashes are sorted, and a merkle
// tree is built from them, so the result does not depend on record order.
// Returns a zero hash for an empty chain.
func Commitment(c *Chain) (types.Hash, error) {
	if c == nil {
		return types.Hash{}, ErrNilChain
	}
	var hashes []types.Hash
	for i, u := range c.All() {
		data, err := u.Serialize()
		if err != nil {
			return types.Hash{}, fmt.Errorf("utxo commitment: record %d: %w", i, err)
		}
		hashes = append(hashes, crypto.FastHash(data))
	}
	if len(hashes) == 0 {
		return types.Hash{}, nil
	}

	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	return block.ComputeMerkleRoot(hashes), nil
}

// Commitment returns the commitment of the store's current records.
func (s *Store) Commitment() (types.Hash, error) {
	c, err := s.Snapshot(false)
	if err != nil {
		return types.Hash{}, err
	}
	return Commitment(c)
}
