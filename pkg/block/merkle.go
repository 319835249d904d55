package block

import (
	"fmt"

	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/tx"
	"github.com/kykchain/kyk/pkg/types"
)

// ComputeMerkleRoot calculates the merkle root of display-order
// transaction ids and returns it in display order.
//
// Algorithm:
//   - 0 hashes: returns zero hash
//   - 1 hash: returns that hash
//   - Otherwise: ids are reversed into internal byte order, hashed
//     pairwise with SHA-256d (duplicating the last element if the layer
//     is odd) until one hash remains, which is reversed back.
func ComputeMerkleRoot(txHashes []types.Hash) types.Hash {
	if len(txHashes) == 0 {
		return types.Hash{}
	}
	if len(txHashes) == 1 {
		return txHashes[0]
	}

	// Work on a copy so we don't mutate the caller's slice.
	level := make([]types.Hash, len(txHashes))
	for i, h := range txHashes {
		level[i] = h.Reverse()
	}

	for len(level) > 1 {
		// If odd, duplicate the last element.
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.HashConcat(level[i], level[i+1])
		}
		level = next
	}

	return level[0].Reverse()
}

// TxHashes returns the id of every transaction in order.
func TxHashes(txs []*tx.Transaction) ([]types.Hash, error) {
	ids := make([]types.Hash, len(txs))
	for i, t := range txs {
		if t == nil {
			return nil, fmt.Errorf("tx %d: %w", i, ErrNilTransaction)
		}
		id, err := t.Hash()
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}
