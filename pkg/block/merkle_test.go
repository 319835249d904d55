package block

import (
	"testing"

	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/types"
)

// pair combines two display-order ids the way a merkle level does.
func pair(a, b types.Hash) types.Hash {
	return crypto.HashConcat(a.Reverse(), b.Reverse()).Reverse()
}

func TestComputeMerkleRoot_Empty(t *testing.T) {
	if root := ComputeMerkleRoot(nil); !root.IsZero() {
		t.Errorf("empty input should return zero hash, got %s", root)
	}
}

func TestComputeMerkleRoot_SingleHash(t *testing.T) {
	h := crypto.Sha256([]byte("single tx"))
	if root := ComputeMerkleRoot([]types.Hash{h}); root != h {
		t.Errorf("single hash should return itself: got %s, want %s", root, h)
	}
}

func TestComputeMerkleRoot_Block170(t *testing.T) {
	ids := []types.Hash{
		types.MustHexToHash(block170CoinbaseID),
		types.MustHexToHash(block170PaymentID),
	}
	if root := ComputeMerkleRoot(ids); root.String() != block170Root {
		t.Errorf("root = %s, want %s", root, block170Root)
	}
}

func TestComputeMerkleRoot_ThreeHashes(t *testing.T) {
	h1 := crypto.Sha256([]byte("tx1"))
	h2 := crypto.Sha256([]byte("tx2"))
	h3 := crypto.Sha256([]byte("tx3"))

	// With 3 hashes: h3 is duplicated -> [h1, h2, h3, h3]
	want := pair(pair(h1, h2), pair(h3, h3))
	if root := ComputeMerkleRoot([]types.Hash{h1, h2, h3}); root != want {
		t.Errorf("three hashes: got %s, want %s", root, want)
	}
}

func TestComputeMerkleRoot_FiveHashes(t *testing.T) {
	hs := make([]types.Hash, 5)
	for i := range hs {
		hs[i] = crypto.Sha256([]byte{byte(i)})
	}
	l1 := []types.Hash{pair(hs[0], hs[1]), pair(hs[2], hs[3]), pair(hs[4], hs[4])}
	want := pair(pair(l1[0], l1[1]), pair(l1[2], l1[2]))
	if root := ComputeMerkleRoot(hs); root != want {
		t.Errorf("five hashes: got %s, want %s", root, want)
	}
}

func TestComputeMerkleRoot_OrderMatters(t *testing.T) {
	h1 := crypto.Sha256([]byte("a"))
	h2 := crypto.Sha256([]byte("b"))
	if ComputeMerkleRoot([]types.Hash{h1, h2}) == ComputeMerkleRoot([]types.Hash{h2, h1}) {
		t.Error("different order should produce different root")
	}
}

func TestComputeMerkleRoot_DoesNotMutateInput(t *testing.T) {
	hs := []types.Hash{
		crypto.Sha256([]byte("a")),
		crypto.Sha256([]byte("b")),
		crypto.Sha256([]byte("c")),
	}
	orig := make([]types.Hash, len(hs))
	copy(orig, hs)
	ComputeMerkleRoot(hs)
	for i := range hs {
		if hs[i] != orig[i] {
			t.Errorf("input slice was mutated at index %d", i)
		}
	}
}
