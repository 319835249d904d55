package utxo

import (
	"encoding/hex"
	"testing"

	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/types"
)

const (
	testAddr   = "1KAWPAD8KovUo53pqHUY2bLNMTYa1obFX9"
	testScript = "76a914c73e88dfa45a940bbec4f5654b910254e8b5d7be88ac"
	blockHash  = "00000000d1145790a8694403d4063f323d499e655c83426834d4ce2f8dd4a2ee"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storage.NewMemory())
}

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func makeOutpoint(data string, index uint32) types.Outpoint {
	return types.Outpoint{
		TxID:  crypto.Sha256([]byte(data)),
		Index: index,
	}
}

func makeUTXO(t testing.TB, data string, index uint32, value uint64) *UTXO {
	t.Helper()
	op := makeOutpoint(data, index)
	return &UTXO{
		TxID:        op.TxID,
		BlockHash:   types.MustHexToHash(blockHash),
		Address:     []byte(testAddr),
		OutputIndex: index,
		Value:       value,
		Script:      types.Script(mustHex(t, testScript)),
	}
}
