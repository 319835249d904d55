package tx

import (
	"encoding/hex"
	"testing"

	"github.com/kykchain/kyk/pkg/types"
)

// Transactions of mainnet block 170: the coinbase and the first
// person-to-person payment.
const (
	coinbase170Hex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff0704ffff001d0102ffffffff0100f2052a01000000434104d46c4968bde02899d2aa0963367c7a6ce34eec332b32e42e5f3407e052d64ac625da6f0718e7b302140434bd725706957c092db53805b821a85b23a7ac61725bac00000000"
	coinbase170ID  = "b1fea52486ce0c62bb442b530a3f0132b826c74e473d1f2c220bfa78111c5082"

	payment170Hex = "0100000001c997a5e56e104102fa209c6a852dd90660a20b2d9c352423edce25857fcd3704000000004847304402204e45e16932b8af514961a1d3a1a25fdf3f4f7732e9d624c6c61548ab5fb8cd410220181522ec8eca07de4860a4acdd12909d831cc56cbbac4622082221a8768d1d0901ffffffff0200ca9a3b00000000434104ae1a62fe09c5f51b13905f07f06b99a2f7159b2225f374cd378d71302fa28414e7aab37397f554a7df5f142c21c1b7303b8a0626f1baded5c72a704f7e6cd84cac00286bee0000000043410411db93e1dcdb8a016b49840f8c53bc1eb68a382e97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b8b64f9d4c03f999b8643f656b412a3ac00000000"
	payment170ID  = "f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16"
	payment170Src = "0437cd7f8525ceed2324359c2d0ba26006d92d856a9c20fa0241106ee5a597c9"

	testPubKey = "04c4ae8574bd6a8a89af1fad3a945b14f6745cc998f544ab193ffc568b33598f21" +
		"91dd06dd37c3b971f6f8452e84d86bcb82c29d7fb8787723ca08216a24051af3"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func testP2PKHScript(b byte) types.Script {
	return types.P2PKHScript(types.Address{b})
}

// validTx returns a one-in one-out transaction that passes Validate.
func validTx() *Transaction {
	return &Transaction{
		Version: 1,
		Inputs: []Input{{
			PrevOut:  types.Outpoint{TxID: types.Hash{0x01}, Index: 0},
			Script:   types.Script{0x51},
			Sequence: DefaultSequence,
		}},
		Outputs: []Output{{Value: 1000, Script: testP2PKHScript(0xaa)}},
	}
}
