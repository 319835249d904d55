package chain

import (
	"encoding/hex"
	"testing"

	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/internal/utxo"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/tx"
	"github.com/kykchain/kyk/pkg/types"
)

// Mainnet blocks 170 and 171, unframed.
const (
	block170Hex  = "0100000055bd840a78798ad0da853f68974f3d183e2bd1db6a842c1feecf222a00000000ff104ccb05421ab93e63f8c3ce5c2c2e9dbb37de2764b3a3175c8166562cac7d51b96a49ffff001d283e9e700201000000010000000000000000000000000000000000000000000000000000000000000000ffffffff0704ffff001d0102ffffffff0100f2052a01000000434104d46c4968bde02899d2aa0963367c7a6ce34eec332b32e42e5f3407e052d64ac625da6f0718e7b302140434bd725706957c092db53805b821a85b23a7ac61725bac000000000100000001c997a5e56e104102fa209c6a852dd90660a20b2d9c352423edce25857fcd3704000000004847304402204e45e16932b8af514961a1d3a1a25fdf3f4f7732e9d624c6c61548ab5fb8cd410220181522ec8eca07de4860a4acdd12909d831cc56cbbac4622082221a8768d1d0901ffffffff0200ca9a3b00000000434104ae1a62fe09c5f51b13905f07f06b99a2f7159b2225f374cd378d71302fa28414e7aab37397f554a7df5f142c21c1b7303b8a0626f1baded5c72a704f7e6cd84cac00286bee0000000043410411db93e1dcdb8a016b49840f8c53bc1eb68a382e97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b8b64f9d4c03f999b8643f656b412a3ac00000000"
	block170Hash = "00000000d1145790a8694403d4063f323d499e655c83426834d4ce2f8dd4a2ee"
	block171Hex  = "01000000eea2d48d2fced4346842835c659e493d323f06d4034469a8905714d100000000f293c86973e758ccd11975fa464d4c3e8500979c95425c7be6f0a65314d2f2d5c9ba6a49ffff001d07a8f2260101000000010000000000000000000000000000000000000000000000000000000000000000ffffffff0704ffff001d010effffffff0100f2052a01000000434104566824c312073315df60e5aa6490b6cdd80cd90f6a8f02e022ca3c2d52968c253006c9c602e03aed7be52d6ac55f5b557c72529bcc3899ace7eb4227153eb44bac00000000"
	block171Hash = "00000000c9ec538cab7f38ef9c67a95742f56ab07b0a37c5be6b02808dbfb4e0"

	block170CoinbaseID = "b1fea52486ce0c62bb442b530a3f0132b826c74e473d1f2c220bfa78111c5082"
	block170PaymentID  = "f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16"

	// P2PK recipients of block 170.
	block170MinerAddr  = "1PSSGeFHDnKNxiEyFrD1wcEaHr9hrQDDWc"
	block170PayeeAddr  = "1Q2TWHE3GMdB6BZKafqwxXtWAWgFt5Jvm3"
	block170ChangeAddr = "12cbQLTFMXRnSzktFkuoG3eHoMeFtpTu3S"

	testPubKey = "04c4ae8574bd6a8a89af1fad3a945b14f6745cc998f544ab193ffc568b33598f21" +
		"91dd06dd37c3b971f6f8452e84d86bcb82c29d7fb8787723ca08216a24051af3"

	testAddr = "1KAWPAD8KovUo53pqHUY2bLNMTYa1obFX9"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func decodeFixture(t *testing.T, s string) *block.Block {
	t.Helper()
	blk, _, err := block.DeserializeBlockBody(mustHex(t, s))
	if err != nil {
		t.Fatalf("DeserializeBlockBody() error: %v", err)
	}
	return blk
}

// testChain returns a ledger over a fresh in-memory database.
func testChain(t *testing.T, opts Options) (*Chain, storage.DB) {
	t.Helper()
	db := storage.NewMemory()
	ch, err := New(db, utxo.NewStore(storage.NewPrefixDB(db, []byte("utxo/"))), opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return ch, db
}

// makeBlock assembles a block on prev from a coinbase carrying note and
// the given extra transactions.
func makeBlock(t *testing.T, prev types.Hash, note string, txs ...*tx.Transaction) *block.Block {
	t.Helper()
	cb, err := tx.NewCoinbase([]byte(note), 50_0000_0000, mustHex(t, testPubKey))
	if err != nil {
		t.Fatalf("NewCoinbase() error: %v", err)
	}
	all := append([]*tx.Transaction{cb}, txs...)
	h, err := block.MakeHeader(all, 1, prev, 1231731025, 0x1d00ffff)
	if err != nil {
		t.Fatalf("MakeHeader() error: %v", err)
	}
	blk, err := block.MakeBlock(h, all)
	if err != nil {
		t.Fatalf("MakeBlock() error: %v", err)
	}
	return blk
}

// spendTx spends op, paying value back to the test key.
func spendTx(t *testing.T, op types.Outpoint, value uint64) *tx.Transaction {
	t.Helper()
	lock, err := crypto.P2PKHScript(mustHex(t, testPubKey))
	if err != nil {
		t.Fatalf("P2PKHScript() error: %v", err)
	}
	spend, err := tx.NewBuilder().
		AddInput(op, types.Script{0x51}).
		AddOutput(value, lock).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return spend
}
