package node

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/kykchain/kyk/config"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/types"
)

// Mainnet blocks 170 and 171, unframed.
const (
	block170Hex = "0100000055bd840a78798ad0da853f68974f3d183e2bd1db6a842c1feecf222a00000000ff104ccb05421ab93e63f8c3ce5c2c2e9dbb37de2764b3a3175c8166562cac7d51b96a49ffff001d283e9e700201000000010000000000000000000000000000000000000000000000000000000000000000ffffffff0704ffff001d0102ffffffff0100f2052a01000000434104d46c4968bde02899d2aa0963367c7a6ce34eec332b32e42e5f3407e052d64ac625da6f0718e7b302140434bd725706957c092db53805b821a85b23a7ac61725bac000000000100000001c997a5e56e104102fa209c6a852dd90660a20b2d9c352423edce25857fcd3704000000004847304402204e45e16932b8af514961a1d3a1a25fdf3f4f7732e9d624c6c61548ab5fb8cd410220181522ec8eca07de4860a4acdd12909d831cc56cbbac4622082221a8768d1d0901ffffffff0200ca9a3b00000000434104ae1a62fe09c5f51b13905f07f06b99a2f7159b2225f374cd378d71302fa28414e7aab37397f554a7df5f142c21c1b7303b8a0626f1baded5c72a704f7e6cd84cac00286bee0000000043410411db93e1dcdb8a016b49840f8c53bc1eb68a382e97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b8b64f9d4c03f999b8643f656b412a3ac00000000"
	block171Hex = "01000000eea2d48d2fced4346842835c659e493d323f06d4034469a8905714d100000000f293c86973e758ccd11975fa464d4c3e8500979c95425c7be6f0a65314d2f2d5c9ba6a49ffff001d07a8f2260101000000010000000000000000000000000000000000000000000000000000000000000000ffffffff0704ffff001d010effffffff0100f2052a01000000434104566824c312073315df60e5aa6490b6cdd80cd90f6a8f02e022ca3c2d52968c253006c9c602e03aed7be52d6ac55f5b557c72529bcc3899ace7eb4227153eb44bac00000000"

	testPubKey = "04c4ae8574bd6a8a89af1fad3a945b14f6745cc998f544ab193ffc568b33598f21" +
		"91dd06dd37c3b971f6f8452e84d86bcb82c29d7fb8787723ca08216a24051af3"
)

func testConfig(t *testing.T, network config.NetworkType, backend string) *config.Config {
	t.Helper()
	cfg := config.Default(network)
	cfg.DataDir = t.TempDir()
	cfg.DB.Backend = backend
	cfg.Log.Level = "error"
	cfg.Coinbase.PubKey = testPubKey
	cfg.Coinbase.Note = "kyk test"
	t.Cleanup(func() { types.SetAddressVersion(types.MainnetAddressVersion) })
	return cfg
}

func testNode(t *testing.T, cfg *config.Config) *Node {
	t.Helper()
	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { n.Close() })
	return n
}

// framedFixtures returns blocks 170 and 171 as a mainnet block file.
func framedFixtures(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, s := range []string{block170Hex, block171Hex} {
		raw, err := hex.DecodeString(s)
		if err != nil {
			t.Fatalf("bad hex: %v", err)
		}
		blk, _, err := block.DeserializeBlockBody(raw)
		if err != nil {
			t.Fatalf("DeserializeBlockBody() error: %v", err)
		}
		framed, err := blk.Serialize()
		if err != nil {
			t.Fatalf("Serialize() error: %v", err)
		}
		buf.Write(framed)
	}
	return buf.Bytes()
}
