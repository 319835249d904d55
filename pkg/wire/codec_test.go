package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kykchain/kyk/pkg/types"
)

func TestWriterReader_RoundTrip(t *testing.T) {
	h := types.MustHexToHash("00000000d1145790a8694403d4063f323d499e655c83426834d4ce2f8dd4a2ee")
	payload := []byte("script bytes")

	size := 1 + 4 + 8 + VarIntSize(70000) + 32 + 32 + VarIntSize(uint64(len(payload))) + len(payload)
	buf := make([]byte, size)
	w := NewWriter(buf)
	w.Uint8(7)
	w.Uint32(0xdeadbeef)
	w.Uint64(1 << 40)
	w.VarInt(70000)
	w.Hash(h)
	w.HashReversed(h)
	w.VarBytes(payload)
	if err := w.Err(); err != nil {
		t.Fatalf("Writer error: %v", err)
	}
	if w.Len() != size {
		t.Fatalf("Len() = %d, want %d", w.Len(), size)
	}

	r := NewReader(buf)
	if v, err := r.Uint8("u8"); err != nil || v != 7 {
		t.Errorf("Uint8 = %d, %v", v, err)
	}
	if v, err := r.Uint32("u32"); err != nil || v != 0xdeadbeef {
		t.Errorf("Uint32 = %#x, %v", v, err)
	}
	if v, err := r.Uint64("u64"); err != nil || v != 1<<40 {
		t.Errorf("Uint64 = %d, %v", v, err)
	}
	if v, err := r.VarInt("varint"); err != nil || v != 70000 {
		t.Errorf("VarInt = %d, %v", v, err)
	}
	if got, err := r.Hash("hash"); err != nil || got != h {
		t.Errorf("Hash = %s, %v", got, err)
	}
	if got, err := r.HashReversed("rhash"); err != nil || got != h {
		t.Errorf("HashReversed = %s, %v", got, err)
	}
	if got, err := r.VarBytes("bytes"); err != nil || !bytes.Equal(got, payload) {
		t.Errorf("VarBytes = %q, %v", got, err)
	}
	if r.Remaining() != 0 || r.Offset() != size {
		t.Errorf("Remaining() = %d, Offset() = %d", r.Remaining(), r.Offset())
	}
}

func TestWriter_HashReversedByteOrder(t *testing.T) {
	var h types.Hash
	h[0] = 0x01
	h[31] = 0xff
	buf := make([]byte, 32)
	w := NewWriter(buf)
	w.HashReversed(h)
	if buf[0] != 0xff || buf[31] != 0x01 {
		t.Errorf("HashReversed wrote %x", buf)
	}
}

func TestWriter_ShortBuffer(t *testing.T) {
	w := NewWriter(make([]byte, 5))
	w.Uint32(1)
	w.Uint32(2)
	w.Uint8(3)
	if !errors.Is(w.Err(), ErrShortBuffer) {
		t.Fatalf("Err() = %v, want ErrShortBuffer", w.Err())
	}
	if w.Len() != 4 {
		t.Errorf("Len() = %d, want 4 (writes after the failure are dropped)", w.Len())
	}
}

func TestReader_Truncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.Uint32("field"); !errors.Is(err, ErrTruncated) {
		t.Errorf("Uint32 error = %v, want ErrTruncated", err)
	}
	if r.Offset() != 0 {
		t.Errorf("failed read advanced the cursor to %d", r.Offset())
	}
	if _, err := NewReader(make([]byte, 31)).Hash("h"); !errors.Is(err, ErrTruncated) {
		t.Errorf("Hash error = %v, want ErrTruncated", err)
	}
}

func TestReader_VarBytes(t *testing.T) {
	if _, err := NewReader([]byte{0x00}).VarBytes("script"); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("zero length: got %v, want ErrInvalidLength", err)
	}
	_, err := NewReader([]byte{0x05, 0x01, 0x02}).VarBytes("script")
	if !errors.Is(err, ErrTruncated) || !errors.Is(err, ErrAllocationLimit) {
		t.Errorf("short: got %v, want ErrTruncated and ErrAllocationLimit", err)
	}
	huge := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}
	if _, err := NewReader(huge).VarBytes("script"); !errors.Is(err, ErrAllocationLimit) {
		t.Errorf("huge length: got %v, want ErrAllocationLimit", err)
	}

	src := []byte{0x02, 0xaa, 0xbb}
	got, err := NewReader(src).VarBytes("script")
	if err != nil {
		t.Fatalf("VarBytes error: %v", err)
	}
	src[1] = 0x00
	if got[0] != 0xaa {
		t.Error("VarBytes result aliases the input buffer")
	}
}

func TestReader_CheckCount(t *testing.T) {
	r := NewReader(make([]byte, 10))
	if err := r.CheckCount(5, 2, "items"); err != nil {
		t.Errorf("CheckCount(5, 2) on 10 bytes: %v", err)
	}
	err := r.CheckCount(6, 2, "items")
	if !errors.Is(err, ErrAllocationLimit) || !errors.Is(err, ErrTruncated) {
		t.Errorf("CheckCount(6, 2) = %v, want ErrAllocationLimit and ErrTruncated", err)
	}
}
