package utxo

import (
	"errors"
	"testing"

	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/pkg/tx"
)

func TestStore_PutAndGet(t *testing.T) {
	s := testStore(t)
	u := makeUTXO(t, "tx1", 0, 5000)

	if err := s.Put(u); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := s.Get(u.Outpoint())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Value != u.Value || got.Outpoint() != u.Outpoint() || got.BlockHash != u.BlockHash {
		t.Errorf("Get() = %+v, want %+v", got, u)
	}
	if ok, _ := s.Has(u.Outpoint()); !ok {
		t.Error("Has() = false after Put()")
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := testStore(t)
	if _, err := s.Get(makeOutpoint("missing", 0)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := testStore(t)
	u := makeUTXO(t, "del", 0, 1)
	s.Put(u)

	if err := s.Delete(u.Outpoint()); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if ok, _ := s.Has(u.Outpoint()); ok {
		t.Error("Has() = true after Delete()")
	}
	utxos, err := s.GetByAddress(testAddr)
	if err != nil {
		t.Fatalf("GetByAddress() error: %v", err)
	}
	if len(utxos) != 0 {
		t.Errorf("address index still lists %d records", len(utxos))
	}
}

// deleteFailingDB rejects deletes and hides the batch support of the
// wrapped DB.
type deleteFailingDB struct{ storage.DB }

func (deleteFailingDB) Delete([]byte) error { return errors.New("read-only") }

func TestStore_DeleteErrors(t *testing.T) {
	s := NewStore(deleteFailingDB{storage.NewMemory()})
	u := makeUTXO(t, "ro", 0, 1)
	if err := s.Put(u); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := s.Delete(u.Outpoint()); err == nil {
		t.Error("Delete() should report the failed delete")
	}
	if ok, _ := s.Has(u.Outpoint()); !ok {
		t.Error("record lost after a failed Delete()")
	}

	if err := testStore(t).Delete(makeOutpoint("missing", 0)); err != nil {
		t.Errorf("Delete() of missing outpoint error: %v", err)
	}
}

func TestStore_PutReplacesAddressIndex(t *testing.T) {
	s := testStore(t)
	first := makeUTXO(t, "dup", 0, 100)
	s.Put(first)

	second := makeUTXO(t, "dup", 0, 250)
	second.Address = []byte("1OtherAddress")
	if err := s.Put(second); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	if utxos, _ := s.GetByAddress(testAddr); len(utxos) != 0 {
		t.Errorf("old address still lists %d records", len(utxos))
	}
	if bal, _ := s.Balance("1OtherAddress"); bal != 250 {
		t.Errorf("Balance() = %d, want 250", bal)
	}
	if total, _, _ := s.Count(); total != 1 {
		t.Errorf("Count() = %d, want 1", total)
	}
}

func TestStore_MarkSpent(t *testing.T) {
	s := testStore(t)
	u := makeUTXO(t, "spend", 1, 700)
	s.Put(u)

	got, err := s.MarkSpent(u.Outpoint())
	if err != nil {
		t.Fatalf("MarkSpent() error: %v", err)
	}
	if !got.Spent {
		t.Error("returned record not flagged spent")
	}
	stored, _ := s.Get(u.Outpoint())
	if !stored.Spent {
		t.Error("stored record not flagged spent")
	}
	if _, err := s.MarkSpent(u.Outpoint()); !errors.Is(err, ErrAlreadySpent) {
		t.Errorf("second MarkSpent() = %v, want ErrAlreadySpent", err)
	}
	if _, err := s.MarkSpent(makeOutpoint("nope", 0)); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkSpent(missing) = %v, want ErrNotFound", err)
	}
}

func TestStore_AddressIndexAndBalance(t *testing.T) {
	s := testStore(t)
	s.Put(makeUTXO(t, "a", 0, 100))
	s.Put(makeUTXO(t, "a", 1, 200))
	spent := makeUTXO(t, "b", 0, 400)
	spent.Spent = true
	s.Put(spent)

	other := makeUTXO(t, "c", 0, 1000)
	other.Address = []byte("1OtherAddress")
	s.Put(other)

	utxos, err := s.GetByAddress(testAddr)
	if err != nil {
		t.Fatalf("GetByAddress() error: %v", err)
	}
	if len(utxos) != 3 {
		t.Errorf("GetByAddress() returned %d records, want 3", len(utxos))
	}
	bal, err := s.Balance(testAddr)
	if err != nil {
		t.Fatalf("Balance() error: %v", err)
	}
	if bal != 300 {
		t.Errorf("Balance() = %d, want 300", bal)
	}
	if bal, _ := s.Balance("1OtherAddress"); bal != 1000 {
		t.Errorf("other Balance() = %d, want 1000", bal)
	}
	if bal, _ := s.Balance("1Other"); bal != 0 {
		t.Errorf("address prefix matched another address: %d", bal)
	}

	total, unspent, err := s.Count()
	if err != nil || total != 4 || unspent != 3 {
		t.Errorf("Count() = %d, %d, %v", total, unspent, err)
	}
}

func TestStore_SnapshotAndLoad(t *testing.T) {
	s := testStore(t)
	for i := uint32(0); i < 4; i++ {
		u := makeUTXO(t, "snap", i, uint64(i+1))
		u.Spent = i%2 == 1
		s.Put(u)
	}

	all, err := s.Snapshot(false)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if all.Len() != 4 {
		t.Errorf("Snapshot(false).Len() = %d, want 4", all.Len())
	}
	unspent, _ := s.Snapshot(true)
	if unspent.Len() != 2 {
		t.Errorf("Snapshot(true).Len() = %d, want 2", unspent.Len())
	}

	// Records of one transaction come out in output order.
	i := uint32(0)
	for _, u := range all.All() {
		if u.OutputIndex != i {
			t.Errorf("snapshot order: got index %d, want %d", u.OutputIndex, i)
		}
		i++
	}

	fresh := testStore(t)
	n, err := fresh.Load(all)
	if err != nil || n != 4 {
		t.Fatalf("Load() = %d, %v", n, err)
	}
	c1, _ := s.Commitment()
	c2, _ := fresh.Commitment()
	if c1 != c2 {
		t.Error("loaded store has a different commitment")
	}
	if _, err := fresh.Load(nil); !errors.Is(err, ErrNilChain) {
		t.Errorf("Load(nil) = %v", err)
	}
}

func TestStore_ClearAll(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	s.Put(makeUTXO(t, "x", 0, 1))
	s.Put(makeUTXO(t, "y", 0, 1))

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error: %v", err)
	}
	if db.Len() != 0 {
		t.Errorf("database still holds %d keys", db.Len())
	}
}

func TestStore_UTXOProvider(t *testing.T) {
	s := testStore(t)
	u := makeUTXO(t, "prov", 0, 5000)
	s.Put(u)

	var p tx.UTXOProvider = s
	if !p.HasUTXO(u.Outpoint()) {
		t.Error("HasUTXO() = false")
	}
	value, spent, err := p.GetUTXO(u.Outpoint())
	if err != nil || value != 5000 || spent {
		t.Errorf("GetUTXO() = %d, %v, %v", value, spent, err)
	}
	if p.HasUTXO(makeOutpoint("none", 0)) {
		t.Error("HasUTXO() = true for missing outpoint")
	}
}

func TestStore_Badger(t *testing.T) {
	db, err := storage.NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()

	s := NewStore(db)
	u := makeUTXO(t, "badger", 2, 42)
	if err := s.Put(u); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if _, err := s.MarkSpent(u.Outpoint()); err != nil {
		t.Fatalf("MarkSpent() error: %v", err)
	}
	got, err := s.Get(u.Outpoint())
	if err != nil || !got.Spent || got.Value != 42 {
		t.Errorf("Get() = %+v, %v", got, err)
	}
}
