package storage

import (
	"errors"
	"fmt"
	"testing"
)

// ledgerNamespaces mirrors how the node splits one database between the
// block store and the UTXO store.
func ledgerNamespaces() (inner *MemoryDB, chainDB, utxoDB *PrefixDB) {
	inner = NewMemory()
	return inner, NewPrefixDB(inner, []byte("chain/")), NewPrefixDB(inner, []byte("utxo/"))
}

func TestPrefixDB_RoundTrip(t *testing.T) {
	inner, chainDB, _ := ledgerNamespaces()

	if err := chainDB.Put([]byte("s/tip"), []byte{0xee, 0xa2}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := chainDB.Get([]byte("s/tip"))
	if err != nil || string(got) != "\xee\xa2" {
		t.Fatalf("Get() = %x, %v", got, err)
	}
	if ok, _ := inner.Has([]byte("chain/s/tip")); !ok {
		t.Error("key not stored under the namespace")
	}

	if err := chainDB.Delete([]byte("s/tip")); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := chainDB.Get([]byte("s/tip")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() = %v, want ErrNotFound", err)
	}
}

func TestPrefixDB_NamespacesIsolated(t *testing.T) {
	_, chainDB, utxoDB := ledgerNamespaces()

	chainDB.Put([]byte("k"), []byte("block"))
	utxoDB.Put([]byte("k"), []byte("output"))

	for name, tt := range map[string]struct {
		db   *PrefixDB
		want string
	}{
		"chain": {chainDB, "block"},
		"utxo":  {utxoDB, "output"},
	} {
		got, err := tt.db.Get([]byte("k"))
		if err != nil || string(got) != tt.want {
			t.Errorf("%s Get() = %q, %v, want %q", name, got, err, tt.want)
		}
	}
	if ok, _ := chainDB.Has([]byte("utxo/k")); ok {
		t.Error("chain namespace sees the raw utxo key")
	}
}

func TestPrefixDB_ForEach(t *testing.T) {
	_, chainDB, utxoDB := ledgerNamespaces()
	for h := 0; h < 3; h++ {
		chainDB.Put([]byte(fmt.Sprintf("h/%d", h)), []byte("hash"))
	}
	chainDB.Put([]byte("b/x"), []byte("block"))
	utxoDB.Put([]byte("h/9"), []byte("not a height"))

	var keys []string
	err := chainDB.ForEach([]byte("h/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach() error: %v", err)
	}
	if fmt.Sprint(keys) != "[h/0 h/1 h/2]" {
		t.Errorf("ForEach(h/) keys = %v, want namespace stripped and utxo keys excluded", keys)
	}

	stop := errors.New("stop")
	calls := 0
	err = chainDB.ForEach(nil, func(_, _ []byte) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || calls != 2 {
		t.Errorf("ForEach() stop = %v after %d calls", err, calls)
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	_, chainDB, utxoDB := ledgerNamespaces()
	chainDB.Put([]byte("b/1"), []byte("1"))
	chainDB.Put([]byte("b/2"), []byte("2"))
	utxoDB.Put([]byte("b/1"), []byte("survives"))

	if err := chainDB.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll() error: %v", err)
	}
	if ok, _ := chainDB.Has([]byte("b/1")); ok {
		t.Error("chain keys left after DeleteAll()")
	}
	if got, err := utxoDB.Get([]byte("b/1")); err != nil || string(got) != "survives" {
		t.Errorf("utxo namespace touched: %q, %v", got, err)
	}

	if err := NewPrefixDB(NewMemory(), []byte("empty/")).DeleteAll(); err != nil {
		t.Errorf("DeleteAll() on empty namespace: %v", err)
	}
}

func TestPrefixDB_CloseLeavesInnerOpen(t *testing.T) {
	inner, chainDB, utxoDB := ledgerNamespaces()
	utxoDB.Put([]byte("k"), []byte("v"))

	if err := chainDB.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if got, err := inner.Get([]byte("utxo/k")); err != nil || string(got) != "v" {
		t.Errorf("inner Get() after namespace Close() = %q, %v", got, err)
	}
}

func TestPrefixDB_Batch(t *testing.T) {
	inner, chainDB, _ := ledgerNamespaces()
	chainDB.Put([]byte("h/old"), []byte("x"))

	b := chainDB.NewBatch()
	b.Put([]byte("b/new"), []byte("block"))
	b.Put([]byte("h/0"), []byte("hash"))
	b.Delete([]byte("h/old"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	for _, k := range []string{"chain/b/new", "chain/h/0"} {
		if ok, _ := inner.Has([]byte(k)); !ok {
			t.Errorf("%s missing after Commit()", k)
		}
	}
	if ok, _ := inner.Has([]byte("chain/h/old")); ok {
		t.Error("batched delete not applied under the namespace")
	}
}

// plainDB hides the Batcher implementation of the wrapped DB.
type plainDB struct{ DB }

func TestPrefixDB_BatchFallback(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(plainDB{inner}, []byte("chain/"))

	b := db.NewBatch()
	b.Put([]byte("s/tip"), []byte("v"))
	if ok, _ := inner.Has([]byte("chain/s/tip")); ok {
		t.Fatal("fallback batch wrote before Commit()")
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if ok, _ := inner.Has([]byte("chain/s/tip")); !ok {
		t.Fatal("fallback batch did not write on Commit()")
	}
}
