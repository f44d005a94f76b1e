package ldb

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/freicoin/freicoind/infrastructure/db/database"
)

func prepareDatabaseForTest(t *testing.T, testName string) (*LevelDB, func()) {
	path, err := os.MkdirTemp("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
	}
	db, err := NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("%s: NewLevelDB unexpectedly failed: %s", testName, err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
		_ = os.RemoveAll(path)
	}
}

func TestLevelDBSanity(t *testing.T) {
	db, teardown := prepareDatabaseForTest(t, "TestLevelDBSanity")
	defer teardown()

	key := database.MakeBucket([]byte("coins")).Key([]byte("k"))
	if _, err := db.Get(key); !database.IsNotFoundError(err) {
		t.Fatalf("TestLevelDBSanity: Get of a missing key returned %v, want ErrNotFound", err)
	}
	if err := db.Put(key, []byte("v")); err != nil {
		t.Fatalf("TestLevelDBSanity: Put unexpectedly failed: %s", err)
	}
	value, err := db.Get(key)
	if err != nil || !bytes.Equal(value, []byte("v")) {
		t.Fatalf("TestLevelDBSanity: Get returned (%q, %v)", value, err)
	}
	if exists, err := db.Has(key); err != nil || !exists {
		t.Fatalf("TestLevelDBSanity: Has returned (%t, %v)", exists, err)
	}
	if err := db.Delete(key); err != nil {
		t.Fatalf("TestLevelDBSanity: Delete unexpectedly failed: %s", err)
	}
	if exists, _ := db.Has(key); exists {
		t.Fatalf("TestLevelDBSanity: key still exists after Delete")
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	db, err := NewInMemoryLevelDB()
	if err != nil {
		t.Fatalf("NewInMemoryLevelDB: %s", err)
	}
	defer db.Close()

	bucket := database.MakeBucket([]byte("undo"))
	committed := bucket.Key([]byte("committed"))
	discarded := bucket.Key([]byte("discarded"))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("TestTransactionCommitAndRollback: Begin: %s", err)
	}
	if err := tx.Put(committed, []byte{1}); err != nil {
		t.Fatalf("TestTransactionCommitAndRollback: Put: %s", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("TestTransactionCommitAndRollback: Commit: %s", err)
	}
	if err := tx.Put(committed, []byte{2}); err == nil {
		t.Fatalf("TestTransactionCommitAndRollback: Put on a committed transaction succeeded")
	}

	tx, err = db.Begin()
	if err != nil {
		t.Fatalf("TestTransactionCommitAndRollback: Begin: %s", err)
	}
	if err := tx.Put(discarded, []byte{3}); err != nil {
		t.Fatalf("TestTransactionCommitAndRollback: Put: %s", err)
	}
	if err := tx.RollbackUnlessClosed(); err != nil {
		t.Fatalf("TestTransactionCommitAndRollback: Rollback: %s", err)
	}
	if err := tx.RollbackUnlessClosed(); err != nil {
		t.Fatalf("TestTransactionCommitAndRollback: second RollbackUnlessClosed: %s", err)
	}

	if exists, _ := db.Has(committed); !exists {
		t.Fatalf("TestTransactionCommitAndRollback: committed key is missing")
	}
	if exists, _ := db.Has(discarded); exists {
		t.Fatalf("TestTransactionCommitAndRollback: rolled back key exists")
	}
}

func TestCursorVisitsOnlyItsBucket(t *testing.T) {
	db, err := NewInMemoryLevelDB()
	if err != nil {
		t.Fatalf("NewInMemoryLevelDB: %s", err)
	}
	defer db.Close()

	blocks := database.MakeBucket([]byte("blocks"))
	other := database.MakeBucket([]byte("blocksx"))
	for i := 0; i < 5; i++ {
		if err := db.Put(blocks.Key([]byte(fmt.Sprintf("key%d", i))), []byte(fmt.Sprintf("value%d", i))); err != nil {
			t.Fatalf("Put: %s", err)
		}
	}
	if err := db.Put(other.Key([]byte("key0")), []byte("other")); err != nil {
		t.Fatalf("Put: %s", err)
	}

	cursor, err := db.Cursor(blocks)
	if err != nil {
		t.Fatalf("Cursor: %s", err)
	}
	count := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("TestCursorVisitsOnlyItsBucket: Key: %s", err)
		}
		value, err := cursor.Value()
		if err != nil {
			t.Fatalf("TestCursorVisitsOnlyItsBucket: Value: %s", err)
		}
		want := fmt.Sprintf("key%d", count)
		if string(key.Suffix()) != want || string(value) != fmt.Sprintf("value%d", count) {
			t.Fatalf("TestCursorVisitsOnlyItsBucket: got %s=%s at position %d", key.Suffix(), value, count)
		}
		count++
	}
	if count != 5 {
		t.Fatalf("TestCursorVisitsOnlyItsBucket: visited %d keys, want 5", count)
	}
	if err := cursor.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}
	if err := cursor.Close(); err == nil {
		t.Fatalf("TestCursorVisitsOnlyItsBucket: closing twice succeeded")
	}
}
