package database

// DataAccessor is the common read/write surface of a Database and of a
// Transaction.
type DataAccessor interface {
	// Put sets the value for key, overwriting any previous value.
	Put(key *Key, value []byte) error

	// Get returns the value for key, or an error satisfying
	// IsNotFoundError.
	Get(key *Key) ([]byte, error)

	// Has returns whether key exists.
	Has(key *Key) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key *Key) error

	// Cursor opens a cursor over every key in bucket, in key order.
	Cursor(bucket *Bucket) (Cursor, error)
}

// Database is a key/value store.
type Database interface {
	DataAccessor

	// Begin opens a transaction. Writes made through it become visible
	// atomically on Commit.
	Begin() (Transaction, error)

	// Compact compacts the whole key range.
	Compact() error

	// Close closes the database.
	Close() error
}

// Transaction is an atomic batch of reads and writes.
type Transaction interface {
	DataAccessor

	// Commit atomically applies every write of the transaction.
	Commit() error

	// Rollback discards the transaction.
	Rollback() error

	// RollbackUnlessClosed discards the transaction unless it was already
	// committed or rolled back. Meant for defer.
	RollbackUnlessClosed() error
}

// Cursor iterates over the keys of a bucket.
type Cursor interface {
	// Next moves to the next key and returns whether one exists.
	Next() bool

	// First moves to the first key and returns whether one exists.
	First() bool

	// Key returns the current key.
	Key() (*Key, error)

	// Value returns the current value.
	Value() ([]byte, error)

	// Close releases the cursor.
	Close() error
}
