package ldb

import (
	"github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type transaction struct {
	ldbTx    *leveldb.Transaction
	isClosed bool
}

func (tx *transaction) checkOpen() error {
	if tx.isClosed {
		return errors.New("transaction is already closed")
	}
	return nil
}

func (tx *transaction) Put(key *database.Key, value []byte) error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	return errors.WithStack(tx.ldbTx.Put(key.Bytes(), value, nil))
}

func (tx *transaction) Get(key *database.Key) ([]byte, error) {
	if err := tx.checkOpen(); err != nil {
		return nil, err
	}
	data, err := tx.ldbTx.Get(key.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func (tx *transaction) Has(key *database.Key) (bool, error) {
	if err := tx.checkOpen(); err != nil {
		return false, err
	}
	exists, err := tx.ldbTx.Has(key.Bytes(), nil)
	return exists, errors.WithStack(err)
}

func (tx *transaction) Delete(key *database.Key) error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	return errors.WithStack(tx.ldbTx.Delete(key.Bytes(), nil))
}

func (tx *transaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if err := tx.checkOpen(); err != nil {
		return nil, err
	}
	return newCursor(tx.ldbTx.NewIterator(util.BytesPrefix(bucket.Path()), nil), bucket), nil
}

func (tx *transaction) Commit() error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	tx.isClosed = true
	return errors.WithStack(tx.ldbTx.Commit())
}

func (tx *transaction) Rollback() error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	tx.isClosed = true
	tx.ldbTx.Discard()
	return nil
}

func (tx *transaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}
