package consensushashing

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/hashes"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// TransactionID returns the id of tx: the hash of its encoding without
// witness data.
func TransactionID(tx *externalapi.DomainTransaction) *externalapi.DomainTransactionID {
	writer := hashes.NewHashWriter()
	err := serialization.SerializeTransaction(writer, tx, false)
	if err != nil {
		// this writer never return errors (no allocations or possible failures) so errors can only come from validity checks,
		// and we assume we never construct malformed transactions.
		panic(errors.Wrap(err, "TransactionID() failed. this should never fail for structurally-valid transactions"))
	}
	txID := externalapi.DomainTransactionID(*writer.Finalize())
	return &txID
}

// TransactionHash returns the witness hash of tx: the hash of its full
// encoding. It equals the id for transactions without witness data.
func TransactionHash(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	writer := hashes.NewHashWriter()
	err := serialization.SerializeTransaction(writer, tx, true)
	if err != nil {
		panic(errors.Wrap(err, "TransactionHash() failed. this should never fail for structurally-valid transactions"))
	}
	return writer.Finalize()
}
