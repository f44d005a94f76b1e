package consensushashing

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/hashes"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint32

// Hash type bits from the end of a signature.
const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// SigHashNoLockHeight leaves the lock height out of the digest. It
	// never comes from a signature, whose hash type is a single byte, and
	// is only set by checkers built for externally produced test vectors.
	SigHashNoLockHeight SigHashType = 0x100

	// SigHashMask defines the number of bits of the hash type which is used
	// to identify which outputs are signed.
	SigHashMask = 0x1f
)

// ErrSigHashSingleOutOfRange is returned for a SigHashSingle digest of an
// input that has no output at the same index.
var ErrSigHashSingleOutOfRange = errors.New("sigHashSingle index out of bounds")

// SigVersion selects the digest algorithm.
type SigVersion int

const (
	// SigVersionBase is the digest of scripts outside witness programs.
	SigVersionBase SigVersion = iota

	// SigVersionWitnessV0 is the digest of version 0 witness programs.
	SigVersionWitnessV0
)

// PrecomputedTransactionData holds the parts of the witness digest shared by
// every input of a transaction.
type PrecomputedTransactionData struct {
	HashPrevouts *externalapi.DomainHash
	HashSequence *externalapi.DomainHash
	HashOutputs  *externalapi.DomainHash
}

// NewPrecomputedTransactionData computes the shared digest parts of tx.
func NewPrecomputedTransactionData(tx *externalapi.DomainTransaction) *PrecomputedTransactionData {
	return &PrecomputedTransactionData{
		HashPrevouts: hashPrevouts(tx),
		HashSequence: hashSequence(tx),
		HashOutputs:  hashOutputs(tx.Outputs),
	}
}

// CalculateSignatureHash returns the digest signed by a signature of hash
// type hashType on input idx of tx.
//
// scriptCode is the script being executed with OP_CODESEPARATORs already
// removed for the base version. amount is the value of the spent output and
// is only committed to by the witness version. precomputed may be nil.
func CalculateSignatureHash(scriptCode []byte, tx *externalapi.DomainTransaction, idx int, hashType SigHashType,
	amount int64, sigVersion SigVersion, precomputed *PrecomputedTransactionData) (*externalapi.DomainHash, error) {

	if idx < 0 || idx >= len(tx.Inputs) {
		return nil, errors.Errorf("input index %d out of range for a transaction with %d inputs", idx, len(tx.Inputs))
	}

	// The SigHashSingle signature type signs only the corresponding input
	// and output (the output with the same index number as the input).
	//
	// Since transactions can have more inputs than outputs, this means it
	// is improper to use SigHashSingle on input indices that don't have a
	// corresponding output.
	if hashType&SigHashMask == SigHashSingle && idx >= len(tx.Outputs) {
		return nil, errors.WithStack(ErrSigHashSingleOutOfRange)
	}

	if sigVersion == SigVersionWitnessV0 {
		return calculateWitnessSignatureHash(scriptCode, tx, idx, hashType, amount, precomputed), nil
	}
	return calculateBaseSignatureHash(scriptCode, tx, idx, hashType), nil
}

func calculateBaseSignatureHash(scriptCode []byte, tx *externalapi.DomainTransaction, idx int,
	hashType SigHashType) *externalapi.DomainHash {

	// Make a shallow copy of the transaction, zeroing out the script for
	// all inputs that are not currently being processed.
	txCopy := shallowCopyTx(tx)
	for i := range txCopy.Inputs {
		if i == idx {
			txCopy.Inputs[idx].SignatureScript = scriptCode
		} else {
			txCopy.Inputs[i].SignatureScript = nil
		}
		txCopy.Inputs[i].Witness = nil
	}

	switch hashType & SigHashMask {
	case SigHashNone:
		txCopy.Outputs = txCopy.Outputs[0:0] // Empty slice.
		for i := range txCopy.Inputs {
			if i != idx {
				txCopy.Inputs[i].Sequence = 0
			}
		}

	case SigHashSingle:
		// Resize output array to up to and including requested index.
		txCopy.Outputs = txCopy.Outputs[:idx+1]

		// All but current output get blanked out.
		for i := 0; i < idx; i++ {
			txCopy.Outputs[i] = &externalapi.DomainTransactionOutput{Value: -1}
		}

		// Sequence on all other inputs is 0, too.
		for i := range txCopy.Inputs {
			if i != idx {
				txCopy.Inputs[i].Sequence = 0
			}
		}

	default:
		// Consensus treats undefined hashtypes like normal SigHashAll
		// for purposes of hash generation.
		fallthrough
	case SigHashAll:
		// Nothing special here.
	}
	if hashType&SigHashAnyOneCanPay != 0 {
		txCopy.Inputs = txCopy.Inputs[idx : idx+1]
	}

	// The final hash is the hash of both the serialized modified
	// transaction and the hash type (encoded as a 4-byte little-endian
	// value) appended. The lock height is the last field of the
	// transaction encoding and is dropped on request.
	encoded := serialization.TransactionToBytes(&txCopy, false)
	if hashType&SigHashNoLockHeight != 0 {
		encoded = encoded[:len(encoded)-4]
	}
	writer := hashes.NewHashWriter()
	writer.InfallibleWrite(encoded)
	writeUint32(writer, uint32(hashType&^SigHashNoLockHeight))
	return writer.Finalize()
}

func calculateWitnessSignatureHash(scriptCode []byte, tx *externalapi.DomainTransaction, idx int,
	hashType SigHashType, amount int64, precomputed *PrecomputedTransactionData) *externalapi.DomainHash {

	if precomputed == nil {
		precomputed = NewPrecomputedTransactionData(tx)
	}

	var zeroHash externalapi.DomainHash
	prevoutsHash := &zeroHash
	sequenceHash := &zeroHash
	outputsHash := &zeroHash

	baseType := hashType & SigHashMask
	anyoneCanPay := hashType&SigHashAnyOneCanPay != 0
	if !anyoneCanPay {
		prevoutsHash = precomputed.HashPrevouts
		if baseType != SigHashSingle && baseType != SigHashNone {
			sequenceHash = precomputed.HashSequence
		}
	}
	switch {
	case baseType != SigHashSingle && baseType != SigHashNone:
		outputsHash = precomputed.HashOutputs
	case baseType == SigHashSingle:
		outputsHash = hashOutputs(tx.Outputs[idx : idx+1])
	}

	input := tx.Inputs[idx]
	writer := hashes.NewHashWriter()
	writeUint32(writer, uint32(tx.Version))
	writer.InfallibleWrite(prevoutsHash[:])
	writer.InfallibleWrite(sequenceHash[:])
	writer.InfallibleWrite(serialization.OutpointToBytes(&input.PreviousOutpoint))
	mustSerialize(serialization.WriteVarBytes(writer, scriptCode))
	mustSerialize(serialization.WriteElement(writer, amount))
	writeUint32(writer, input.Sequence)
	writer.InfallibleWrite(outputsHash[:])
	writeUint32(writer, tx.LockTime)
	if hashType&SigHashNoLockHeight == 0 {
		writeUint32(writer, tx.LockHeight)
	}
	writeUint32(writer, uint32(hashType&^SigHashNoLockHeight))
	return writer.Finalize()
}

func hashPrevouts(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	writer := hashes.NewHashWriter()
	for _, input := range tx.Inputs {
		writer.InfallibleWrite(serialization.OutpointToBytes(&input.PreviousOutpoint))
	}
	return writer.Finalize()
}

func hashSequence(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	writer := hashes.NewHashWriter()
	for _, input := range tx.Inputs {
		writeUint32(writer, input.Sequence)
	}
	return writer.Finalize()
}

func hashOutputs(outputs []*externalapi.DomainTransactionOutput) *externalapi.DomainHash {
	writer := hashes.NewHashWriter()
	for _, output := range outputs {
		mustSerialize(serialization.WriteElement(writer, output.Value))
		mustSerialize(serialization.WriteVarBytes(writer, output.ScriptPublicKey))
	}
	return writer.Finalize()
}

func writeUint32(writer hashes.HashWriter, value uint32) {
	mustSerialize(serialization.WriteElement(writer, value))
}

func mustSerialize(err error) {
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}
}

// shallowCopyTx creates a shallow copy of the transaction for use when
// calculating the signature hash. It is used over the Clone method on the
// transaction itself since that is a deep copy and therefore does more work and
// allocates much more space than needed.
func shallowCopyTx(tx *externalapi.DomainTransaction) externalapi.DomainTransaction {
	// As an additional memory optimization, use contiguous backing arrays
	// for the copied inputs and outputs and point the final slice of
	// pointers into the contiguous arrays. This avoids a lot of small
	// allocations.
	txCopy := externalapi.DomainTransaction{
		Version:    tx.Version,
		Inputs:     make([]*externalapi.DomainTransactionInput, len(tx.Inputs)),
		Outputs:    make([]*externalapi.DomainTransactionOutput, len(tx.Outputs)),
		LockTime:   tx.LockTime,
		LockHeight: tx.LockHeight,
	}
	txIns := make([]externalapi.DomainTransactionInput, len(tx.Inputs))
	for i, oldTxIn := range tx.Inputs {
		txIns[i] = *oldTxIn
		txCopy.Inputs[i] = &txIns[i]
	}
	txOuts := make([]externalapi.DomainTransactionOutput, len(tx.Outputs))
	for i, oldTxOut := range tx.Outputs {
		txOuts[i] = *oldTxOut
		txCopy.Outputs[i] = &txOuts[i]
	}
	return txCopy
}
