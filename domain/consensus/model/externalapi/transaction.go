package externalapi

import (
	"fmt"
	"math"
)

// MaxTxInSequenceNum is the sequence number of a finalized input.
const MaxTxInSequenceNum uint32 = math.MaxUint32

// DomainTransaction is a transaction as it appears in a block. It is
// treated as immutable once constructed: validation, hashing and storage
// all assume its fields never change. Use MutableTransaction to build one.
type DomainTransaction struct {
	Version    int32
	Inputs     []*DomainTransactionInput
	Outputs    []*DomainTransactionOutput
	LockTime   uint32
	LockHeight uint32
}

// DomainTransactionInput spends a previous output.
type DomainTransactionInput struct {
	PreviousOutpoint DomainOutpoint
	SignatureScript  []byte
	Witness          [][]byte
	Sequence         uint32
}

// DomainTransactionOutput is a value locked by a script. Its reference
// height is the LockHeight of the transaction that declares it.
type DomainTransactionOutput struct {
	Value           int64
	ScriptPublicKey []byte
}

// DomainTransactionID is the hash of a transaction serialized without
// witness data.
type DomainTransactionID DomainHash

// String returns the byte-reversed hex encoding of the id.
func (id DomainTransactionID) String() string {
	return DomainHash(id).String()
}

// DomainOutpoint identifies a transaction output.
type DomainOutpoint struct {
	TransactionID DomainTransactionID
	Index         uint32
}

// NewDomainOutpoint returns a new outpoint.
func NewDomainOutpoint(transactionID *DomainTransactionID, index uint32) *DomainOutpoint {
	return &DomainOutpoint{TransactionID: *transactionID, Index: index}
}

// IsNull returns whether the outpoint is the null reference used by
// coinbase inputs.
func (op DomainOutpoint) IsNull() bool {
	return op.Index == math.MaxUint32 && (*DomainHash)(&op.TransactionID).IsZero()
}

// String returns "txid:index".
func (op DomainOutpoint) String() string {
	return fmt.Sprintf("%s:%d", op.TransactionID, op.Index)
}

// IsCoinBase returns whether the transaction has the coinbase shape: a
// single input spending the null outpoint.
func (tx *DomainTransaction) IsCoinBase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousOutpoint.IsNull()
}

// HasWitness returns whether any input carries witness data.
func (tx *DomainTransaction) HasWitness() bool {
	for _, input := range tx.Inputs {
		if len(input.Witness) != 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the transaction.
func (tx *DomainTransaction) Clone() *DomainTransaction {
	inputs := make([]*DomainTransactionInput, len(tx.Inputs))
	for i, input := range tx.Inputs {
		inputs[i] = input.Clone()
	}
	outputs := make([]*DomainTransactionOutput, len(tx.Outputs))
	for i, output := range tx.Outputs {
		outputs[i] = output.Clone()
	}
	return &DomainTransaction{
		Version:    tx.Version,
		Inputs:     inputs,
		Outputs:    outputs,
		LockTime:   tx.LockTime,
		LockHeight: tx.LockHeight,
	}
}

// Clone returns a deep copy of the input.
func (input *DomainTransactionInput) Clone() *DomainTransactionInput {
	var witness [][]byte
	if input.Witness != nil {
		witness = make([][]byte, len(input.Witness))
		for i, item := range input.Witness {
			witness[i] = append([]byte(nil), item...)
		}
	}
	return &DomainTransactionInput{
		PreviousOutpoint: input.PreviousOutpoint,
		SignatureScript:  append([]byte(nil), input.SignatureScript...),
		Witness:          witness,
		Sequence:         input.Sequence,
	}
}

// Clone returns a deep copy of the output.
func (output *DomainTransactionOutput) Clone() *DomainTransactionOutput {
	return &DomainTransactionOutput{
		Value:           output.Value,
		ScriptPublicKey: append([]byte(nil), output.ScriptPublicKey...),
	}
}
