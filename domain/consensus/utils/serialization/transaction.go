package serialization

import (
	"bytes"
	"io"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

const (
	// witnessMarker and witnessFlag follow the version of a transaction
	// serialized with witness data. A real input count is never zero, so
	// the marker is unambiguous.
	witnessMarker = 0x00
	witnessFlag   = 0x01

	// minTxInSize is the size of an input with an empty script: outpoint,
	// script length and sequence.
	minTxInSize = externalapi.DomainHashSize + 4 + 1 + 4

	// minTxOutSize is the size of an output with an empty script.
	minTxOutSize = 8 + 1

	maxTxInPerTransaction  = constants.MaxBlockSerializedSize / minTxInSize
	maxTxOutPerTransaction = constants.MaxBlockSerializedSize / minTxOutSize
	maxScriptSize          = constants.MaxBlockSerializedSize
	maxWitnessItems        = constants.MaxBlockSerializedSize
)

// SerializeTransaction writes the canonical encoding of tx to w. With
// includeWitness set and witness data present, the BIP144 extended form is
// written.
func SerializeTransaction(w io.Writer, tx *externalapi.DomainTransaction, includeWitness bool) error {
	includeWitness = includeWitness && tx.HasWitness()

	if err := WriteElement(w, tx.Version); err != nil {
		return err
	}
	if includeWitness {
		if err := WriteElements(w, uint8(witnessMarker), uint8(witnessFlag)); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for _, input := range tx.Inputs {
		if err := writeTransactionInput(w, input); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for _, output := range tx.Outputs {
		if err := writeTransactionOutput(w, output); err != nil {
			return err
		}
	}

	if includeWitness {
		for _, input := range tx.Inputs {
			if err := writeWitness(w, input.Witness); err != nil {
				return err
			}
		}
	}

	return WriteElements(w, tx.LockTime, tx.LockHeight)
}

// DeserializeTransaction reads a transaction in either the legacy or the
// witness encoding.
func DeserializeTransaction(r io.Reader) (*externalapi.DomainTransaction, error) {
	tx := &externalapi.DomainTransaction{}
	if err := ReadElement(r, &tx.Version); err != nil {
		return nil, err
	}

	inputCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	var flags uint8
	if inputCount == 0 {
		if err := ReadElement(r, &flags); err != nil {
			return nil, err
		}
		if flags != 0 {
			inputCount, err = ReadVarInt(r)
			if err != nil {
				return nil, err
			}
			if err := readInputsAndOutputs(r, tx, inputCount); err != nil {
				return nil, err
			}
		}
	} else if err := readInputsAndOutputs(r, tx, inputCount); err != nil {
		return nil, err
	}

	if flags&witnessFlag != 0 {
		flags ^= witnessFlag
		for _, input := range tx.Inputs {
			input.Witness, err = readWitness(r)
			if err != nil {
				return nil, err
			}
		}
		if !tx.HasWitness() {
			return nil, malformedf("superfluous witness record")
		}
	}
	if flags != 0 {
		return nil, malformedf("unknown transaction optional data %x", flags)
	}

	if err := ReadElements(r, &tx.LockTime, &tx.LockHeight); err != nil {
		return nil, err
	}
	return tx, nil
}

func readInputsAndOutputs(r io.Reader, tx *externalapi.DomainTransaction, inputCount uint64) error {
	if inputCount > maxTxInPerTransaction {
		return malformedf("too many inputs to fit into max message size [count %d, max %d]",
			inputCount, maxTxInPerTransaction)
	}
	tx.Inputs = make([]*externalapi.DomainTransactionInput, inputCount)
	for i := range tx.Inputs {
		input, err := readTransactionInput(r)
		if err != nil {
			return err
		}
		tx.Inputs[i] = input
	}

	outputCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if outputCount > maxTxOutPerTransaction {
		return malformedf("too many outputs to fit into max message size [count %d, max %d]",
			outputCount, maxTxOutPerTransaction)
	}
	tx.Outputs = make([]*externalapi.DomainTransactionOutput, outputCount)
	for i := range tx.Outputs {
		output, err := readTransactionOutput(r)
		if err != nil {
			return err
		}
		tx.Outputs[i] = output
	}
	return nil
}

func writeTransactionInput(w io.Writer, input *externalapi.DomainTransactionInput) error {
	if err := WriteOutpoint(w, &input.PreviousOutpoint); err != nil {
		return err
	}
	if err := WriteVarBytes(w, input.SignatureScript); err != nil {
		return err
	}
	return WriteElement(w, input.Sequence)
}

func readTransactionInput(r io.Reader) (*externalapi.DomainTransactionInput, error) {
	input := &externalapi.DomainTransactionInput{}
	outpoint, err := ReadOutpoint(r)
	if err != nil {
		return nil, err
	}
	input.PreviousOutpoint = *outpoint
	input.SignatureScript, err = ReadVarBytes(r, maxScriptSize, "signature script")
	if err != nil {
		return nil, err
	}
	if err := ReadElement(r, &input.Sequence); err != nil {
		return nil, err
	}
	return input, nil
}

func writeTransactionOutput(w io.Writer, output *externalapi.DomainTransactionOutput) error {
	if err := WriteElement(w, output.Value); err != nil {
		return err
	}
	return WriteVarBytes(w, output.ScriptPublicKey)
}

func readTransactionOutput(r io.Reader) (*externalapi.DomainTransactionOutput, error) {
	output := &externalapi.DomainTransactionOutput{}
	if err := ReadElement(r, &output.Value); err != nil {
		return nil, err
	}
	var err error
	output.ScriptPublicKey, err = ReadVarBytes(r, maxScriptSize, "script public key")
	if err != nil {
		return nil, err
	}
	return output, nil
}

func writeWitness(w io.Writer, witness [][]byte) error {
	if err := WriteVarInt(w, uint64(len(witness))); err != nil {
		return err
	}
	for _, item := range witness {
		if err := WriteVarBytes(w, item); err != nil {
			return err
		}
	}
	return nil
}

func readWitness(r io.Reader) ([][]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxWitnessItems {
		return nil, malformedf("too many witness items [count %d, max %d]", count, maxWitnessItems)
	}
	if count == 0 {
		return nil, nil
	}
	witness := make([][]byte, count)
	for i := range witness {
		witness[i], err = ReadVarBytes(r, maxScriptSize, "witness item")
		if err != nil {
			return nil, err
		}
	}
	return witness, nil
}

// WriteOutpoint writes the 36-byte encoding of an outpoint.
func WriteOutpoint(w io.Writer, outpoint *externalapi.DomainOutpoint) error {
	return WriteElements(w, outpoint.TransactionID, outpoint.Index)
}

// ReadOutpoint reads an outpoint written by WriteOutpoint.
func ReadOutpoint(r io.Reader) (*externalapi.DomainOutpoint, error) {
	outpoint := &externalapi.DomainOutpoint{}
	if err := ReadElements(r, &outpoint.TransactionID, &outpoint.Index); err != nil {
		return nil, err
	}
	return outpoint, nil
}

// TransactionToBytes returns the canonical encoding of tx.
func TransactionToBytes(tx *externalapi.DomainTransaction, includeWitness bool) []byte {
	var buf bytes.Buffer
	if err := SerializeTransaction(&buf, tx, includeWitness); err != nil {
		// bytes.Buffer never fails a write.
		panic(errors.Wrap(err, "serializing a transaction into memory failed"))
	}
	return buf.Bytes()
}

// TransactionFromBytes decodes a transaction and checks that no bytes
// remain.
func TransactionFromBytes(serialized []byte) (*externalapi.DomainTransaction, error) {
	r := bytes.NewReader(serialized)
	tx, err := DeserializeTransaction(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, malformedf("%d trailing bytes after transaction", r.Len())
	}
	return tx, nil
}

// TransactionSerializeSize returns the size of the canonical encoding of tx.
func TransactionSerializeSize(tx *externalapi.DomainTransaction, includeWitness bool) int {
	includeWitness = includeWitness && tx.HasWitness()

	// Version, lock time and lock height.
	size := 4 + 4 + 4
	if includeWitness {
		size += 2
	}
	size += VarIntSerializeSize(uint64(len(tx.Inputs)))
	for _, input := range tx.Inputs {
		size += minTxInSize - 1 + VarBytesSerializeSize(input.SignatureScript)
		if includeWitness {
			size += VarIntSerializeSize(uint64(len(input.Witness)))
			for _, item := range input.Witness {
				size += VarBytesSerializeSize(item)
			}
		}
	}
	size += VarIntSerializeSize(uint64(len(tx.Outputs)))
	for _, output := range tx.Outputs {
		size += 8 + VarBytesSerializeSize(output.ScriptPublicKey)
	}
	return size
}

// TransactionWeight returns the weight of tx: its stripped size times
// (WitnessScaleFactor - 1) plus its full size.
func TransactionWeight(tx *externalapi.DomainTransaction) int64 {
	stripped := TransactionSerializeSize(tx, false)
	total := TransactionSerializeSize(tx, true)
	return int64(stripped*(constants.WitnessScaleFactor-1) + total)
}
