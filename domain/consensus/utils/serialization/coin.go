package serialization

import (
	"bytes"
	"io"
	"math/big"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/amount"
	"github.com/pkg/errors"
)

// SerializeCoin writes a coin: its creation height and coinbase flag
// packed into one varint, its reference height, its compressed value and
// its script.
func SerializeCoin(w io.Writer, coin *externalapi.Coin) error {
	code := uint64(coin.BlockHeight) << 1
	if coin.IsCoinbase {
		code |= 1
	}
	if err := WriteVarInt(w, code); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(coin.RefHeight)); err != nil {
		return err
	}
	if err := WriteVarInt(w, amount.CompressAmount(uint64(coin.Value))); err != nil {
		return err
	}
	return WriteVarBytes(w, coin.ScriptPublicKey)
}

// DeserializeCoin reads a coin written by SerializeCoin.
func DeserializeCoin(r io.Reader) (*externalapi.Coin, error) {
	code, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if code>>1 > 1<<31-1 {
		return nil, malformedf("coin height %d out of range", code>>1)
	}
	refHeight, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if refHeight > 1<<32-1 {
		return nil, malformedf("coin reference height %d out of range", refHeight)
	}
	compressed, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	value := amount.DecompressAmount(compressed)
	if value > amount.MaxMoney {
		return nil, malformedf("coin value %d out of range", value)
	}
	script, err := ReadVarBytes(r, maxScriptSize, "coin script")
	if err != nil {
		return nil, err
	}
	return &externalapi.Coin{
		Value:           int64(value),
		ScriptPublicKey: script,
		RefHeight:       uint32(refHeight),
		BlockHeight:     int32(code >> 1),
		IsCoinbase:      code&1 == 1,
	}, nil
}

// CoinToBytes returns the encoding of coin.
func CoinToBytes(coin *externalapi.Coin) []byte {
	var buf bytes.Buffer
	if err := SerializeCoin(&buf, coin); err != nil {
		panic(errors.Wrap(err, "serializing a coin into memory failed"))
	}
	return buf.Bytes()
}

// CoinFromBytes decodes a coin.
func CoinFromBytes(serialized []byte) (*externalapi.Coin, error) {
	return DeserializeCoin(bytes.NewReader(serialized))
}

// OutpointToBytes returns the 36-byte encoding of outpoint.
func OutpointToBytes(outpoint *externalapi.DomainOutpoint) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, externalapi.DomainHashSize+4))
	if err := WriteOutpoint(buf, outpoint); err != nil {
		panic(errors.Wrap(err, "serializing an outpoint into memory failed"))
	}
	return buf.Bytes()
}

// OutpointFromBytes decodes an outpoint written by OutpointToBytes.
func OutpointFromBytes(serialized []byte) (*externalapi.DomainOutpoint, error) {
	return ReadOutpoint(bytes.NewReader(serialized))
}

// UndoToBytes returns the encoding of a block undo record.
func UndoToBytes(undo *externalapi.BlockUndo) []byte {
	var buf bytes.Buffer
	err := func() error {
		if err := WriteVarInt(&buf, uint64(len(undo.TxUndos))); err != nil {
			return err
		}
		for _, txUndo := range undo.TxUndos {
			if err := WriteVarInt(&buf, uint64(len(txUndo.SpentCoins))); err != nil {
				return err
			}
			for _, coin := range txUndo.SpentCoins {
				if err := SerializeCoin(&buf, coin); err != nil {
					return err
				}
			}
		}
		return nil
	}()
	if err != nil {
		panic(errors.Wrap(err, "serializing an undo record into memory failed"))
	}
	return buf.Bytes()
}

// UndoFromBytes decodes a block undo record.
func UndoFromBytes(serialized []byte) (*externalapi.BlockUndo, error) {
	r := bytes.NewReader(serialized)
	txCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if txCount > maxTransactionsPerBlock {
		return nil, malformedf("too many transaction undo records %d", txCount)
	}
	undo := &externalapi.BlockUndo{TxUndos: make([]*externalapi.TxUndo, txCount)}
	for i := range undo.TxUndos {
		coinCount, err := ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		if coinCount > maxTxInPerTransaction {
			return nil, malformedf("too many spent coins %d", coinCount)
		}
		txUndo := &externalapi.TxUndo{SpentCoins: make([]*externalapi.Coin, coinCount)}
		for j := range txUndo.SpentCoins {
			txUndo.SpentCoins[j], err = DeserializeCoin(r)
			if err != nil {
				return nil, err
			}
		}
		undo.TxUndos[i] = txUndo
	}
	return undo, nil
}

// BlockIndexEntryToBytes returns the encoding of a block index entry.
func BlockIndexEntryToBytes(entry *externalapi.BlockIndexEntry) []byte {
	var buf bytes.Buffer
	err := func() error {
		if err := SerializeHeader(&buf, entry.Header); err != nil {
			return err
		}
		if err := WriteElements(&buf, entry.Height, uint32(entry.Status)); err != nil {
			return err
		}
		return WriteVarBytes(&buf, entry.ChainWork.Bytes())
	}()
	if err != nil {
		panic(errors.Wrap(err, "serializing a block index entry into memory failed"))
	}
	return buf.Bytes()
}

// BlockIndexEntryFromBytes decodes a block index entry. The hash is not
// part of the encoding and is filled in by the caller.
func BlockIndexEntryFromBytes(serialized []byte) (*externalapi.BlockIndexEntry, error) {
	r := bytes.NewReader(serialized)
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	entry := &externalapi.BlockIndexEntry{Header: header}
	var status uint32
	if err := ReadElements(r, &entry.Height, &status); err != nil {
		return nil, err
	}
	entry.Status = externalapi.BlockStatus(status)
	workBytes, err := ReadVarBytes(r, 64, "chain work")
	if err != nil {
		return nil, err
	}
	entry.ChainWork = new(big.Int).SetBytes(workBytes)
	return entry, nil
}
