package serialization

import (
	"bytes"
	"io"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// HeaderSize is the size of a serialized block header.
const HeaderSize = 80

const maxTransactionsPerBlock = constants.MaxBlockSerializedSize / 10

// SerializeHeader writes the 80-byte header encoding.
func SerializeHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	return WriteElements(w, header.Version, header.PrevBlockHash, header.MerkleRoot,
		header.Timestamp, header.Bits, header.Nonce)
}

// DeserializeHeader reads a header written by SerializeHeader.
func DeserializeHeader(r io.Reader) (*externalapi.DomainBlockHeader, error) {
	header := &externalapi.DomainBlockHeader{}
	err := ReadElements(r, &header.Version, &header.PrevBlockHash, &header.MerkleRoot,
		&header.Timestamp, &header.Bits, &header.Nonce)
	if err != nil {
		return nil, err
	}
	return header, nil
}

// HeaderToBytes returns the 80-byte header encoding.
func HeaderToBytes(header *externalapi.DomainBlockHeader) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	if err := SerializeHeader(buf, header); err != nil {
		panic(errors.Wrap(err, "serializing a header into memory failed"))
	}
	return buf.Bytes()
}

// SerializeBlock writes a block: its header, the transaction count, and
// every transaction, with witness data when includeWitness is set.
func SerializeBlock(w io.Writer, block *externalapi.DomainBlock, includeWitness bool) error {
	if err := SerializeHeader(w, block.Header); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(block.Transactions))); err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		if err := SerializeTransaction(w, tx, includeWitness); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeBlock reads a block written by SerializeBlock.
func DeserializeBlock(r io.Reader) (*externalapi.DomainBlock, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxTransactionsPerBlock {
		return nil, malformedf("too many transactions to fit into a block [count %d, max %d]",
			count, maxTransactionsPerBlock)
	}
	block := &externalapi.DomainBlock{
		Header:       header,
		Transactions: make([]*externalapi.DomainTransaction, count),
	}
	for i := range block.Transactions {
		block.Transactions[i], err = DeserializeTransaction(r)
		if err != nil {
			return nil, err
		}
	}
	return block, nil
}

// BlockToBytes returns the full encoding of block, witness data included.
func BlockToBytes(block *externalapi.DomainBlock) []byte {
	var buf bytes.Buffer
	if err := SerializeBlock(&buf, block, true); err != nil {
		panic(errors.Wrap(err, "serializing a block into memory failed"))
	}
	return buf.Bytes()
}

// BlockFromBytes decodes a block and checks that no bytes remain.
func BlockFromBytes(serialized []byte) (*externalapi.DomainBlock, error) {
	r := bytes.NewReader(serialized)
	block, err := DeserializeBlock(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, malformedf("%d trailing bytes after block", r.Len())
	}
	return block, nil
}

// BlockSerializeSize returns the size of the block encoding.
func BlockSerializeSize(block *externalapi.DomainBlock, includeWitness bool) int {
	size := HeaderSize + VarIntSerializeSize(uint64(len(block.Transactions)))
	for _, tx := range block.Transactions {
		size += TransactionSerializeSize(tx, includeWitness)
	}
	return size
}

// BlockWeight returns the weight of block.
func BlockWeight(block *externalapi.DomainBlock) int64 {
	stripped := BlockSerializeSize(block, false)
	total := BlockSerializeSize(block, true)
	return int64(stripped*(constants.WitnessScaleFactor-1) + total)
}
