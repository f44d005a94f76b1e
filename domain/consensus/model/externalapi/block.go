package externalapi

// DomainBlockHeader is the 80-byte block header.
type DomainBlockHeader struct {
	Version       int32
	PrevBlockHash DomainHash
	MerkleRoot    DomainHash
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
}

// DomainBlock is a header and its transactions, coinbase first.
type DomainBlock struct {
	Header       *DomainBlockHeader
	Transactions []*DomainTransaction
}

// Clone returns a copy of the header.
func (header *DomainBlockHeader) Clone() *DomainBlockHeader {
	clone := *header
	return &clone
}

// Clone returns a deep copy of the block.
func (block *DomainBlock) Clone() *DomainBlock {
	transactions := make([]*DomainTransaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		transactions[i] = tx.Clone()
	}
	return &DomainBlock{Header: block.Header.Clone(), Transactions: transactions}
}
