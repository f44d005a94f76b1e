package chaincfg

import (
	"encoding/hex"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
)

// genesisTxHex is the canonical encoding of the coinbase shared by the
// genesis blocks of every network. Its outputs can never be spent since they
// are not added to the coin set.
const genesisTxHex = "" +
	"02000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d01" +
	"044554656c6567726170682032372f4a756e2f3230313220426172636c61797320686974207769746820c2a33239306d" +
	"2066696e65206f766572204c69626f7220666978696e67ffffffff08893428ed05000000434104678afdb0fe55482719" +
	"67f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a" +
	"4c702b6bf11d5fac010000000000000023205029d180e0c5ed798d877b1ada99772986c1422ca932c41b2d0400000000" +
	"000075000100000000000000fd530103202020754d31014d6574616c73207765726520616e20696d706c696369746c79" +
	"20616275736976652061677265656d656e742e0a4d6f6465726e2022706170657222206973206120666c617765642074" +
	"6f6f6c2c2069747320656e67696e656572696e672069732061206e657374206f66206c6565636865732e0a546865206f" +
	"6c64206d6f6e6579206973206f62736f6c6574652e0a4c65742074686520696e646976696475616c206d6f6e6574697a" +
	"65206974732063726564697420776974686f75742063617274656c20696e7465726d65646961726965732e0a47697665" +
	"20757320612072656e742d6c657373206361736820736f2077652063616e206265206672656520666f72207468652066" +
	"697273742074696d652e0a4c65742074686973206265207468652061776169746564206461776e2e7576a9140ef0f9d1" +
	"9a653023554146a866238b8822bc84df88ac0100000000000000fa082020202020202020754cd4224c65742075732063" +
	"616c63756c6174652c20776974686f757420667572746865722061646f2c20696e206f7264657220746f207365652077" +
	"686f2069732072696768742e22202d2d476f747466726965642057696c68656c6d204c6569626e697a0acebec2b4efbd" +
	"a5e28880efbda560efbc89e38080e38080e38080e3808020206e0aefbfa3e38080e38080e380802020efbcbce38080e3" +
	"80802020efbc882045efbc8920676f6f64206a6f622c206d61616b75210aefbe8ce38080e38080e3808020202fe383bd" +
	"20e383bd5fefbc8fefbc8f7576a914c26be5ec809aa4bf6b30aa89823cff7cedc3679a88ac01000000000000005f0620" +
	"2020202020753c4963682077c3bc6e736368652046726569636f696e207669656c204572666f6c67207a756d204e7574" +
	"7a656e206465722039392050726f7a656e74217576a9142939acd60037281a708eb11e4e9eda452c029eca88ac010000" +
	"0000000000980d20202020202020202020202020754c6d225468652076616c7565206f662061206d616e2073686f756c" +
	"64206265207365656e20696e207768617420686520676976657320616e64206e6f7420696e2077686174206865206973" +
	"2061626c6520746f20726563656976652e22202d2d416c626572742045696e737465696e7576a914f9ca5caab4bda4dc" +
	"28b5556aa79a2eec0447f0bf88ac0100000000000000800c202020202020202020202020754c5622416e2061726d7920" +
	"6f66207072696e6369706c65732063616e2070656e65747261746520776865726520616e2061726d79206f6620736f6c" +
	"64696572732063616e6e6f742e22202d2d54686f6d6173205061696e657576a91408f320cbb41a1ae25b794f6175f960" +
	"80681989f388accc60948c0b0000001976a91485e54144c4020a65fa0a8fdbac8bba75dbc2fd0088ac00000000000000" +
	"00"

// newGenesisBlock builds a genesis block around the canonical genesis
// coinbase.
func newGenesisBlock(timestamp, nonce, bits uint32, version int32) *externalapi.DomainBlock {
	txBytes, err := hex.DecodeString(genesisTxHex)
	if err != nil {
		panic(err)
	}
	coinbase, err := serialization.TransactionFromBytes(txBytes)
	if err != nil {
		panic(err)
	}
	transactions := []*externalapi.DomainTransaction{coinbase}
	merkleRoot, _ := consensushashing.BlockMerkleRoot(transactions)

	return &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:       version,
			PrevBlockHash: externalapi.DomainHash{},
			MerkleRoot:    *merkleRoot,
			Timestamp:     timestamp,
			Bits:          bits,
			Nonce:         nonce,
		},
		Transactions: transactions,
	}
}

var (
	mainGenesisBlock       = newGenesisBlock(1356123600, 278229610, 0x1d00ffff, 1)
	testGenesisBlock       = newGenesisBlock(1356123600, 3098244593, 0x1d00ffff, 1)
	regressionGenesisBlock = newGenesisBlock(1356123600, 1, 0x207fffff, 1)
)
