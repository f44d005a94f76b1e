// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocklogger

import (
	"sync"
	"time"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
)

// BlockLogger rate limits progress messages about connected blocks to one
// every interval.
type BlockLogger struct {
	sync.Mutex
	interval          time.Duration
	receivedLogBlocks int64
	receivedLogTx     int64
	lastBlockLogTime  time.Time
}

// New returns a BlockLogger that logs at most once per interval.
func New(interval time.Duration) *BlockLogger {
	return &BlockLogger{
		interval:         interval,
		lastBlockLogTime: time.Now(),
	}
}

// LogBlock accounts for block, now on the active chain at height, and logs the
// totals once the interval has passed since the last message.
func (b *BlockLogger) LogBlock(block *externalapi.DomainBlock, height int32) {
	b.Lock()
	defer b.Unlock()

	b.receivedLogBlocks++
	b.receivedLogTx += int64(len(block.Transactions))

	now := time.Now()
	duration := now.Sub(b.lastBlockLogTime)
	if duration < b.interval {
		return
	}

	// Truncate the duration to 10s of milliseconds.
	tDuration := duration.Round(10 * time.Millisecond)

	blockStr := "blocks"
	if b.receivedLogBlocks == 1 {
		blockStr = "block"
	}
	txStr := "transactions"
	if b.receivedLogTx == 1 {
		txStr = "transaction"
	}

	log.Infof("Processed %d %s in the last %s (%d %s, height %d, %s)",
		b.receivedLogBlocks, blockStr, tDuration, b.receivedLogTx, txStr, height,
		time.Unix(int64(block.Header.Timestamp), 0).UTC())

	b.receivedLogBlocks = 0
	b.receivedLogTx = 0
	b.lastBlockLogTime = now
}
