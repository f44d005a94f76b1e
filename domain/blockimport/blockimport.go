// Package blockimport loads blocks from files in the block file format:
// each block is framed by the network magic and its little-endian size.
package blockimport

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"os"
	"time"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

const (
	// minBlockSize is the size of a bare header. Smaller frames are
	// skipped.
	minBlockSize = 80

	defaultProgressInterval = 10 * time.Second
)

// BlockInserter is the part of consensus the importer drives.
type BlockInserter interface {
	ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock) error
	TipHeight() int32
}

// Stats counts what an import did.
type Stats struct {
	Processed int
	// Orphans are blocks whose parent was not known yet. They are held by
	// consensus and connect once the parent arrives.
	Orphans    int
	Duplicates int
	Rejected   int
	Malformed  int
}

// Importer feeds the blocks of block files to consensus.
type Importer struct {
	inserter         BlockInserter
	net              [4]byte
	progressInterval time.Duration
}

// New returns an importer for files framed with the net magic.
func New(inserter BlockInserter, net [4]byte) *Importer {
	return &Importer{
		inserter:         inserter,
		net:              net,
		progressInterval: defaultProgressInterval,
	}
}

// SetProgressInterval sets how often progress is logged. Zero disables
// progress messages.
func (bi *Importer) SetProgressInterval(interval time.Duration) {
	bi.progressInterval = interval
}

// ImportFiles imports every file in paths in order.
func (bi *Importer) ImportFiles(ctx context.Context, paths []string) (*Stats, error) {
	total := &Stats{}
	for _, path := range paths {
		stats, err := bi.importFile(ctx, path)
		if stats != nil {
			total.add(stats)
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (bi *Importer) importFile(ctx context.Context, path string) (*Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening block file %s", path)
	}
	defer file.Close()

	log.Infof("Importing blocks from %s", path)
	stats, err := bi.Import(ctx, file)
	if err != nil {
		return stats, errors.Wrapf(err, "importing %s", path)
	}
	log.Infof("Imported %s: %d blocks processed, %d orphans, %d duplicates, %d rejected, %d malformed",
		path, stats.Processed, stats.Orphans, stats.Duplicates, stats.Rejected, stats.Malformed)
	return stats, nil
}

// Import reads blocks from r until it is exhausted. Bytes that do not start
// a frame are skipped, as are frames whose block does not deserialize.
// Blocks consensus rejects are counted and logged. Any other error stops the
// import, as does cancelling ctx.
func (bi *Importer) Import(ctx context.Context, r io.Reader) (*Stats, error) {
	reader := bufio.NewReader(r)
	stats := &Stats{}
	lastLog := time.Now()
	lastLogProcessed := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		payload, err := bi.nextFrame(reader)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		block, err := serialization.BlockFromBytes(payload)
		if err != nil {
			log.Warnf("Skipping malformed block frame: %s", err)
			stats.Malformed++
			continue
		}

		err = bi.inserter.ValidateAndInsertBlock(ctx, block)
		var missingParents ruleerrors.ErrMissingParents
		switch {
		case err == nil:
			stats.Processed++
		case errors.Is(err, ruleerrors.ErrDuplicateBlock):
			stats.Duplicates++
		case errors.As(err, &missingParents):
			log.Debugf("Block %s is an orphan: %s", consensushashing.BlockHash(block), missingParents)
			stats.Orphans++
		case ruleerrors.IsRuleError(err):
			log.Warnf("Block %s was rejected: %s", consensushashing.BlockHash(block), err)
			stats.Rejected++
		default:
			return stats, err
		}

		if bi.progressInterval > 0 && time.Since(lastLog) >= bi.progressInterval {
			log.Infof("Processed %d blocks in the last %s (height %d)",
				stats.Processed-lastLogProcessed, time.Since(lastLog).Truncate(time.Second), bi.inserter.TipHeight())
			lastLog = time.Now()
			lastLogProcessed = stats.Processed
		}
	}
}

// nextFrame scans for the network magic and returns the payload of the
// frame that follows. It returns io.EOF once no complete frame is left.
func (bi *Importer) nextFrame(reader *bufio.Reader) ([]byte, error) {
	for {
		err := bi.skipToMagic(reader)
		if err != nil {
			return nil, err
		}

		sizeBytes, err := reader.Peek(4)
		if err != nil {
			return nil, endOfInput(err)
		}
		size := binary.LittleEndian.Uint32(sizeBytes)
		if size < minBlockSize || size > constants.MaxBlockSerializedSize {
			// Not a frame after all. The scan resumes right after the
			// magic.
			log.Debugf("Skipping frame of invalid size %d", size)
			continue
		}
		_, err = reader.Discard(4)
		if err != nil {
			return nil, endOfInput(err)
		}

		payload := make([]byte, size)
		_, err = io.ReadFull(reader, payload)
		if err != nil {
			return nil, endOfInput(err)
		}
		return payload, nil
	}
}

func (bi *Importer) skipToMagic(reader *bufio.Reader) error {
	matched := 0
	for matched < len(bi.net) {
		b, err := reader.ReadByte()
		if err != nil {
			return endOfInput(err)
		}
		switch {
		case b == bi.net[matched]:
			matched++
		case b == bi.net[0]:
			matched = 1
		default:
			matched = 0
		}
	}
	return nil
}

// endOfInput turns a truncated trailing frame into a clean end of input.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return errors.WithStack(err)
}

// WriteBlock writes block to w as a frame of the net magic.
func WriteBlock(w io.Writer, net [4]byte, block *externalapi.DomainBlock) error {
	serialized := serialization.BlockToBytes(block)
	var header [8]byte
	copy(header[:4], net[:])
	binary.LittleEndian.PutUint32(header[4:], uint32(len(serialized)))
	_, err := w.Write(header[:])
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = w.Write(serialized)
	return errors.WithStack(err)
}

func (s *Stats) add(other *Stats) {
	s.Processed += other.Processed
	s.Orphans += other.Orphans
	s.Duplicates += other.Duplicates
	s.Rejected += other.Rejected
	s.Malformed += other.Malformed
}
