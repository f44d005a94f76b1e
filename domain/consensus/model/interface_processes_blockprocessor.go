package model

import (
	"context"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
)

// BlockProcessor is responsible for processing incoming blocks
type BlockProcessor interface {
	ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock) error
	OrphanCount() int
}
