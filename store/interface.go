package store

import (
	"github.com/Luismorlan/pow_ledger/model"
)

// ChainStore keeps the chain of a node. Validation is done by the caller.
type ChainStore interface {
	// LoadChain returns the stored chain in index order, empty when nothing was stored yet.
	LoadChain() ([]model.Block, error)
	// AppendBlock adds a block at the end of the stored chain.
	AppendBlock(block model.Block) error
	// ReplaceChain swaps the whole stored chain, all or nothing.
	ReplaceChain(chain []model.Block) error
	Close() error
}
