package store

import (
	"sync"

	"github.com/Luismorlan/pow_ledger/model"
)

type MemoryChainStore struct {
	blocks []model.Block
	mu     sync.RWMutex
}

func NewMemoryChainStore() *MemoryChainStore {
	return &MemoryChainStore{
		blocks: make([]model.Block, 0),
	}
}

func (m *MemoryChainStore) LoadChain() ([]model.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain := make([]model.Block, len(m.blocks))
	copy(chain, m.blocks)
	return chain, nil
}

func (m *MemoryChainStore) AppendBlock(block model.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append(m.blocks, block)
	return nil
}

func (m *MemoryChainStore) ReplaceChain(chain []model.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	blocks := make([]model.Block, len(chain))
	copy(blocks, chain)
	m.blocks = blocks
	return nil
}

func (m *MemoryChainStore) Close() error {
	return nil
}
