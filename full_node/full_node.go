package full_node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Luismorlan/pow_ledger/config"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/network"
	"github.com/Luismorlan/pow_ledger/store"
	"github.com/Luismorlan/pow_ledger/utils"
	"github.com/jinzhu/copier"
	uuid "github.com/satori/go.uuid"
)

// A full node maintains the chain, mines new blocks on it and replaces it with a longer valid
// chain found among its peers.
//
// All state below m is owned by the node and only touched with m held: reads under the read
// lock, append, submit, connect and replace under the write lock. Proof search and peer polling
// run without the lock.
type FullNode struct {
	// Blockchain config.
	config config.AppConfig
	// Where every accepted chain change is persisted before it becomes visible.
	store store.ChainStore
	// How peer chains are fetched during consensus.
	fetcher network.ChainFetcher
	logger  *slog.Logger
	// Sender of the mining reward. This doesn't impact consensus.
	address string
	now     func() time.Time

	// A single mutex for changing internal state.
	m sync.RWMutex
	// The chain. Blocks are never mutated once appended, so a copy of the slice header taken
	// under the lock is a stable snapshot.
	chain []model.Block
	// Transactions waiting for the next mined block.
	txPool model.TransactionPool
	// Canonical host:port of known peers.
	peers map[string]struct{}
	// Bumped on every append and replace, used to detect stale mining results.
	version uint64
}

type Option func(*FullNode)

// WithStore persists the chain in s instead of memory.
func WithStore(s store.ChainStore) Option {
	return func(f *FullNode) {
		f.store = s
	}
}

// WithFetcher sets how peer chains are fetched.
func WithFetcher(fetcher network.ChainFetcher) Option {
	return func(f *FullNode) {
		f.fetcher = fetcher
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *FullNode) {
		f.logger = logger
	}
}

// WithClock overrides the clock used to timestamp blocks.
func WithClock(now func() time.Time) Option {
	return func(f *FullNode) {
		f.now = now
	}
}

// NewFullNode creates a full node on top of the chain held by its store. An empty store gets a
// genesis block. A stored chain that does not validate is reported as model.ErrInvariantViolation.
func NewFullNode(c config.AppConfig, opts ...Option) (*FullNode, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	f := &FullNode{
		config:  c,
		store:   store.NewMemoryChainStore(),
		fetcher: network.NewHTTPFetcher(nil),
		logger:  slog.Default(),
		address: c.NODE_ADDRESS,
		now:     time.Now,
		txPool:  model.NewTransactionPool(),
		peers:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.address == "" {
		f.address = strings.Replace(uuid.NewV4().String(), "-", "", -1)
	}

	chain, err := f.store.LoadChain()
	if err != nil {
		return nil, fmt.Errorf("load chain: %w", err)
	}
	if len(chain) == 0 {
		genesis := model.NewGenesisBlock(f.now(), c.GENESIS_PROOF)
		if err := f.store.AppendBlock(genesis); err != nil {
			return nil, fmt.Errorf("store genesis block: %w", err)
		}
		chain = []model.Block{genesis}
	} else if err := utils.ValidateChain(chain, c.DIFFICULTY); err != nil {
		return nil, fmt.Errorf("%w: stored chain: %v", model.ErrInvariantViolation, err)
	}
	f.chain = chain
	f.logger.Info("full node ready", "address", f.address, "height", len(chain))
	return f, nil
}

// Address is the sender of this node's mining rewards.
func (f *FullNode) Address() string {
	return f.address
}

// copyChain returns a deep copy of the chain that callers are free to mutate.
func (f *FullNode) copyChain(chain []model.Block) []model.Block {
	c := make([]model.Block, 0, len(chain))
	if err := copier.CopyWithOption(&c, &chain, copier.Option{DeepCopy: true}); err != nil {
		f.logger.Error("failed to copy chain", "err", err)
	}
	for i := range c {
		if c[i].Transactions == nil {
			c[i].Transactions = []model.Transaction{}
		}
	}
	return c
}

func (f *FullNode) tailUnsafe() (model.Block, error) {
	if len(f.chain) == 0 {
		return model.Block{}, model.ErrEmptyChain
	}
	return f.chain[len(f.chain)-1], nil
}

// GetChain returns a snapshot of the chain and its length.
func (f *FullNode) GetChain() model.ChainResponse {
	f.m.RLock()
	chain := f.chain
	f.m.RUnlock()
	return model.NewChainResponse(f.copyChain(chain))
}

// GetTail returns the last block of the chain.
func (f *FullNode) GetTail() (model.Block, error) {
	f.m.RLock()
	defer f.m.RUnlock()
	tail, err := f.tailUnsafe()
	if err != nil {
		return model.Block{}, err
	}
	return f.copyChain([]model.Block{tail})[0], nil
}

func (f *FullNode) GetHeight() int {
	f.m.RLock()
	defer f.m.RUnlock()
	return len(f.chain)
}

// IsValid validates the node's own chain.
func (f *FullNode) IsValid() bool {
	f.m.RLock()
	chain := f.chain
	f.m.RUnlock()

	if err := utils.ValidateChain(chain, f.config.DIFFICULTY); err != nil {
		f.logger.Error("local chain is invalid", "err", err)
		return false
	}
	return true
}

// AddTransaction adds the transaction to the pending pool and returns the index of the block
// it will be sealed into. Amount sign and identities are not checked.
func (f *FullNode) AddTransaction(tx model.Transaction) (int64, error) {
	f.m.Lock()
	defer f.m.Unlock()

	tail, err := f.tailUnsafe()
	if err != nil {
		return 0, err
	}
	f.txPool.Add(tx)
	return tail.Index + 1, nil
}

// PendingTransactions returns a copy of the transactions waiting to be mined.
func (f *FullNode) PendingTransactions() []model.Transaction {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.txPool.Snapshot()
}

// ConnectNodes registers peers and returns every known peer. Addresses are reduced to
// host:port and empty ones are skipped. When any address cannot be parsed nothing is
// registered.
func (f *FullNode) ConnectNodes(addrs []string) ([]string, error) {
	normalized := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if strings.TrimSpace(addr) == "" {
			continue
		}
		n, err := network.NormalizeAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: peer address %q: %v", model.ErrClientInput, addr, err)
		}
		normalized = append(normalized, n)
	}

	f.m.Lock()
	defer f.m.Unlock()
	for _, n := range normalized {
		if _, exist := f.peers[n]; !exist {
			f.logger.Info("connected peer", "peer", n)
		}
		f.peers[n] = struct{}{}
	}
	return f.peerListUnsafe(), nil
}

// GetPeers returns the known peers, sorted.
func (f *FullNode) GetPeers() []string {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.peerListUnsafe()
}

func (f *FullNode) peerListUnsafe() []string {
	peers := make([]string, 0, len(f.peers))
	for p := range f.peers {
		peers = append(peers, p)
	}
	sort.Strings(peers)
	return peers
}

// Mine searches a proof on top of the current tail and appends a block sealing the pending
// transactions plus the mining reward. The search runs without the lock; when the tail changed
// meanwhile the proof is discarded and the search starts over on the new tail. Mine only stops
// early when ctx is done.
func (f *FullNode) Mine(ctx context.Context) (model.Block, error) {
	for {
		f.m.RLock()
		tail, err := f.tailUnsafe()
		version := f.version
		f.m.RUnlock()
		if err != nil {
			return model.Block{}, err
		}

		// Mining is a really heavy task.
		proof, err := utils.SearchProof(ctx, tail.Proof, f.config.DIFFICULTY)
		if err != nil {
			return model.Block{}, err
		}
		previousHash := utils.HashBlock(tail)

		block, err := f.appendMinedBlock(version, tail, proof, previousHash)
		if errors.Is(err, model.ErrStaleMiningResult) {
			f.logger.Info("discard stale proof", "index", tail.Index+1, "proof", proof)
			continue
		}
		return block, err
	}
}

// appendMinedBlock seals and appends a block mined on tail, provided the chain is still at
// version.
func (f *FullNode) appendMinedBlock(version uint64, tail model.Block, proof int64, previousHash string) (model.Block, error) {
	f.m.Lock()
	defer f.m.Unlock()

	if f.version != version {
		return model.Block{}, fmt.Errorf("%w: chain moved past block %d", model.ErrStaleMiningResult, tail.Index)
	}

	reward := model.NewTransaction(f.address, f.config.BENEFICIARY, f.config.MINING_REWARD)
	txs := append(f.txPool.Snapshot(), reward)
	block := model.NewBlock(tail.Index+1, f.now(), proof, previousHash, txs)

	if err := f.store.AppendBlock(block); err != nil {
		return model.Block{}, fmt.Errorf("store block %d: %w", block.Index, err)
	}
	f.chain = append(f.chain, block)
	f.txPool.Drain()
	f.version++

	f.logger.Info("mined block", "index", block.Index, "proof", block.Proof, "transactions", len(block.Transactions))
	return f.copyChain([]model.Block{block})[0], nil
}

// ReplaceChain polls every peer and adopts the longest valid chain found, provided it is strictly
// longer than the local one. Peers are polled without the lock; the swap is a compare and set
// against the chain as it is once polling is over. Pending transactions are kept.
func (f *FullNode) ReplaceChain(ctx context.Context) (bool, []model.Block, error) {
	f.m.RLock()
	local := f.chain
	peers := f.peerListUnsafe()
	f.m.RUnlock()

	replaced, best := Reconcile(ctx, f.fetcher, peers, local, f.config.DIFFICULTY, f.config.PeerTimeout(), f.logger)
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}
	if !replaced {
		return false, f.copyChain(local), nil
	}

	f.m.Lock()
	defer f.m.Unlock()

	if len(best) <= len(f.chain) {
		f.logger.Info("local chain grew while polling peers, keep it", "local", len(f.chain), "candidate", len(best))
		return false, f.copyChain(f.chain), nil
	}
	if err := f.store.ReplaceChain(best); err != nil {
		return false, nil, fmt.Errorf("store chain: %w", err)
	}
	// The candidate slice belongs to the fetcher.
	f.chain = f.copyChain(best)
	f.version++

	f.logger.Info("replaced chain", "height", len(best))
	return true, f.copyChain(best), nil
}
