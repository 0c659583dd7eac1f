package full_node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/pow_ledger/config"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/store"
	"github.com/Luismorlan/pow_ledger/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.AppConfig {
	c := config.DefaultAppConfig()
	c.DIFFICULTY = 2
	c.NODE_ADDRESS = "node-a"
	c.BENEFICIARY = "Vince"
	c.PEER_TIMEOUT_SECONDS = 1
	return c
}

func createTestFullNode(t *testing.T, opts ...Option) *FullNode {
	opts = append([]Option{WithLogger(testLogger()), WithClock(func() time.Time { return testTime })}, opts...)
	f, err := NewFullNode(testConfig(), opts...)
	require.NoError(t, err)
	return f
}

// buildChain mines a valid chain of n blocks at difficulty 2. tag ends up in every block so
// that chains of the same length can be told apart.
func buildChain(t *testing.T, n int, tag string) []model.Block {
	chain := []model.Block{model.NewGenesisBlock(testTime, 1)}
	for len(chain) < n {
		prev := chain[len(chain)-1]
		proof, err := utils.SearchProof(context.Background(), prev.Proof, 2)
		require.NoError(t, err)
		txs := []model.Transaction{model.NewTransaction(tag, "Vince", "1")}
		chain = append(chain, model.NewBlock(prev.Index+1, testTime.Add(time.Duration(len(chain))*time.Second), proof, utils.HashBlock(prev), txs))
	}
	require.NoError(t, utils.ValidateChain(chain, 2))
	return chain
}

// A store whose appends can be made to fail.
type failingStore struct {
	*store.MemoryChainStore
	fail bool
}

func (s *failingStore) AppendBlock(block model.Block) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.MemoryChainStore.AppendBlock(block)
}

func (s *failingStore) ReplaceChain(chain []model.Block) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.MemoryChainStore.ReplaceChain(chain)
}

func TestNewFullNodeCreatesGenesis(t *testing.T) {
	s := store.NewMemoryChainStore()
	f := createTestFullNode(t, WithStore(s))

	resp := f.GetChain()
	require.Equal(t, 1, resp.Length)
	genesis := resp.Chain[0]
	assert.Equal(t, int64(1), genesis.Index)
	assert.Equal(t, int64(1), genesis.Proof)
	assert.Equal(t, "0", genesis.PreviousHash)
	assert.Equal(t, "2024-01-02 03:04:05.000000", genesis.Timestamp)
	assert.Empty(t, genesis.Transactions)
	assert.NotNil(t, genesis.Transactions)
	assert.True(t, f.IsValid())

	// Genesis is persisted.
	stored, err := s.LoadChain()
	require.NoError(t, err)
	assert.Equal(t, resp.Chain, stored)
}

func TestNewFullNodeGeneratesAddress(t *testing.T) {
	c := testConfig()
	c.NODE_ADDRESS = ""
	f, err := NewFullNode(c, WithLogger(testLogger()))
	require.NoError(t, err)
	assert.Len(t, f.Address(), 32)
	assert.False(t, strings.Contains(f.Address(), "-"))

	g, err := NewFullNode(c, WithLogger(testLogger()))
	require.NoError(t, err)
	assert.NotEqual(t, f.Address(), g.Address())
}

func TestNewFullNodeRejectsInvalidConfig(t *testing.T) {
	c := testConfig()
	c.PEER_TIMEOUT_SECONDS = 0
	_, err := NewFullNode(c, WithLogger(testLogger()))
	assert.Error(t, err)
}

func TestMineSealsConfiguredReward(t *testing.T) {
	c := testConfig()
	c.MINING_REWARD = "1.0"
	f, err := NewFullNode(c, WithLogger(testLogger()), WithClock(func() time.Time { return testTime }))
	require.NoError(t, err)

	b, err := f.Mine(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Transactions, 1)
	assert.Equal(t, model.Amount("1.0"), b.Transactions[0].Amount)
	assert.True(t, f.IsValid())
}

func TestNewFullNodeLoadsStoredChain(t *testing.T) {
	chain := buildChain(t, 4, "stored")
	s := store.NewMemoryChainStore()
	require.NoError(t, s.ReplaceChain(chain))

	f := createTestFullNode(t, WithStore(s))
	assert.Equal(t, chain, f.GetChain().Chain)
	assert.Equal(t, 4, f.GetHeight())
}

func TestNewFullNodeRejectsInvalidStoredChain(t *testing.T) {
	chain := buildChain(t, 3, "stored")
	chain[1].Transactions[0].Amount = "1000"
	s := store.NewMemoryChainStore()
	require.NoError(t, s.ReplaceChain(chain))

	_, err := NewFullNode(testConfig(), WithStore(s), WithLogger(testLogger()))
	assert.True(t, errors.Is(err, model.ErrInvariantViolation), "got %v", err)
}

func TestMineAppendsBlock(t *testing.T) {
	f := createTestFullNode(t)
	genesis, err := f.GetTail()
	require.NoError(t, err)

	tx := model.NewTransaction("alice", "bob", "2.5")
	index, err := f.AddTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), index)

	b, err := f.Mine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.Index)
	assert.Equal(t, int64(308), b.Proof)
	assert.Equal(t, utils.HashBlock(genesis), b.PreviousHash)
	assert.True(t, utils.MatchPuzzle(genesis.Proof, b.Proof, 2))
	assert.Equal(t, []model.Transaction{tx, model.NewTransaction("node-a", "Vince", "1")}, b.Transactions)

	assert.Empty(t, f.PendingTransactions())
	assert.Equal(t, 2, f.GetHeight())
	assert.True(t, f.IsValid())

	tail, err := f.GetTail()
	require.NoError(t, err)
	assert.Equal(t, b, tail)
}

func TestMineFollowsKnownProofs(t *testing.T) {
	c := testConfig()
	c.DIFFICULTY = 4
	f, err := NewFullNode(c, WithLogger(testLogger()))
	require.NoError(t, err)

	var proofs []int64
	for i := 0; i < 2; i++ {
		b, err := f.Mine(context.Background())
		require.NoError(t, err)
		proofs = append(proofs, b.Proof)
	}
	assert.Equal(t, []int64{533, 45293}, proofs)
	assert.True(t, f.IsValid())
}

func TestMineTransactionAccounting(t *testing.T) {
	f := createTestFullNode(t)
	for k := 0; k < 5; k++ {
		for i := 0; i < k; i++ {
			_, err := f.AddTransaction(model.NewTransaction("alice", "bob", model.NewAmount(float64(i))))
			require.NoError(t, err)
		}
		b, err := f.Mine(context.Background())
		require.NoError(t, err)
		require.Len(t, b.Transactions, k+1)
		assert.Equal(t, "node-a", b.Transactions[k].Sender)
	}
	assert.True(t, f.IsValid())
}

func TestMineCancelled(t *testing.T) {
	c := testConfig()
	c.DIFFICULTY = 64
	f, err := NewFullNode(c, WithLogger(testLogger()))
	require.NoError(t, err)
	_, err = f.AddTransaction(model.NewTransaction("alice", "bob", "1"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Mine(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// Nothing changed.
	assert.Equal(t, 1, f.GetHeight())
	assert.Len(t, f.PendingTransactions(), 1)
}

func TestAppendMinedBlockRejectsStaleResult(t *testing.T) {
	f := createTestFullNode(t)
	genesis, err := f.GetTail()
	require.NoError(t, err)

	_, err = f.Mine(context.Background())
	require.NoError(t, err)

	// A proof found on the genesis block before the chain moved.
	_, err = f.appendMinedBlock(0, genesis, 308, utils.HashBlock(genesis))
	assert.True(t, errors.Is(err, model.ErrStaleMiningResult))
	assert.Equal(t, 2, f.GetHeight())
	assert.True(t, f.IsValid())
}

func TestMineStoreFailure(t *testing.T) {
	s := &failingStore{MemoryChainStore: store.NewMemoryChainStore()}
	f := createTestFullNode(t, WithStore(s))
	_, err := f.AddTransaction(model.NewTransaction("alice", "bob", "1"))
	require.NoError(t, err)

	s.fail = true
	_, err = f.Mine(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, f.GetHeight())
	assert.Len(t, f.PendingTransactions(), 1)

	s.fail = false
	b, err := f.Mine(context.Background())
	require.NoError(t, err)
	assert.Len(t, b.Transactions, 2)
}

func TestConcurrentMining(t *testing.T) {
	f := createTestFullNode(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Mine(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	resp := f.GetChain()
	assert.Equal(t, 5, resp.Length)
	assert.NoError(t, utils.ValidateChain(resp.Chain, 2))
	for _, b := range resp.Chain[1:] {
		// Each block has exactly one reward.
		assert.Len(t, b.Transactions, 1)
	}
}

func TestConcurrentSubmit(t *testing.T) {
	f := createTestFullNode(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			index, err := f.AddTransaction(model.NewTransaction(fmt.Sprintf("user-%d", i), "bob", "1"))
			assert.NoError(t, err)
			assert.Equal(t, int64(2), index)
		}(i)
	}
	wg.Wait()

	b, err := f.Mine(context.Background())
	require.NoError(t, err)
	assert.Len(t, b.Transactions, 51)
}

func TestGetChainReturnsCopy(t *testing.T) {
	f := createTestFullNode(t)
	_, err := f.AddTransaction(model.NewTransaction("alice", "bob", "1"))
	require.NoError(t, err)
	_, err = f.Mine(context.Background())
	require.NoError(t, err)

	resp := f.GetChain()
	resp.Chain[1].Transactions[0].Amount = "1000"
	resp.Chain[0].Proof = 42

	assert.True(t, f.IsValid())
	fresh := f.GetChain()
	assert.Equal(t, model.Amount("1"), fresh.Chain[1].Transactions[0].Amount)
	assert.Equal(t, int64(1), fresh.Chain[0].Proof)
}

func TestConnectNodes(t *testing.T) {
	f := createTestFullNode(t)

	peers, err := f.ConnectNodes([]string{"http://127.0.0.1:5002/", "127.0.0.1:5001", "", "http://127.0.0.1:5002"})
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:5001", "127.0.0.1:5002"}, peers)

	peers, err = f.ConnectNodes([]string{"http://127.0.0.1:5003"})
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:5001", "127.0.0.1:5002", "127.0.0.1:5003"}, peers)

	// An invalid address registers nothing.
	_, err = f.ConnectNodes([]string{"http://127.0.0.1:5004", "http://"})
	assert.True(t, errors.Is(err, model.ErrClientInput))
	assert.Equal(t, []string{"127.0.0.1:5001", "127.0.0.1:5002", "127.0.0.1:5003"}, f.GetPeers())

	peers, err = f.ConnectNodes([]string{})
	require.NoError(t, err)
	assert.Len(t, peers, 3)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	s, err := store.NewInMemoryLevelDBChainStore()
	require.NoError(t, err)
	defer s.Close()

	f := createTestFullNode(t, WithStore(s))
	_, err = f.AddTransaction(model.NewTransaction("alice", "bob", "3"))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.Mine(context.Background())
		require.NoError(t, err)
	}

	restarted := createTestFullNode(t, WithStore(s))
	assert.Equal(t, f.GetChain(), restarted.GetChain())
	assert.True(t, restarted.IsValid())

	// The restarted node keeps mining on the stored tail.
	b, err := restarted.Mine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Index)
}
