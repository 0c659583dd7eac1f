package full_node

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/network"
	"github.com/Luismorlan/pow_ledger/utils"
)

// The chain a peer answered with.
type PeerChain struct {
	Addr  string
	Chain model.ChainResponse
}

// FetchPeerChains asks every peer for its chain concurrently, each call bounded by timeout.
// Peers that fail to answer are logged and left out.
func FetchPeerChains(ctx context.Context, fetcher network.ChainFetcher, peers []string, timeout time.Duration, logger *slog.Logger) []PeerChain {
	results := make([]*PeerChain, len(peers))
	var wg sync.WaitGroup
	for i, peer := range peers {
		wg.Add(1)
		go func(i int, peer string) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			resp, err := fetcher.FetchChain(fetchCtx, peer)
			if err != nil {
				logger.Warn("skip unreachable peer", "peer", peer, "err", err)
				return
			}
			results[i] = &PeerChain{Addr: peer, Chain: resp}
		}(i, peer)
	}
	wg.Wait()

	chains := make([]PeerChain, 0, len(peers))
	for _, r := range results {
		if r != nil {
			chains = append(chains, *r)
		}
	}
	return chains
}

// SelectLongestChain picks, among the candidates, the longest valid chain strictly longer than
// local. Candidates whose advertised length disagrees with their chain are skipped. On equal
// lengths the first candidate seen wins, and a tie with local keeps local.
func SelectLongestChain(local []model.Block, candidates []PeerChain, difficulty int, logger *slog.Logger) (bool, []model.Block) {
	maxLength := len(local)
	var best []model.Block
	for _, c := range candidates {
		if !c.Chain.Consistent() {
			logger.Warn("skip peer with inconsistent chain length", "peer", c.Addr, "length", c.Chain.Length, "blocks", len(c.Chain.Chain))
			continue
		}
		if c.Chain.Length <= maxLength {
			continue
		}
		if err := utils.ValidateChain(c.Chain.Chain, difficulty); err != nil {
			logger.Warn("skip peer with invalid chain", "peer", c.Addr, "err", err)
			continue
		}
		maxLength = c.Chain.Length
		best = c.Chain.Chain
	}
	return best != nil, best
}

// Reconcile polls the peers and returns the chain the node should adopt, if any. It never
// touches node state.
func Reconcile(ctx context.Context, fetcher network.ChainFetcher, peers []string, local []model.Block, difficulty int, timeout time.Duration, logger *slog.Logger) (bool, []model.Block) {
	if len(peers) == 0 {
		return false, nil
	}
	return SelectLongestChain(local, FetchPeerChains(ctx, fetcher, peers, timeout, logger), difficulty, logger)
}
