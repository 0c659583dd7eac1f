package full_node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	"github.com/Luismorlan/pow_ledger/visualize"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FullNodeServer serves a full node over gRPC and drives its continuous mining.
type FullNodeServer struct {
	service.UnimplementedLedgerServiceServer

	fullNode *FullNode
	logger   *slog.Logger

	// Protects the mining task below.
	mm sync.Mutex
	// Cancels the running mining task, nil when no task is running.
	cancelMining context.CancelFunc
	// Closed once the running mining task returned.
	miningDone chan struct{}
}

// Create a new full node server on top of an existing full node.
func NewFullNodeServer(f *FullNode, logger *slog.Logger) *FullNodeServer {
	return &FullNodeServer{
		fullNode: f,
		logger:   logger,
	}
}

func (sev *FullNodeServer) FullNode() *FullNode {
	return sev.fullNode
}

// toStatus converts a full node error to a gRPC status.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrClientInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (sev *FullNodeServer) GetChain(ctx context.Context, req *service.GetChainRequest) (*model.ChainResponse, error) {
	resp := sev.fullNode.GetChain()
	return &resp, nil
}

// Mine one block on request. The search stops when the caller goes away.
func (sev *FullNodeServer) MineBlock(ctx context.Context, req *service.MineBlockRequest) (*service.MineBlockResponse, error) {
	b, err := sev.fullNode.Mine(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.MineBlockResponse{Block: b}, nil
}

func (sev *FullNodeServer) IsValid(ctx context.Context, req *service.IsValidRequest) (*service.IsValidResponse, error) {
	return &service.IsValidResponse{Valid: sev.fullNode.IsValid()}, nil
}

func (sev *FullNodeServer) AddTransaction(ctx context.Context, req *service.AddTransactionRequest) (*service.AddTransactionResponse, error) {
	tx, err := req.Transaction()
	if err != nil {
		return nil, toStatus(err)
	}
	index, err := sev.fullNode.AddTransaction(tx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.AddTransactionResponse{Index: index}, nil
}

func (sev *FullNodeServer) ConnectNode(ctx context.Context, req *service.ConnectNodeRequest) (*service.ConnectNodeResponse, error) {
	if req.Nodes == nil {
		return nil, toStatus(errNoNodes)
	}
	peers, err := sev.fullNode.ConnectNodes(req.Nodes)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.ConnectNodeResponse{TotalNodes: peers}, nil
}

func (sev *FullNodeServer) ReplaceChain(ctx context.Context, req *service.ReplaceChainRequest) (*model.ReplaceResponse, error) {
	replaced, chain, err := sev.fullNode.ReplaceChain(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &model.ReplaceResponse{Replaced: replaced, Chain: chain}, nil
}

var errNoNodes = fmt.Errorf("%w: no node provided", model.ErrClientInput)

// StartMining mines blocks one after another in the background until StopMining is called.
func (sev *FullNodeServer) StartMining() error {
	sev.mm.Lock()
	defer sev.mm.Unlock()
	if sev.cancelMining != nil {
		return errors.New("mining has already been started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sev.cancelMining = cancel
	sev.miningDone = done

	go func() {
		defer close(done)
		for {
			_, err := sev.fullNode.Mine(ctx)
			if ctx.Err() != nil {
				sev.logger.Info("mining stopped")
				return
			}
			if err != nil {
				sev.logger.Error("failed to mine block, mining stopped", "err", err)
				sev.mm.Lock()
				if sev.miningDone == done {
					sev.cancelMining, sev.miningDone = nil, nil
					cancel()
				}
				sev.mm.Unlock()
				return
			}
		}
	}()
	return nil
}

// StopMining cancels the running mining task and waits for it to return.
func (sev *FullNodeServer) StopMining() error {
	sev.mm.Lock()
	cancel, done := sev.cancelMining, sev.miningDone
	sev.cancelMining, sev.miningDone = nil, nil
	sev.mm.Unlock()

	if cancel == nil {
		return errors.New("no running mining task to be stopped")
	}
	cancel()
	<-done
	return nil
}

func (sev *FullNodeServer) IsMining() bool {
	sev.mm.Lock()
	defer sev.mm.Unlock()
	return sev.cancelMining != nil
}

// Show renders the last d blocks of the chain and returns the path of the rendered image.
func (sev *FullNodeServer) Show(d int) (string, error) {
	chain := sev.fullNode.GetChain().Chain
	return visualize.Render(chain, d, sev.fullNode.Address())
}
