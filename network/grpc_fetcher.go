package network

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
)

// GRPCFetcher reads a peer's chain through the ledger gRPC service. Connections are kept per
// peer and redialed once they break.
type GRPCFetcher struct {
	opts   []grpc.DialOption
	logger *slog.Logger

	// Protects conns.
	m     sync.Mutex
	conns map[string]*grpc.ClientConn
}

// NewGRPCFetcher dials peers with opts, or insecurely when none are given.
func NewGRPCFetcher(logger *slog.Logger, opts ...grpc.DialOption) *GRPCFetcher {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithInsecure())
	}
	return &GRPCFetcher{
		opts:   opts,
		logger: logger,
		conns:  make(map[string]*grpc.ClientConn),
	}
}

func (f *GRPCFetcher) conn(addr string) (*grpc.ClientConn, error) {
	f.m.Lock()
	defer f.m.Unlock()

	if conn, ok := f.conns[addr]; ok {
		if state := conn.GetState(); state != connectivity.Shutdown && state != connectivity.TransientFailure {
			return conn, nil
		}
		f.logger.Info("close dead peer connection", "peer", addr)
		conn.Close()
		delete(f.conns, addr)
	}
	conn, err := grpc.Dial(addr, f.opts...)
	if err != nil {
		return nil, err
	}
	f.conns[addr] = conn
	return conn, nil
}

func (f *GRPCFetcher) FetchChain(ctx context.Context, addr string) (model.ChainResponse, error) {
	conn, err := f.conn(addr)
	if err != nil {
		return model.ChainResponse{}, fmt.Errorf("%w: %s: %v", model.ErrPeerUnreachable, addr, err)
	}
	res, err := service.NewLedgerServiceClient(conn).GetChain(ctx, &service.GetChainRequest{})
	if err != nil {
		return model.ChainResponse{}, fmt.Errorf("%w: %s: %v", model.ErrPeerUnreachable, addr, err)
	}
	return *res, nil
}

// Close closes every peer connection.
func (f *GRPCFetcher) Close() error {
	f.m.Lock()
	defer f.m.Unlock()
	for addr, conn := range f.conns {
		conn.Close()
		delete(f.conns, addr)
	}
	return nil
}
