package full_node

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// startTestServer serves sev over an in-memory listener and returns a client to it.
func startTestServer(t *testing.T, sev *FullNodeServer) service.LedgerServiceClient {
	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer()
	service.RegisterLedgerServiceServer(grpcServer, sev)
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.Dial("bufnet",
		grpc.WithContextDialer(func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithInsecure())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return service.NewLedgerServiceClient(conn)
}

func TestFullNodeServerRPC(t *testing.T) {
	f := createTestFullNode(t)
	client := startTestServer(t, NewFullNodeServer(f, testLogger()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx := model.NewTransaction("alice", "bob", "1.5")
	added, err := client.AddTransaction(ctx, service.NewAddTransactionRequest(tx))
	require.NoError(t, err)
	assert.Equal(t, int64(2), added.Index)

	mined, err := client.MineBlock(ctx, &service.MineBlockRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mined.Block.Index)
	assert.Equal(t, tx, mined.Block.Transactions[0])

	chain, err := client.GetChain(ctx, &service.GetChainRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, chain.Length)
	assert.Equal(t, f.GetChain(), *chain)

	valid, err := client.IsValid(ctx, &service.IsValidRequest{})
	require.NoError(t, err)
	assert.True(t, valid.Valid)

	connected, err := client.ConnectNode(ctx, &service.ConnectNodeRequest{Nodes: []string{"http://127.0.0.1:5001"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:5001"}, connected.TotalNodes)
}

func TestFullNodeServerInvalidArgument(t *testing.T) {
	f := createTestFullNode(t)
	client := startTestServer(t, NewFullNodeServer(f, testLogger()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sender := "alice"
	_, err := client.AddTransaction(ctx, &service.AddTransactionRequest{Sender: &sender})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, f.PendingTransactions())

	_, err = client.ConnectNode(ctx, &service.ConnectNodeRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.ConnectNode(ctx, &service.ConnectNodeRequest{Nodes: []string{"http://"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, f.GetPeers())
}

func TestFullNodeServerReplaceChain(t *testing.T) {
	longer := buildChain(t, 4, "peer-long")
	fetcher := &fakeFetcher{chains: map[string]model.ChainResponse{
		"127.0.0.1:5001": model.NewChainResponse(longer),
	}}
	f := createTestFullNode(t, WithFetcher(fetcher))
	client := startTestServer(t, NewFullNodeServer(f, testLogger()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.ConnectNode(ctx, &service.ConnectNodeRequest{Nodes: []string{"127.0.0.1:5001"}})
	require.NoError(t, err)
	resp, err := client.ReplaceChain(ctx, &service.ReplaceChainRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Replaced)
	assert.Equal(t, longer, resp.Chain)
}

func TestStartStopMining(t *testing.T) {
	f := createTestFullNode(t)
	sev := NewFullNodeServer(f, testLogger())

	assert.Error(t, sev.StopMining())
	require.NoError(t, sev.StartMining())
	assert.True(t, sev.IsMining())
	assert.Error(t, sev.StartMining())

	require.Eventually(t, func() bool { return f.GetHeight() >= 3 }, 10*time.Second, 10*time.Millisecond)

	require.NoError(t, sev.StopMining())
	assert.False(t, sev.IsMining())
	height := f.GetHeight()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, height, f.GetHeight())
	assert.True(t, f.IsValid())

	// Mining can be started again.
	require.NoError(t, sev.StartMining())
	require.NoError(t, sev.StopMining())
}
