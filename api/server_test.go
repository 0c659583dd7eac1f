package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Luismorlan/pow_ledger/config"
	"github.com/Luismorlan/pow_ledger/full_node"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/network"
	"github.com/Luismorlan/pow_ledger/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestNode(t *testing.T) *full_node.FullNode {
	c := config.DefaultAppConfig()
	c.DIFFICULTY = 2
	c.NODE_ADDRESS = "node-a"
	c.BENEFICIARY = "Vince"
	c.PEER_TIMEOUT_SECONDS = 2
	f, err := full_node.NewFullNode(c, full_node.WithLogger(testLogger()), full_node.WithFetcher(network.NewHTTPFetcher(nil)))
	require.NoError(t, err)
	return f
}

func contextWithTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func createTestServer(t *testing.T, f *full_node.FullNode) *httptest.Server {
	srv := httptest.NewServer(NewServer(f, testLogger()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method string, url string, body string) (int, []byte) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestMineAndGetChain(t *testing.T) {
	f := createTestNode(t)
	srv := createTestServer(t, f)

	code, data := do(t, http.MethodPost, srv.URL+"/add_transaction", `{"sender": "alice", "receiver": "bob", "amount": 5}`)
	require.Equal(t, http.StatusCreated, code)
	var added AddTransactionResponse
	require.NoError(t, json.Unmarshal(data, &added))
	assert.Equal(t, int64(2), added.Index)
	assert.Contains(t, added.Message, "Block 2")

	code, data = do(t, http.MethodGet, srv.URL+"/mine_block", "")
	require.Equal(t, http.StatusOK, code)
	var mined MineBlockResponse
	require.NoError(t, json.Unmarshal(data, &mined))
	assert.Equal(t, "Congratulations, you just mined a block!", mined.Message)
	assert.Equal(t, int64(2), mined.Index)
	assert.Equal(t, int64(308), mined.Proof)
	assert.Equal(t, []model.Transaction{
		model.NewTransaction("alice", "bob", "5"),
		model.NewTransaction("node-a", "Vince", "1"),
	}, mined.Transactions)

	code, data = do(t, http.MethodGet, srv.URL+"/get_chain", "")
	require.Equal(t, http.StatusOK, code)
	var chain model.ChainResponse
	require.NoError(t, json.Unmarshal(data, &chain))
	assert.Equal(t, 2, chain.Length)
	assert.Equal(t, utils.HashBlock(chain.Chain[0]), chain.Chain[1].PreviousHash)
	assert.Equal(t, mined.Timestamp, chain.Chain[1].Timestamp)

	code, data = do(t, http.MethodGet, srv.URL+"/is_valid", "")
	require.Equal(t, http.StatusOK, code)
	var valid IsValidResponse
	require.NoError(t, json.Unmarshal(data, &valid))
	assert.True(t, valid.Valid)
}

func TestGenesisOverHTTP(t *testing.T) {
	srv := createTestServer(t, createTestNode(t))

	code, data := do(t, http.MethodGet, srv.URL+"/get_chain", "")
	require.Equal(t, http.StatusOK, code)
	// Transactions of the genesis block are an empty list, never null.
	assert.Contains(t, string(data), `"transactions":[]`)
	assert.Contains(t, string(data), `"previous_hash":"0"`)
	assert.Contains(t, string(data), `"length":1`)
}

func TestAddTransactionBadRequest(t *testing.T) {
	f := createTestNode(t)
	srv := createTestServer(t, f)

	for _, body := range []string{
		`{"sender": "alice", "receiver": "bob"}`,
		`{"receiver": "bob", "amount": 1}`,
		`{"sender": "alice", "amount": 1}`,
		`{}`,
		`not json`,
	} {
		code, _ := do(t, http.MethodPost, srv.URL+"/add_transaction", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
	}

	code, _ := do(t, http.MethodGet, srv.URL+"/add_transaction", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	chain := f.GetChain()
	assert.Equal(t, 1, chain.Length)
}

func TestAddTransactionKeepsAmountText(t *testing.T) {
	f := createTestNode(t)
	srv := createTestServer(t, f)

	code, _ := do(t, http.MethodPost, srv.URL+"/add_transaction", `{"sender": "alice", "receiver": "bob", "amount": 10.0}`)
	require.Equal(t, http.StatusCreated, code)
	code, data := do(t, http.MethodGet, srv.URL+"/mine_block", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(data), `"amount":10.0`)
	assert.Contains(t, string(data), `"amount":1}`)
	assert.True(t, f.IsValid())
}

func TestOversizedBodyRejected(t *testing.T) {
	f := createTestNode(t)
	srv := createTestServer(t, f)

	big := strings.Repeat("a", maxRequestBytes)
	code, _ := do(t, http.MethodPost, srv.URL+"/add_transaction", `{"sender": "`+big+`", "receiver": "bob", "amount": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, f.PendingTransactions())

	code, _ = do(t, http.MethodPost, srv.URL+"/connect_node", `{"nodes": ["127.0.0.1:5002", "`+big+`"]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, f.GetPeers())
}

func TestConnectNode(t *testing.T) {
	srv := createTestServer(t, createTestNode(t))

	code, data := do(t, http.MethodPost, srv.URL+"/connect_node", `{"nodes": ["http://127.0.0.1:5001", "http://127.0.0.1:5002/", ""]}`)
	require.Equal(t, http.StatusCreated, code)
	var resp ConnectNodeResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, []string{"127.0.0.1:5001", "127.0.0.1:5002"}, resp.TotalNodes)

	code, _ = do(t, http.MethodPost, srv.URL+"/connect_node", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, http.MethodPost, srv.URL+"/connect_node", `{"nodes": null}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, http.MethodPost, srv.URL+"/connect_node", `{"nodes": ["http://"]}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

// Two nodes talking over HTTP: the shorter one adopts the chain of the longer one.
func TestReplaceChainBetweenNodes(t *testing.T) {
	longNode := createTestNode(t)
	longSrv := createTestServer(t, longNode)
	shortNode := createTestNode(t)
	shortSrv := createTestServer(t, shortNode)

	for i := 0; i < 3; i++ {
		code, _ := do(t, http.MethodGet, longSrv.URL+"/mine_block", "")
		require.Equal(t, http.StatusOK, code)
	}

	body, err := json.Marshal(map[string][]string{"nodes": {longSrv.URL}})
	require.NoError(t, err)
	code, _ := do(t, http.MethodPost, shortSrv.URL+"/connect_node", string(bytes.TrimSpace(body)))
	require.Equal(t, http.StatusCreated, code)

	code, data := do(t, http.MethodGet, shortSrv.URL+"/replace_chain", "")
	require.Equal(t, http.StatusOK, code)
	var resp ReplaceChainResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.True(t, resp.Replaced)
	assert.Len(t, resp.Chain, 4)
	assert.Equal(t, longNode.GetChain(), shortNode.GetChain())

	// Nothing longer left to adopt.
	code, data = do(t, http.MethodGet, shortSrv.URL+"/replace_chain", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.False(t, resp.Replaced)
	assert.Equal(t, "All good. The chain is the largest one.", resp.Message)

	// Either node keeps mining a valid chain.
	mined, err := shortNode.Mine(contextWithTimeout(t))
	require.NoError(t, err)
	assert.Equal(t, int64(5), mined.Index)
	assert.True(t, shortNode.IsValid())
}
