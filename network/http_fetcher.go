package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Luismorlan/pow_ledger/model"
)

// MaxChainBytes bounds the body of a peer's get_chain response.
const MaxChainBytes = 64 << 20

// HTTPFetcher reads a peer's chain from its get_chain route.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, maxBytes: MaxChainBytes}
}

func (f *HTTPFetcher) FetchChain(ctx context.Context, addr string) (model.ChainResponse, error) {
	url := "http://" + addr + "/get_chain"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ChainResponse{}, fmt.Errorf("%w: %s: %v", model.ErrPeerUnreachable, addr, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return model.ChainResponse{}, fmt.Errorf("%w: %s: %v", model.ErrPeerUnreachable, addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.ChainResponse{}, fmt.Errorf("%w: %s: unsuccessful status code %d", model.ErrPeerUnreachable, addr, resp.StatusCode)
	}
	var chain model.ChainResponse
	// A body cut at maxBytes fails to decode.
	if err := json.NewDecoder(io.LimitReader(resp.Body, f.maxBytes)).Decode(&chain); err != nil {
		return model.ChainResponse{}, fmt.Errorf("%w: %s: decode chain: %v", model.ErrPeerUnreachable, addr, err)
	}
	return chain, nil
}
