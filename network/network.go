package network

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/Luismorlan/pow_ledger/model"
)

// ChainFetcher is how a node asks a peer for its chain during consensus. Every error returned
// wraps model.ErrPeerUnreachable.
type ChainFetcher interface {
	FetchChain(ctx context.Context, addr string) (model.ChainResponse, error)
}

// NormalizeAddress reduces a peer address to its canonical "host:port" form. Scheme and path are
// dropped: "http://127.0.0.1:5001/get_chain" becomes "127.0.0.1:5001". An address without a scheme
// is read as "host:port[/path]".
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("empty address")
	}
	if !strings.Contains(addr, "://") {
		addr = "//" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("address has no host: " + addr)
	}
	if u.Port() == "" {
		switch u.Scheme {
		case "http":
			return net.JoinHostPort(u.Hostname(), "80"), nil
		case "https":
			return net.JoinHostPort(u.Hostname(), "443"), nil
		default:
			return "", errors.New("address has no port: " + addr)
		}
	}
	if u.Hostname() == "" {
		return "", errors.New("address has no host: " + addr)
	}
	return net.JoinHostPort(u.Hostname(), u.Port()), nil
}
