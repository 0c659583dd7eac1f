package wallet

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	uuid "github.com/satori/go.uuid"
	"google.golang.org/grpc"
)

var ErrNotConnected = errors.New("not connected to any full node")

// User sends transactions to a full node and drives it remotely.
type Wallet struct {
	// Sender of every transaction this wallet submits.
	Name           string
	FullNodeClient service.LedgerServiceClient
	conn           *grpc.ClientConn
	// Deadline of a single call to the full node. Mining may take a while.
	timeout time.Duration
	logger  *slog.Logger
}

// Create a new wallet. A random name is picked when name is empty.
func NewWallet(name string, timeout time.Duration, logger *slog.Logger) *Wallet {
	if name == "" {
		name = strings.Replace(uuid.NewV4().String(), "-", "", -1)
	}
	return &Wallet{
		Name:    name,
		timeout: timeout,
		logger:  logger,
	}
}

func (w *Wallet) SetFullNodeConnection(ipAddr string, port string) error {
	return w.Connect(net.JoinHostPort(ipAddr, port))
}

// Connect replaces the current full node connection with one to target.
func (w *Wallet) Connect(target string, opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{grpc.WithInsecure()}, opts...)
	conn, err := grpc.Dial(target, opts...)
	if err != nil {
		w.logger.Error("failed to dial", "target", target, "err", err)
		return err
	}
	if w.conn != nil {
		w.conn.Close()
	}
	w.conn = conn
	w.FullNodeClient = service.NewLedgerServiceClient(conn)
	return nil
}

func (w *Wallet) Close() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	w.FullNodeClient = nil
	return err
}

func (w *Wallet) client() (service.LedgerServiceClient, error) {
	if w.FullNodeClient == nil {
		return nil, ErrNotConnected
	}
	return w.FullNodeClient, nil
}

// Transfer submits a transaction from this wallet and returns the index of the block that will
// seal it.
func (w *Wallet) Transfer(receiver string, amount model.Amount) (int64, error) {
	c, err := w.client()
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	tx := model.NewTransaction(w.Name, receiver, amount)
	resp, err := c.AddTransaction(ctx, service.NewAddTransactionRequest(tx))
	if err != nil {
		return 0, err
	}
	return resp.Index, nil
}

// Mine asks the full node to mine one block.
func (w *Wallet) Mine() (model.Block, error) {
	c, err := w.client()
	if err != nil {
		return model.Block{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	resp, err := c.MineBlock(ctx, &service.MineBlockRequest{})
	if err != nil {
		return model.Block{}, err
	}
	return resp.Block, nil
}

func (w *Wallet) GetChain() (model.ChainResponse, error) {
	c, err := w.client()
	if err != nil {
		return model.ChainResponse{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	resp, err := c.GetChain(ctx, &service.GetChainRequest{})
	if err != nil {
		return model.ChainResponse{}, err
	}
	return *resp, nil
}

func (w *Wallet) IsValid() (bool, error) {
	c, err := w.client()
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	resp, err := c.IsValid(ctx, &service.IsValidRequest{})
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Log a line for the user.
func (w *Wallet) Log(msg string, args ...any) {
	w.logger.Info(msg, args...)
}
