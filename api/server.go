package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/gorilla/mux"
)

// Ledger is what the HTTP API serves. It is implemented by full_node.FullNode.
type Ledger interface {
	Mine(ctx context.Context) (model.Block, error)
	GetChain() model.ChainResponse
	IsValid() bool
	AddTransaction(tx model.Transaction) (int64, error)
	ConnectNodes(addrs []string) ([]string, error)
	ReplaceChain(ctx context.Context) (bool, []model.Block, error)
}

// Server represents the HTTP API server of a node.
type Server struct {
	ledger Ledger
	logger *slog.Logger
	router *mux.Router
}

// NewServer creates a new API server
func NewServer(ledger Ledger, logger *slog.Logger) *Server {
	s := &Server{
		ledger: ledger,
		logger: logger,
		router: mux.NewRouter().StrictSlash(true),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP endpoints
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/mine_block", s.handleMineBlock).Methods(http.MethodGet)
	s.router.HandleFunc("/get_chain", s.handleGetChain).Methods(http.MethodGet)
	s.router.HandleFunc("/is_valid", s.handleIsValid).Methods(http.MethodGet)
	s.router.HandleFunc("/add_transaction", s.handleAddTransaction).Methods(http.MethodPost)
	s.router.HandleFunc("/connect_node", s.handleConnectNode).Methods(http.MethodPost)
	s.router.HandleFunc("/replace_chain", s.handleReplaceChain).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts HTTP requests on lis until it fails.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("serving http api", "addr", lis.Addr().String())
	return http.Serve(lis, s.router)
}
