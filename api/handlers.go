package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
)

// Upper bound of a request body.
const maxRequestBytes = 1 << 20

type MineBlockResponse struct {
	Message      string              `json:"message"`
	Index        int64               `json:"index"`
	Timestamp    string              `json:"timestamp"`
	Proof        int64               `json:"proof"`
	PreviousHash string              `json:"previous_hash"`
	Transactions []model.Transaction `json:"transactions"`
}

type IsValidResponse struct {
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
}

type AddTransactionResponse struct {
	Message string `json:"message"`
	Index   int64  `json:"index"`
}

type ConnectNodeResponse struct {
	Message    string   `json:"message"`
	TotalNodes []string `json:"total_nodes"`
}

type ReplaceChainResponse struct {
	Message string `json:"message"`
	model.ReplaceResponse
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "err", err)
	}
}

func (s *Server) handleMineBlock(w http.ResponseWriter, r *http.Request) {
	b, err := s.ledger.Mine(r.Context())
	if err != nil {
		s.logger.Error("failed to mine block", "err", err)
		http.Error(w, "Failed to mine a block", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, MineBlockResponse{
		Message:      "Congratulations, you just mined a block!",
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Proof:        b.Proof,
		PreviousHash: b.PreviousHash,
		Transactions: b.Transactions,
	})
}

func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ledger.GetChain())
}

func (s *Server) handleIsValid(w http.ResponseWriter, r *http.Request) {
	resp := IsValidResponse{Message: "All good. The Blockchain is valid.", Valid: true}
	if !s.ledger.IsValid() {
		resp = IsValidResponse{Message: "Houston, we have a problem. The Blockchain is not valid.", Valid: false}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req service.AddTransactionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	tx, err := req.Transaction()
	if err != nil {
		http.Error(w, "Some elements of the transaction are missing", http.StatusBadRequest)
		return
	}
	index, err := s.ledger.AddTransaction(tx)
	if err != nil {
		s.logger.Error("failed to add transaction", "err", err)
		http.Error(w, "Failed to add the transaction", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusCreated, AddTransactionResponse{
		Message: fmt.Sprintf("This transaction will be added to Block %d", index),
		Index:   index,
	})
}

func (s *Server) handleConnectNode(w http.ResponseWriter, r *http.Request) {
	var req service.ConnectNodeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if req.Nodes == nil {
		http.Error(w, "No node", http.StatusBadRequest)
		return
	}
	peers, err := s.ledger.ConnectNodes(req.Nodes)
	if errors.Is(err, model.ErrClientInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if err != nil {
		s.logger.Error("failed to connect nodes", "err", err)
		http.Error(w, "Failed to connect the nodes", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusCreated, ConnectNodeResponse{
		Message:    "All the nodes are now connected. The ledger now contains the following nodes:",
		TotalNodes: peers,
	})
}

func (s *Server) handleReplaceChain(w http.ResponseWriter, r *http.Request) {
	replaced, chain, err := s.ledger.ReplaceChain(r.Context())
	if err != nil {
		s.logger.Error("failed to replace chain", "err", err)
		http.Error(w, "Failed to replace the chain", http.StatusInternalServerError)
		return
	}
	message := "All good. The chain is the largest one."
	if replaced {
		message = "The nodes had different chains so the chain was replaced by the longest one."
	}
	s.writeJSON(w, http.StatusOK, ReplaceChainResponse{
		Message:         message,
		ReplaceResponse: model.ReplaceResponse{Replaced: replaced, Chain: chain},
	})
}
