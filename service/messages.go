package service

import (
	"fmt"

	"github.com/Luismorlan/pow_ledger/model"
)

type GetChainRequest struct{}

type MineBlockRequest struct{}

type MineBlockResponse struct {
	Block model.Block `json:"block"`
}

type IsValidRequest struct{}

type IsValidResponse struct {
	Valid bool `json:"valid"`
}

// AddTransactionRequest keeps every field optional so that a missing field can be told apart
// from a zero value. Decoding fails on an amount that is not a finite number.
type AddTransactionRequest struct {
	Sender   *string  `json:"sender"`
	Receiver *string  `json:"receiver"`
	Amount   *model.Amount `json:"amount"`
}

func NewAddTransactionRequest(tx model.Transaction) *AddTransactionRequest {
	return &AddTransactionRequest{
		Sender:   &tx.Sender,
		Receiver: &tx.Receiver,
		Amount:   &tx.Amount,
	}
}

// Transaction returns the requested transaction, or an error wrapping model.ErrClientInput
// naming the first missing field.
func (r *AddTransactionRequest) Transaction() (model.Transaction, error) {
	switch {
	case r == nil:
		return model.Transaction{}, fmt.Errorf("%w: empty transaction", model.ErrClientInput)
	case r.Sender == nil:
		return model.Transaction{}, fmt.Errorf("%w: missing sender", model.ErrClientInput)
	case r.Receiver == nil:
		return model.Transaction{}, fmt.Errorf("%w: missing receiver", model.ErrClientInput)
	case r.Amount == nil:
		return model.Transaction{}, fmt.Errorf("%w: missing amount", model.ErrClientInput)
	}
	return model.NewTransaction(*r.Sender, *r.Receiver, *r.Amount), nil
}

type AddTransactionResponse struct {
	// Index of the block the transaction will be sealed into.
	Index int64 `json:"index"`
}

type ConnectNodeRequest struct {
	Nodes []string `json:"nodes"`
}

type ConnectNodeResponse struct {
	TotalNodes []string `json:"total_nodes"`
}

type ReplaceChainRequest struct{}
