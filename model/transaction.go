package model

type Transaction struct {
	// Who sends the amount. For a mining reward this is the address of the node that mined it.
	Sender string `json:"sender"`
	// Who receives the amount.
	Receiver string `json:"receiver"`
	// How much value to transfer. Sign and balance are not checked.
	Amount Amount `json:"amount"`
}

// NewTransaction creates a transaction. Transactions are never mutated after creation.
func NewTransaction(sender string, receiver string, amount Amount) Transaction {
	return Transaction{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
	}
}

// TransactionPool holds the transactions submitted but not yet sealed into a block, in
// submission order.
type TransactionPool struct {
	Txs []Transaction
}

// NewTransactionPool creates a new transaction pool with no transaction at all.
func NewTransactionPool() TransactionPool {
	return TransactionPool{
		Txs: []Transaction{},
	}
}

// Add appends a transaction at the end of the pool.
func (p *TransactionPool) Add(tx Transaction) {
	p.Txs = append(p.Txs, tx)
}

// Snapshot returns a copy of the pending transactions that does not alias the pool.
func (p *TransactionPool) Snapshot() []Transaction {
	txs := make([]Transaction, len(p.Txs))
	copy(txs, p.Txs)
	return txs
}

// Drain empties the pool.
func (p *TransactionPool) Drain() {
	p.Txs = []Transaction{}
}
