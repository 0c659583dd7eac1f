package model

import "time"

// TimestampLayout is the textual form of a block timestamp. Blocks are hashed over their JSON
// form, so the timestamp is kept as text to round-trip between nodes byte for byte.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// GenesisPreviousHash is the previous hash sentinel carried by the first block of every chain.
const GenesisPreviousHash = "0"

type Block struct {
	// Position in the chain, starting at 1 for the genesis block.
	Index int64 `json:"index"`
	// Wall clock time at which the block was sealed, formatted with TimestampLayout.
	Timestamp string `json:"timestamp"`
	// Proof of work relative to the previous block's proof.
	Proof int64 `json:"proof"`
	// Hash of the previous block in the hex format.
	PreviousHash string `json:"previous_hash"`
	// Transactions sealed into this block, the mining reward last.
	Transactions []Transaction `json:"transactions"`
}

// NewBlock creates a block sealed at time t. The transactions are copied so the block never
// aliases the caller's slice.
func NewBlock(index int64, t time.Time, proof int64, previousHash string, txs []Transaction) Block {
	sealed := make([]Transaction, len(txs))
	copy(sealed, txs)
	return Block{
		Index:        index,
		Timestamp:    FormatTimestamp(t),
		Proof:        proof,
		PreviousHash: previousHash,
		Transactions: sealed,
	}
}

// Create the genesis block with the given seed proof.
func NewGenesisBlock(t time.Time, proof int64) Block {
	return NewBlock(1, t, proof, GenesisPreviousHash, []Transaction{})
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
