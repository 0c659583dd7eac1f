package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/Luismorlan/pow_ledger/model"
)

// How many candidates are tried between two looks at the context.
const cancelCheckInterval = 1024

// PuzzleInput is the decimal text of proof² - previousProof², with a leading '-' when negative.
// The arithmetic is exact so proofs of any size hash like they would on every other node.
func PuzzleInput(previousProof int64, proof int64) string {
	p := big.NewInt(proof)
	p.Mul(p, p)
	q := big.NewInt(previousProof)
	q.Mul(q, q)
	return p.Sub(p, q).String()
}

// MatchPuzzle reports whether proof solves the puzzle set by previousProof, that is whether the
// hex SHA256 digest of PuzzleInput starts with difficulty zeros.
// The puzzle only binds proof values, never the block content.
func MatchPuzzle(previousProof int64, proof int64, difficulty int) bool {
	return HexHasLeadingZeros(SHA256Hex([]byte(PuzzleInput(previousProof, proof))), difficulty)
}

// SearchProof returns the smallest proof >= 1 that solves the puzzle set by previousProof. The
// search is unbounded; it only stops early when ctx is done.
func SearchProof(ctx context.Context, previousProof int64, difficulty int) (int64, error) {
	prevSquare := big.NewInt(previousProof)
	prevSquare.Mul(prevSquare, prevSquare)
	c := new(big.Int)
	for proof := int64(1); proof < math.MaxInt64; proof++ {
		if proof%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			default:
			}
		}
		c.SetInt64(proof)
		c.Mul(c, c)
		c.Sub(c, prevSquare)
		if HexHasLeadingZeros(SHA256Hex([]byte(c.String())), difficulty) {
			return proof, nil
		}
	}
	return 0, errors.New("failed to find any proof")
}

// HashBlock returns the hex SHA256 digest of the canonical JSON form of the block.
func HashBlock(block model.Block) string {
	if block.Transactions == nil {
		block.Transactions = []model.Transaction{}
	}
	data, err := CanonicalJSON(block)
	if err != nil {
		slog.Error("failed to encode block", "index", block.Index, "err", err)
		return ""
	}
	return SHA256Hex(data)
}

// ValidateChain walks the chain from the genesis block and returns the first violation found,
// wrapping model.ErrInvalidChain. An empty chain is valid.
func ValidateChain(chain []model.Block, difficulty int) error {
	if len(chain) == 0 {
		return nil
	}
	genesis := chain[0]
	if genesis.Index != 1 || genesis.PreviousHash != model.GenesisPreviousHash {
		return fmt.Errorf("%w: malformed genesis block (index %d, previous hash %q)", model.ErrInvalidChain, genesis.Index, genesis.PreviousHash)
	}
	for i := 1; i < len(chain); i++ {
		if err := ValidateBlock(chain[i], chain[i-1], difficulty); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

// ValidateBlock checks a block against its predecessor: index continuity, previous hash
// linkage and the proof of work.
func ValidateBlock(current model.Block, previous model.Block, difficulty int) error {
	if current.Index != previous.Index+1 {
		return fmt.Errorf("%w: expected index %d, got %d", model.ErrInvalidChain, previous.Index+1, current.Index)
	}
	if expected := HashBlock(previous); current.PreviousHash != expected {
		return fmt.Errorf("%w: expected previous hash %s, got %s", model.ErrInvalidChain, expected, current.PreviousHash)
	}
	if !MatchPuzzle(previous.Proof, current.Proof, difficulty) {
		return fmt.Errorf("%w: proof %d does not solve the puzzle of proof %d", model.ErrInvalidChain, current.Proof, previous.Proof)
	}
	return nil
}

func IsValidChain(chain []model.Block, difficulty int) bool {
	return ValidateChain(chain, difficulty) == nil
}
