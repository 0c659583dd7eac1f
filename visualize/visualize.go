package visualize

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os/exec"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/utils"
	"github.com/bradleyjkemp/memviz"
)

// We re-define the visualize model here because the chain model carries
// details that are too long to render, e.g. full hashes and timestamps.
type transaction struct {
	sender   string
	receiver string
	amount   float64
}

type block struct {
	index    int64
	hash     string
	prevHash string
	proof    int64
	txs      []transaction
	next     *block
}

// The hash is just too long to render, instead we take only first 3 and last 3
// characters and replace the middle part with '...'. E.g. "abcdefghi" will be rendered as "abc...ghi"
func shortenString(s string) string {
	if len(s) < 9 {
		return s
	}
	return fmt.Sprintf("%s...%s", s[0:3], s[len(s)-3:])
}

func txToTx(tx model.Transaction) transaction {
	return transaction{
		sender:   shortenString(tx.Sender),
		receiver: shortenString(tx.Receiver),
		amount:   tx.Amount.Float64(),
	}
}

func blockToblock(b model.Block) *block {
	n := &block{
		index:    b.Index,
		hash:     shortenString(utils.HashBlock(b)),
		prevHash: shortenString(b.PreviousHash),
		proof:    b.Proof,
	}
	for _, tx := range b.Transactions {
		n.txs = append(n.txs, txToTx(tx))
	}
	return n
}

// Given a chain, return the linked list from the d-th block before the tail to the tail.
// Returns nil on an empty chain.
func constructData(chain []model.Block, d int) *block {
	if len(chain) == 0 {
		return nil
	}
	start := len(chain) - 1 - d
	if start < 0 {
		start = 0
	}

	var head, prev *block
	for _, b := range chain[start:] {
		n := blockToblock(b)
		if prev == nil {
			head = n
		} else {
			prev.next = n
		}
		prev = n
	}
	return head
}

// Entry to this package, where:
// chain: the blockchain as tracked by full node.
// d: depth to render, counted back from the tail.
// id: unique id of the full node.
// Returns the path of the rendered png.
func Render(chain []model.Block, d int, id string) (string, error) {
	buf := &bytes.Buffer{}

	head := constructData(chain, d)
	if head == nil {
		return "", model.ErrEmptyChain
	}
	memviz.Map(buf, head)

	// Write the parsed data to disk
	fileName := "/tmp/chaindata-" + id
	outputName := "/tmp/rendered-chain-" + id + ".png"
	if err := ioutil.WriteFile(fileName, buf.Bytes(), 0644); err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tpng", fileName, "-o", outputName)
	if err := cmd.Run(); err != nil {
		return fileName, fmt.Errorf("render %s with dot: %w", fileName, err)
	}
	return outputName, nil
}
