package commands

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/network"
)

type Operation int

const (
	DEFAULT = iota
	// Mine a single block and wait for it.
	MINE
	// Start mining, infinite loop until explicit cancel.
	START
	// Stop mining completely.
	STOP
	// Print the whole chain.
	CHAIN
	// Validate the local chain.
	VALID
	// Submit a transaction: tx <sender> <receiver> <amount>.
	TX
	// Add peers to this full node: connect <addr>...
	CONNECT
	// Adopt the longest valid chain among peers.
	REPLACE
	// List all peers.
	LIST_PEER
	// Show the blockchain.
	SHOW
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

func (c Command) IsValid() bool {
	switch c.Op {
	case MINE, START, STOP, CHAIN, VALID, REPLACE, LIST_PEER:
		return len(c.Args) == 0
	case TX:
		if len(c.Args) != 3 {
			return false
		}
		return isAmount(c.Args[2])
	case CONNECT:
		if len(c.Args) == 0 {
			return false
		}
		for _, addr := range c.Args {
			if _, err := network.NormalizeAddress(addr); err != nil {
				return false
			}
		}
		return true
	case SHOW:
		if len(c.Args) != 1 {
			return false
		}
		// depth must be a non negative number.
		d, err := strconv.Atoi(c.Args[0])
		return err == nil && d >= 0
	default:
		return false
	}
}

// From string, create
func CreateCommand(s string) (Command, error) {
	// split command by space.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.New("command is empty")
	}
	cmd := Command{}
	switch ss[0] {
	case "mine":
		cmd.Op = MINE
	case "start":
		cmd.Op = START
	case "stop":
		cmd.Op = STOP
	case "chain":
		cmd.Op = CHAIN
	case "valid":
		cmd.Op = VALID
	case "tx":
		cmd.Op = TX
	case "connect":
		cmd.Op = CONNECT
	case "replace":
		cmd.Op = REPLACE
	case "peers":
		cmd.Op = LIST_PEER
	case "show":
		cmd.Op = SHOW
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return Command{}, errors.New("invalid command")
	}
	return cmd, nil
}

// Create a brand new command with default operation.
func NewDefaultCommand() Command {
	return Command{
		Op: DEFAULT,
	}
}

func (c Command) IsDefault() bool {
	return c.Op == DEFAULT
}

// isAmount reports whether s is a finite JSON number. Any sign is accepted.
func isAmount(s string) bool {
	_, err := model.ParseAmount(s)
	return err == nil
}
