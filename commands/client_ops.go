package commands

import (
	"errors"
	"net"
	"regexp"
	"strings"
)

const PORT_REGEX = "^[0-9]{2,5}$"

const (
	// do nothing operation
	NOOP = iota
	// Submit a transaction from this wallet: transfer <receiver> <amount>.
	TRANSFER
	// Print the wallet name, the sender of its transactions.
	WHOAMI
	// Connect a full node with ip address and port
	CONNECT_NODE
	// Ask the full node to mine a block.
	MINE_BLOCK
	// Print the chain of the full node.
	GET_CHAIN
	// Ask the full node to validate its chain.
	IS_VALID
)

type ClientCommand struct {
	Op   Operation
	Args []string
}

func (c ClientCommand) IsValid() bool {
	switch c.Op {
	case TRANSFER:
		if len(c.Args) != 2 {
			return false
		}
		return isAmount(c.Args[1])
	case WHOAMI, MINE_BLOCK, GET_CHAIN, IS_VALID:
		return len(c.Args) == 0
	case CONNECT_NODE:
		if len(c.Args) != 2 {
			return false
		}
		ipAddr := c.Args[0]
		port := c.Args[1]
		ip := net.ParseIP(ipAddr)

		portRegex, _ := regexp.Compile(PORT_REGEX)
		return (ip != nil || ipAddr == "localhost") && portRegex.Match([]byte(port))
	default:
		return false
	}
}

func CreateClientCommand(s string) (ClientCommand, error) {
	// split command by space.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return ClientCommand{}, errors.New("command is empty")
	}
	cmd := ClientCommand{}
	switch ss[0] {
	case "transfer":
		cmd.Op = TRANSFER
	case "whoami":
		cmd.Op = WHOAMI
	case "connect":
		cmd.Op = CONNECT_NODE
	case "mine":
		cmd.Op = MINE_BLOCK
	case "chain":
		cmd.Op = GET_CHAIN
	case "valid":
		cmd.Op = IS_VALID
	default:
		cmd.Op = NOOP
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return ClientCommand{}, errors.New("invalid command")
	}
	return cmd, nil
}
