package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Luismorlan/pow_ledger/commands"
	"github.com/Luismorlan/pow_ledger/layout"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/wallet"
	"github.com/jroimartin/gocui"
	"github.com/pterm/pterm"
)

var (
	name      *string
	timeout   *int
	debugMode *bool
)

func init() {
	name = flag.String("name", "", "sender name of your transactions, random when empty")
	timeout = flag.Int("timeout", 120, "timeout of a single call to the full node in seconds")
	debugMode = flag.Bool("debug_mode", false, "Using debug mode will disable fancy GUI.")
}

// Return a gui handle if not in debug mode.
func ListenOnInput(cmd chan commands.ClientCommand, debugMode bool) *gocui.Gui {
	if debugMode {
		go ParseCommand(cmd)
		return nil
	}
	g, err := layout.CreateGui(func(s string) error {
		c, err := commands.CreateClientCommand(s)
		if err != nil {
			return err
		}
		go func() { cmd <- c }()
		return nil
	}, "wallet/cmd/usage.txt")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return g
}

func main() {
	flag.Parse()

	cmd := make(chan commands.ClientCommand)
	// Start listening on input.
	g := ListenOnInput(cmd, *debugMode)
	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))
	if g != nil {
		logger = slog.New(slog.NewTextHandler(layout.NewViewWriter(g, layout.LoggerView), nil))
	}

	w := wallet.NewWallet(*name, time.Duration(*timeout)*time.Second, logger)
	defer w.Close()
	w.Log("wallet ready", "name", w.Name)

	go HandleCommand(cmd, w)

	if g == nil {
		c := make(chan int)
		<-c
	}
	defer g.Close()
	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		logger.Error("gui stopped", "err", err)
	}
}

// Parse command from stdio.
func ParseCommand(cmd chan commands.ClientCommand) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			os.Exit(0)
		}
		// convert CRLF to LF
		text = strings.Replace(text, "\n", "", -1)
		c, err := commands.CreateClientCommand(text)
		if err != nil {
			fmt.Println(err)
			continue
		}
		cmd <- c
	}
}

func HandleCommand(cmd chan commands.ClientCommand, w *wallet.Wallet) {
	for {
		c := <-cmd
		switch c.Op {
		case commands.TRANSFER:
			receiver := c.Args[0]
			value, _ := model.ParseAmount(c.Args[1])
			index, err := w.Transfer(receiver, value)
			if err != nil {
				w.Log("fail to transfer money", "err", err)
				continue
			}
			w.Log("successfully sent transaction to full node", "receiver", receiver, "value", value, "block", index)
		case commands.WHOAMI:
			w.Log("wallet", "name", w.Name)
		case commands.CONNECT_NODE:
			ipAddr := c.Args[0]
			port := c.Args[1]
			if err := w.SetFullNodeConnection(ipAddr, port); err != nil {
				w.Log("failed to connect to full node endpoint "+ipAddr+":"+port, "err", err)
				continue
			}
			w.Log("connected full node endpoint " + ipAddr + ":" + port)
		case commands.MINE_BLOCK:
			go func() {
				b, err := w.Mine()
				if err != nil {
					w.Log("fail to mine block", "err", err)
					return
				}
				w.Log("block mined", "index", b.Index, "proof", b.Proof, "transactions", len(b.Transactions))
			}()
		case commands.GET_CHAIN:
			resp, err := w.GetChain()
			if err != nil {
				w.Log("fail to get chain", "err", err)
				continue
			}
			for _, b := range resp.Chain {
				w.Log("block", "index", b.Index, "proof", b.Proof, "previous_hash", b.PreviousHash, "transactions", b.Transactions)
			}
			w.Log("chain", "length", resp.Length)
		case commands.IS_VALID:
			valid, err := w.IsValid()
			if err != nil {
				w.Log("fail to validate chain", "err", err)
				continue
			}
			w.Log("chain validated", "valid", valid)
		default:
			w.Log(fmt.Sprintf("Unimplemented command: %d", c.Op))
		}
	}
}
