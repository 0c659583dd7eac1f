package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Luismorlan/pow_ledger/api"
	"github.com/Luismorlan/pow_ledger/commands"
	"github.com/Luismorlan/pow_ledger/config"
	"github.com/Luismorlan/pow_ledger/full_node"
	"github.com/Luismorlan/pow_ledger/layout"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/network"
	"github.com/Luismorlan/pow_ledger/service"
	"github.com/Luismorlan/pow_ledger/store"
	"github.com/jroimartin/gocui"
	"github.com/pterm/pterm"
	"google.golang.org/grpc"
)

var (
	port       *string
	grpcPort   *string
	peers      *string
	configPath *string
	debugMode  *bool
)

func init() {
	port = flag.String("port", "5001", "port of the http api")
	grpcPort = flag.String("grpc_port", "10000", "port to listen to peers and wallet")
	peers = flag.String("peers", "", "comma separated peer addresses, e.g. 127.0.0.1:5002,127.0.0.1:5003")
	configPath = flag.String("config_path", "full_node/cmd/config.yaml", "path to full node config")
	debugMode = flag.Bool("debug_mode", false, "Using debug mode will disable fancy GUI.")
}

func ParseCommand(cmd chan commands.Command) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		// convert CRLF to LF
		text = strings.Replace(text, "\n", "", -1)
		c, err := commands.CreateCommand(text)
		if err != nil {
			fmt.Println(err)
			continue
		}
		cmd <- c
	}
}

func logChain(logger *slog.Logger, chain []model.Block) {
	for _, b := range chain {
		logger.Info("block", "index", b.Index, "timestamp", b.Timestamp, "proof", b.Proof, "previous_hash", b.PreviousHash, "transactions", len(b.Transactions))
	}
}

// Commands are handled one at a time. Mining a single block, replacing the chain and showing
// it run in their own goroutine so that start and stop are never blocked.
func HandleCommand(cmd chan commands.Command, server *full_node.FullNodeServer, logger *slog.Logger) {
	node := server.FullNode()
	for {
		c := <-cmd
		switch c.Op {
		case commands.MINE:
			go func() {
				b, err := node.Mine(context.Background())
				if err != nil {
					logger.Error("failed to mine block", "err", err)
					return
				}
				logger.Info("congratulations, you just mined a block", "index", b.Index, "proof", b.Proof)
			}()
		case commands.START:
			if err := server.StartMining(); err != nil {
				logger.Warn(err.Error())
				continue
			}
			logger.Info("mining started")
		case commands.STOP:
			if err := server.StopMining(); err != nil {
				logger.Warn(err.Error())
			}
		case commands.CHAIN:
			resp := node.GetChain()
			logChain(logger, resp.Chain)
			logger.Info("chain", "length", resp.Length)
		case commands.VALID:
			logger.Info("chain validated", "valid", node.IsValid())
		case commands.TX:
			amount, _ := model.ParseAmount(c.Args[2])
			index, err := node.AddTransaction(model.NewTransaction(c.Args[0], c.Args[1], amount))
			if err != nil {
				logger.Error("failed to add transaction", "err", err)
				continue
			}
			logger.Info("transaction will be added to block", "index", index)
		case commands.CONNECT:
			ps, err := node.ConnectNodes(c.Args)
			if err != nil {
				logger.Error("failed to connect nodes", "err", err)
				continue
			}
			logger.Info("connected", "total_nodes", ps)
		case commands.REPLACE:
			go func() {
				replaced, chain, err := node.ReplaceChain(context.Background())
				if err != nil {
					logger.Error("failed to replace chain", "err", err)
					return
				}
				logger.Info("consensus done", "replaced", replaced, "length", len(chain))
			}()
		case commands.LIST_PEER:
			logger.Info("peers", "total_nodes", node.GetPeers())
		case commands.SHOW:
			d, err := strconv.Atoi(c.Args[0])
			if err != nil {
				logger.Error(c.Args[0] + " is not a valid number for depth")
				continue
			}
			go func() {
				path, err := server.Show(d)
				if err != nil {
					logger.Error("failed to render chain", "err", err)
					return
				}
				logger.Info("chain rendered", "path", path)
			}()
		default:
			logger.Warn("unrecognized command", "op", c.Op)
		}
	}
}

func createStore(cfg config.AppConfig) (store.ChainStore, error) {
	if cfg.STORE == config.STORE_LEVELDB {
		return store.OpenLevelDBChainStore(cfg.STORE_PATH)
	}
	return store.NewMemoryChainStore(), nil
}

func createFetcher(cfg config.AppConfig, logger *slog.Logger) network.ChainFetcher {
	if cfg.PEER_TRANSPORT == config.TRANSPORT_GRPC {
		return network.NewGRPCFetcher(logger)
	}
	return network.NewHTTPFetcher(&http.Client{})
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run returns instead of exiting so that the gui and the store are always closed.
func run() error {
	// A command channel that non-blockingly takes external or internal command
	// and handle it correspondingly.
	cmd := make(chan commands.Command)

	var g *gocui.Gui
	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))
	if !*debugMode {
		var err error
		g, err = layout.CreateGui(func(s string) error {
			c, err := commands.CreateCommand(s)
			if err != nil {
				return err
			}
			go func() { cmd <- c }()
			return nil
		}, "full_node/cmd/usage.txt")
		if err != nil {
			return fmt.Errorf("create gui: %w", err)
		}
		defer g.Close()
		logger = slog.New(slog.NewTextHandler(layout.NewViewWriter(g, layout.LoggerView), nil))
	}
	slog.SetDefault(logger)

	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", *configPath, err)
	}

	s, err := createStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	node, err := full_node.NewFullNode(cfg,
		full_node.WithStore(s),
		full_node.WithFetcher(createFetcher(cfg, logger)),
		full_node.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("start full node: %w", err)
	}
	if *peers != "" {
		if _, err := node.ConnectNodes(strings.Split(*peers, ",")); err != nil {
			return fmt.Errorf("connect peers: %w", err)
		}
	}

	grpcLis, err := net.Listen("tcp", ":"+*grpcPort)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", *grpcPort, err)
	}
	httpLis, err := net.Listen("tcp", ":"+*port)
	if err != nil {
		grpcLis.Close()
		return fmt.Errorf("listen on %s: %w", *port, err)
	}

	// Create a server with the full node to serve peers and wallets.
	server := full_node.NewFullNodeServer(node, logger)
	grpcServer := grpc.NewServer()
	service.RegisterLedgerServiceServer(grpcServer, server)
	defer grpcServer.GracefulStop()
	defer server.StopMining()
	logger.Info("starting to serve grpc", "port", *grpcPort, "difficulty", cfg.DIFFICULTY, "store", cfg.STORE, "peer_transport", cfg.PEER_TRANSPORT)
	go func() {
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("grpc server stopped", "err", err)
		}
	}()
	go func() {
		if err := api.NewServer(node, logger).Serve(httpLis); err != nil {
			logger.Error("http server stopped", "err", err)
		}
	}()

	go HandleCommand(cmd, server, logger)

	if g == nil {
		ParseCommand(cmd)
		return nil
	}
	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return fmt.Errorf("gui stopped: %w", err)
	}
	return nil
}
