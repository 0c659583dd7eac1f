package config

import (
	"errors"
	"io/ioutil"
	"time"

	"github.com/Luismorlan/pow_ledger/model"
	"gopkg.in/yaml.v2"
)

const (
	TRANSPORT_HTTP = "http"
	TRANSPORT_GRPC = "grpc"

	STORE_MEMORY  = "memory"
	STORE_LEVELDB = "leveldb"
)

// This is the global app config for the ledger node.
type AppConfig struct {
	// How many leading '0' hex digits the proof of work digest must carry.
	DIFFICULTY int `yaml:"difficulty"`
	// Proof of the genesis block.
	GENESIS_PROOF int64 `yaml:"genesis_proof"`
	// Amount of the reward transaction sealed into every mined block. An integer literal stays an
	// integer in the block, 1.0 stays a float.
	MINING_REWARD model.Amount `yaml:"mining_reward"`
	// Receiver of the mining reward.
	BENEFICIARY string `yaml:"beneficiary"`
	// Sender of the mining reward. A random id is generated when empty.
	NODE_ADDRESS string `yaml:"node_address"`
	// How chains are fetched from peers, "http" or "grpc".
	PEER_TRANSPORT string `yaml:"peer_transport"`
	// Timeout of a single peer fetch during consensus.
	PEER_TIMEOUT_SECONDS int `yaml:"peer_timeout_seconds"`
	// Where the chain is kept, "memory" or "leveldb".
	STORE string `yaml:"store"`
	// Directory of the leveldb store.
	STORE_PATH string `yaml:"store_path"`
}

// DefaultAppConfig returns the settings of the reference network.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DIFFICULTY:           4,
		GENESIS_PROOF:        1,
		MINING_REWARD:        "1",
		BENEFICIARY:          "miner",
		PEER_TRANSPORT:       TRANSPORT_HTTP,
		PEER_TIMEOUT_SECONDS: 30,
		STORE:                STORE_MEMORY,
		STORE_PATH:           "/tmp/pow_ledger",
	}
}

func (c AppConfig) PeerTimeout() time.Duration {
	return time.Duration(c.PEER_TIMEOUT_SECONDS) * time.Second
}

func (c AppConfig) Validate() error {
	if c.DIFFICULTY < 0 || c.DIFFICULTY > 64 {
		return errors.New("difficulty must be between 0 and 64")
	}
	if c.GENESIS_PROOF < 1 {
		return errors.New("genesis proof must be at least 1")
	}
	if c.MINING_REWARD == "" {
		return errors.New("mining reward must be a number")
	}
	if c.PEER_TIMEOUT_SECONDS < 1 {
		return errors.New("peer timeout must be at least 1 second")
	}
	if c.PEER_TRANSPORT != TRANSPORT_HTTP && c.PEER_TRANSPORT != TRANSPORT_GRPC {
		return errors.New("unknown peer transport: " + c.PEER_TRANSPORT)
	}
	if c.STORE != STORE_MEMORY && c.STORE != STORE_LEVELDB {
		return errors.New("unknown store: " + c.STORE)
	}
	if c.STORE == STORE_LEVELDB && c.STORE_PATH == "" {
		return errors.New("leveldb store needs a store path")
	}
	return nil
}

// ParseAppConfig decodes a yaml document on top of the defaults, so absent keys keep their
// default value.
func ParseAppConfig(data []byte) (AppConfig, error) {
	c := DefaultAppConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return AppConfig{}, err
	}
	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

// LoadAppConfig reads the yaml config at path.
func LoadAppConfig(path string) (AppConfig, error) {
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	return ParseAppConfig(yamlFile)
}
