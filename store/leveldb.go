package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	blockPrefix = "block/"
	heightKey   = "meta/height"
)

// LevelDBChainStore keeps one JSON encoded block per key, keyed by zero padded index so that
// iteration follows the chain order, plus the chain height.
type LevelDBChainStore struct {
	db *leveldb.DB
}

// OpenLevelDBChainStore opens, or creates, the store at path.
func OpenLevelDBChainStore(path string) (*LevelDBChainStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", path, err)
	}
	return &LevelDBChainStore{db: db}, nil
}

// NewInMemoryLevelDBChainStore is backed by leveldb's memory storage, for tests.
func NewInMemoryLevelDBChainStore() (*LevelDBChainStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBChainStore{db: db}, nil
}

func blockKey(position int) []byte {
	return []byte(fmt.Sprintf("%s%020d", blockPrefix, position))
}

func (s *LevelDBChainStore) height() (int, error) {
	data, err := s.db.Get([]byte(heightKey), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

func (s *LevelDBChainStore) LoadChain() ([]model.Block, error) {
	height, err := s.height()
	if err != nil {
		return nil, err
	}
	chain := make([]model.Block, 0, height)
	iter := s.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()
	for iter.Next() && len(chain) < height {
		var b model.Block
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, fmt.Errorf("decode block %s: %w", iter.Key(), err)
		}
		chain = append(chain, b)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(chain) != height {
		return nil, fmt.Errorf("store holds %d blocks, expected %d", len(chain), height)
	}
	return chain, nil
}

func (s *LevelDBChainStore) AppendBlock(block model.Block) error {
	height, err := s.height()
	if err != nil {
		return err
	}
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Put(blockKey(height), data)
	batch.Put([]byte(heightKey), []byte(strconv.Itoa(height+1)))
	return s.db.Write(batch, nil)
}

func (s *LevelDBChainStore) ReplaceChain(chain []model.Block) error {
	height, err := s.height()
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for i, b := range chain {
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		batch.Put(blockKey(i), data)
	}
	for i := len(chain); i < height; i++ {
		batch.Delete(blockKey(i))
	}
	batch.Put([]byte(heightKey), []byte(strconv.Itoa(len(chain))))
	return s.db.Write(batch, nil)
}

func (s *LevelDBChainStore) Close() error {
	return s.db.Close()
}
