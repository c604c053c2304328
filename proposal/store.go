package proposal

import (
	"bytes"
	"strconv"

	tmjson "github.com/tendermint/tendermint/libs/json"
	"github.com/tendermint/tendermint/libs/log"
	tmdb "github.com/tendermint/tm-db"

	"optibft/types"
)

// Store persists proposals across restarts. The Lifecycle writes through on
// every state transition; the in-memory map remains the read path.
type Store interface {
	Save(p *types.Proposal) error
	Load(id uint64) (*types.Proposal, error)
	LoadAll() ([]*types.Proposal, error)
	Close() error
}

//----------------------------------------
// KVStore

const tableProposal = "proposal"

// KVStore keeps proposals in a tm-db key-value store.
//
// table definition:
// proposal table: key=proposal_{id}; value=tmjson(Proposal)
type KVStore struct {
	kvDB   tmdb.DB
	logger log.Logger
}

func NewKVStore(name, dir string, logger log.Logger) (*KVStore, error) {
	levelDB, err := tmdb.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, err
	}
	return NewKVStoreWithDB(levelDB, logger), nil
}

func NewKVStoreWithDB(kvdb tmdb.DB, logger log.Logger) *KVStore {
	return &KVStore{kvDB: kvdb, logger: logger}
}

func (kv *KVStore) Save(p *types.Proposal) error {
	bz, err := tmjson.Marshal(p)
	if err != nil {
		return err
	}
	return kv.kvDB.Set(proposalKey(p.ID), bz)
}

func (kv *KVStore) Load(id uint64) (*types.Proposal, error) {
	raw, err := kv.kvDB.Get(proposalKey(id))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrUnknownProposal
	}
	p := new(types.Proposal)
	if err := tmjson.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (kv *KVStore) LoadAll() ([]*types.Proposal, error) {
	prefix := []byte(tableProposal + "_")
	itr, err := kv.kvDB.Iterator(nil, nil)
	if err != nil {
		return nil, err
	}
	defer itr.Close()

	var proposals []*types.Proposal
	for ; itr.Valid(); itr.Next() {
		if !bytes.HasPrefix(itr.Key(), prefix) {
			continue
		}
		p := new(types.Proposal)
		if err := tmjson.Unmarshal(itr.Value(), p); err != nil {
			kv.logger.Error("skipping undecodable proposal", "key", string(itr.Key()), "err", err)
			continue
		}
		proposals = append(proposals, p)
	}
	return proposals, itr.Error()
}

func (kv *KVStore) Close() error {
	return kv.kvDB.Close()
}

func proposalKey(id uint64) []byte {
	buffer := new(bytes.Buffer)
	buffer.WriteString(tableProposal)
	buffer.WriteString("_")
	buffer.WriteString(strconv.FormatUint(id, 10))
	return buffer.Bytes()
}

//----------------------------------------
// NopStore

// NopStore discards everything. EXPOSED FOR TESTING.
type NopStore struct{}

func (NopStore) Save(*types.Proposal) error           { return nil }
func (NopStore) Load(uint64) (*types.Proposal, error) { return nil, ErrUnknownProposal }
func (NopStore) LoadAll() ([]*types.Proposal, error)  { return nil, nil }
func (NopStore) Close() error                         { return nil }
