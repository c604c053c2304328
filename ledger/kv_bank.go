package ledger

import (
	"bytes"
	"strconv"
	"sync"

	"github.com/tendermint/tendermint/libs/log"
	tmdb "github.com/tendermint/tm-db"

	"optibft/types"
)

const (
	tableBalance   = "balance"
	tableAllowance = "allowance"
)

// KVBank is a Bank persisted in a tm-db key-value store.
//
// table definition:
// balance table:   key=balance_{addr};          value=string(uint64)
// allowance table: key=allowance_{owner}{spender}; value=string(uint64)
type KVBank struct {
	mtx  sync.Mutex
	kvDB tmdb.DB

	logger log.Logger
}

func NewKVBank(name, dir string, logger log.Logger) (*KVBank, error) {
	levelDB, err := tmdb.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, err
	}
	return NewKVBankWithDB(levelDB, logger), nil
}

func NewKVBankWithDB(kvdb tmdb.DB, logger log.Logger) *KVBank {
	return &KVBank{kvDB: kvdb, logger: logger}
}

func (b *KVBank) BalanceOf(addr types.Address) uint64 {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.getUint(balanceKey(addr))
}

func (b *KVBank) Approve(owner, spender types.Address, amount uint64) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.kvDB.Set(allowanceKey(owner, spender), uint2byte(amount))
}

func (b *KVBank) Allowance(owner, spender types.Address) uint64 {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.getUint(allowanceKey(owner, spender))
}

func (b *KVBank) Transfer(from, to types.Address, amount uint64) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.move(from, to, amount)
}

func (b *KVBank) TransferFrom(spender, from, to types.Address, amount uint64) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if amount == 0 {
		return ErrZeroAmount
	}
	allowance := b.getUint(allowanceKey(from, spender))
	if allowance < amount {
		return ErrInsufficientAllowance
	}
	if err := b.move(from, to, amount); err != nil {
		return err
	}
	return b.kvDB.Set(allowanceKey(from, spender), uint2byte(allowance-amount))
}

func (b *KVBank) Mint(to types.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.kvDB.Set(balanceKey(to), uint2byte(b.getUint(balanceKey(to))+amount))
}

func (b *KVBank) Burn(from types.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	b.mtx.Lock()
	defer b.mtx.Unlock()

	bal := b.getUint(balanceKey(from))
	if bal < amount {
		return ErrInsufficientFunds
	}
	return b.kvDB.Set(balanceKey(from), uint2byte(bal-amount))
}

func (b *KVBank) Close() error {
	return b.kvDB.Close()
}

// move debits and credits atomically via a batch; callers hold b.mtx.
func (b *KVBank) move(from, to types.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	fromBal := b.getUint(balanceKey(from))
	if fromBal < amount {
		return ErrInsufficientFunds
	}
	toBal := b.getUint(balanceKey(to))

	batch := b.kvDB.NewBatch()
	defer batch.Close()

	if err := batch.Set(balanceKey(from), uint2byte(fromBal-amount)); err != nil {
		return err
	}
	if err := batch.Set(balanceKey(to), uint2byte(toBal+amount)); err != nil {
		return err
	}
	return batch.Write()
}

func (b *KVBank) getUint(key []byte) uint64 {
	raw, err := b.kvDB.Get(key)
	if err != nil {
		b.logger.Error("ledger read failed", "key", string(key), "err", err)
		return 0
	}
	return byte2uint(raw)
}

func balanceKey(addr types.Address) []byte {
	return genKey(tableBalance, []byte(addr))
}

func allowanceKey(owner, spender types.Address) []byte {
	return genKey(tableAllowance, append([]byte(owner), []byte(spender)...))
}

func genKey(table string, primaryKey []byte) []byte {
	buffer := new(bytes.Buffer)
	buffer.WriteString(table)
	buffer.WriteString("_")
	buffer.Write(primaryKey)
	return buffer.Bytes()
}

func byte2uint(src []byte) uint64 {
	if len(src) == 0 {
		return 0
	}
	v, _ := strconv.ParseUint(string(src), 10, 64)
	return v
}

func uint2byte(src uint64) []byte {
	return []byte(strconv.FormatUint(src, 10))
}
