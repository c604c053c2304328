package ledger

import (
	"sync"

	"optibft/types"
)

// MemBank is an in-memory Bank for tests and single-process deployments.
type MemBank struct {
	mtx        sync.Mutex
	balances   map[string]uint64
	allowances map[string]map[string]uint64 // owner -> spender -> amount
}

func NewMemBank() *MemBank {
	return &MemBank{
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
}

func (b *MemBank) BalanceOf(addr types.Address) uint64 {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.balances[addr.Key()]
}

func (b *MemBank) Approve(owner, spender types.Address, amount uint64) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	grants, ok := b.allowances[owner.Key()]
	if !ok {
		grants = make(map[string]uint64)
		b.allowances[owner.Key()] = grants
	}
	grants[spender.Key()] = amount
	return nil
}

func (b *MemBank) Allowance(owner, spender types.Address) uint64 {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.allowances[owner.Key()][spender.Key()]
}

func (b *MemBank) Transfer(from, to types.Address, amount uint64) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.move(from, to, amount)
}

func (b *MemBank) TransferFrom(spender, from, to types.Address, amount uint64) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if amount == 0 {
		return ErrZeroAmount
	}
	allowance := b.allowances[from.Key()][spender.Key()]
	if allowance < amount {
		return ErrInsufficientAllowance
	}
	if err := b.move(from, to, amount); err != nil {
		return err
	}
	b.allowances[from.Key()][spender.Key()] = allowance - amount
	return nil
}

func (b *MemBank) Mint(to types.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.balances[to.Key()] += amount
	return nil
}

func (b *MemBank) Burn(from types.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.balances[from.Key()] < amount {
		return ErrInsufficientFunds
	}
	b.balances[from.Key()] -= amount
	return nil
}

// move transfers without locking; callers hold b.mtx.
func (b *MemBank) move(from, to types.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if b.balances[from.Key()] < amount {
		return ErrInsufficientFunds
	}
	b.balances[from.Key()] -= amount
	b.balances[to.Key()] += amount
	return nil
}
