package ledger

import (
	"errors"

	"optibft/types"
)

var (
	ErrZeroAmount            = errors.New("amount must be positive")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Bank is the fungible collateral ledger, an external collaborator of the
// core. Mint and Burn exist so the harness (and init-db) can fund
// principals; the core only ever moves existing collateral.
type Bank interface {
	BalanceOf(addr types.Address) uint64

	// Approve grants spender the right to pull up to amount from owner.
	Approve(owner, spender types.Address, amount uint64) error
	Allowance(owner, spender types.Address) uint64

	// Transfer moves funds the caller owns.
	Transfer(from, to types.Address, amount uint64) error

	// TransferFrom moves funds under an allowance: it first checks the
	// allowance covers amount (minimum), then deducts the full amount from
	// it (maximum) - the minimum-then-maximum check.
	TransferFrom(spender, from, to types.Address, amount uint64) error

	Mint(to types.Address, amount uint64) error
	Burn(from types.Address, amount uint64) error
}

// CollateralLedger is the narrow custody view a component consumes. All
// funds pulled in are held by the component's custody account; the
// component must finish its own bookkeeping before calling any of these.
type CollateralLedger interface {
	// TransferIn pulls amount from the principal into custody, gated by the
	// principal's allowance for the custody account.
	TransferIn(from types.Address, amount uint64) error

	// TransferOut releases amount from custody to the principal.
	TransferOut(to types.Address, amount uint64) error

	// Burn destroys amount held in custody.
	Burn(amount uint64) error

	BalanceOf(addr types.Address) uint64
}

//----------------------------------------
// custody view

// NewCustody binds a Bank to a custody account, yielding the narrow view
// handed to a component. Several custodies may share one Bank.
func NewCustody(bank Bank, account types.Address) CollateralLedger {
	return &custody{bank: bank, account: account}
}

type custody struct {
	bank    Bank
	account types.Address
}

func (c *custody) TransferIn(from types.Address, amount uint64) error {
	return c.bank.TransferFrom(c.account, from, c.account, amount)
}

func (c *custody) TransferOut(to types.Address, amount uint64) error {
	return c.bank.Transfer(c.account, to, amount)
}

func (c *custody) Burn(amount uint64) error {
	return c.bank.Burn(c.account, amount)
}

func (c *custody) BalanceOf(addr types.Address) uint64 {
	return c.bank.BalanceOf(addr)
}
