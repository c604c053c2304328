package types

import "fmt"

// Authority is an unforgeable capability handle. Components receive the
// authorities they honor at construction and compare by pointer identity,
// so holding a token with the same name is not enough: callers must hold
// the token instance the component was built with.
//
// Roles in this system: approver (optimistic approve/reject), initiator
// (open consensus rounds), slasher (normally bound to the Dispute Resolver),
// admin (active-set limit, dispute cancellation).
type Authority struct {
	name string
}

func NewAuthority(name string) *Authority {
	return &Authority{name: name}
}

func (a *Authority) Name() string {
	if a == nil {
		return "nil-Authority"
	}
	return a.name
}

func (a *Authority) String() string {
	return fmt.Sprintf("Authority{%s}", a.Name())
}
