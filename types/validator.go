package types

import (
	"errors"
	"fmt"

	"github.com/tendermint/tendermint/crypto"
	tmjson "github.com/tendermint/tendermint/libs/json"
)

// ValidatorStatus is the lifecycle state of a validator record.
type ValidatorStatus uint8

const (
	StatusInactive  = ValidatorStatus(0)
	StatusActive    = ValidatorStatus(1)
	StatusUnstaking = ValidatorStatus(2)
	StatusSlashed   = ValidatorStatus(3)
)

func (s ValidatorStatus) String() string {
	switch s {
	case StatusInactive:
		return "Inactive"
	case StatusActive:
		return "Active"
	case StatusUnstaking:
		return "Unstaking"
	case StatusSlashed:
		return "Slashed"
	default:
		return "UnknownStatus"
	}
}

// Validator is the stake-bookkeeping record for one principal.
// Records are created on first registration and never deleted, only
// transitioned to Inactive/Slashed with a zero or reduced balance.
//
// Invariant: Status == StatusActive implies StakedAmount >= MinimumStake and
// membership in the active set.
type Validator struct {
	Address Address       `json:"address"`
	PubKey  crypto.PubKey `json:"pub_key"`

	StakedAmount uint64          `json:"staked_amount"`
	Status       ValidatorStatus `json:"status"`

	// UnstakeHeight is the height of the pending unstake request, 0 if none.
	UnstakeHeight int64 `json:"unstake_height"`
	// UnstakeAmount is the amount the pending request will release.
	UnstakeAmount uint64 `json:"unstake_amount"`

	// ActivationHeight is the height of first registration.
	ActivationHeight int64 `json:"activation_height"`

	// RegistrationSeq orders validators by arrival; it breaks stake ties in
	// the active-set ordering (earlier registration wins).
	RegistrationSeq uint64 `json:"registration_seq"`

	// TotalSlashed accumulates collateral removed by slashing.
	TotalSlashed uint64 `json:"total_slashed"`
}

// NewValidator returns a fresh Active-eligible record.
func NewValidator(pubKey crypto.PubKey, stake uint64, height int64, seq uint64) *Validator {
	return &Validator{
		Address:          GetAddress(pubKey),
		PubKey:           pubKey,
		StakedAmount:     stake,
		Status:           StatusInactive,
		ActivationHeight: height,
		RegistrationSeq:  seq,
	}
}

// ValidateBasic performs basic validation.
func (v *Validator) ValidateBasic() error {
	if v == nil {
		return errors.New("nil validator")
	}
	if v.PubKey == nil {
		return errors.New("validator does not have a public key")
	}
	if len(v.Address) != crypto.AddressSize {
		return fmt.Errorf("validator address is the wrong size: %v", v.Address)
	}
	if !v.Address.Equal(GetAddress(v.PubKey)) {
		return errors.New("validator address does not match public key")
	}
	return nil
}

// Copy returns a copy of the validator so callers can mutate it freely.
// Panics if the validator is nil.
func (v *Validator) Copy() *Validator {
	vCopy := *v
	return &vCopy
}

func (v *Validator) String() string {
	if v == nil {
		return "nil-Validator"
	}
	return fmt.Sprintf("Validator{%v stake:%d %v}",
		v.Address,
		v.StakedAmount,
		v.Status)
}

// Bytes computes the unique encoding of a validator used as a merkle leaf in
// the active-set hash. The encoding covers pubkey and staked amount; address
// is redundant with the pubkey.
func (v *Validator) Bytes() []byte {
	bz, err := tmjson.Marshal(struct {
		PubKey crypto.PubKey `json:"pub_key"`
		Stake  uint64        `json:"stake"`
	}{v.PubKey, v.StakedAmount})
	if err != nil {
		panic(err)
	}
	return bz
}
