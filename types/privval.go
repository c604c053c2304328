package types

import (
	"bytes"
	"fmt"

	"github.com/tendermint/tendermint/crypto"
	"github.com/tendermint/tendermint/crypto/ed25519"
)

// PrivValidator signs votes on behalf of one validator principal.
type PrivValidator interface {
	GetAddress() Address
	GetPubKey() (crypto.PubKey, error)

	SignConsensusVote(chainID, engineID string, vote *ConsensusVote) error
	SignDisputeVote(chainID, resolverID string, vote *DisputeVote) error
}

//----------------------------------------
// MockPV

// MockPV implements PrivValidator with an in-memory ed25519 key.
// EXPOSED FOR TESTING.
type MockPV struct {
	PrivKey crypto.PrivKey
}

func NewMockPV() MockPV {
	return MockPV{ed25519.GenPrivKey()}
}

func (pv MockPV) GetAddress() Address {
	return GetAddress(pv.PrivKey.PubKey())
}

func (pv MockPV) GetPubKey() (crypto.PubKey, error) {
	return pv.PrivKey.PubKey(), nil
}

func (pv MockPV) SignConsensusVote(chainID, engineID string, vote *ConsensusVote) error {
	sig, err := pv.PrivKey.Sign(ConsensusVoteSignBytes(chainID, engineID, vote))
	if err != nil {
		return err
	}
	vote.Signature = sig
	return nil
}

func (pv MockPV) SignDisputeVote(chainID, resolverID string, vote *DisputeVote) error {
	sig, err := pv.PrivKey.Sign(DisputeVoteSignBytes(chainID, resolverID, vote))
	if err != nil {
		return err
	}
	vote.Signature = sig
	return nil
}

func (pv MockPV) String() string {
	return fmt.Sprintf("MockPV{%v}", pv.GetAddress())
}

//----------------------------------------
// RandValidator

// RandValidator returns a randomized Active-eligible validator record with
// the given stake, useful for testing.
// UNSTABLE
func RandValidator(stake uint64) (*Validator, PrivValidator) {
	privVal := NewMockPV()

	pubKey, err := privVal.GetPubKey()
	if err != nil {
		panic(fmt.Errorf("could not retrieve pubkey %w", err))
	}
	val := NewValidator(pubKey, stake, 0, 0)
	return val, privVal
}

// PrivValidatorsByAddress sorts PrivValidators, for deterministic test
// fixtures.
type PrivValidatorsByAddress []PrivValidator

func (pvs PrivValidatorsByAddress) Len() int { return len(pvs) }

func (pvs PrivValidatorsByAddress) Less(i, j int) bool {
	return bytes.Compare(pvs[i].GetAddress(), pvs[j].GetAddress()) < 0
}

func (pvs PrivValidatorsByAddress) Swap(i, j int) {
	pvs[i], pvs[j] = pvs[j], pvs[i]
}
