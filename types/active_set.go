package types

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tendermint/tendermint/crypto/merkle"
)

// ActiveSet is an ordered snapshot of the validators currently eligible to
// vote and propose. The order is descending stake; equal stakes are ordered
// by registration sequence (earlier registration first). The snapshot is
// immutable from the caller's point of view: all getters return copies.
//
// NOTE: Not goroutine-safe. ValidatorSet hands out a fresh copy per call.
type ActiveSet struct {
	Validators []*Validator `json:"validators"`
}

// NewActiveSet initializes an ActiveSet by copying over the values from
// vals. If vals is nil or empty, the set is empty. Ordering is the caller's
// responsibility; ValidatorSet recomputation produces it.
func NewActiveSet(vals []*Validator) *ActiveSet {
	set := &ActiveSet{}
	set.Validators = make([]*Validator, 0, len(vals))
	for _, val := range vals {
		set.Validators = append(set.Validators, val.Copy())
	}
	return set
}

func (set *ActiveSet) IsNilOrEmpty() bool {
	return set == nil || len(set.Validators) == 0
}

// HasAddress returns true if address given is in the set, false otherwise.
func (set *ActiveSet) HasAddress(address Address) bool {
	for _, val := range set.Validators {
		if bytes.Equal(val.Address, address) {
			return true
		}
	}
	return false
}

// GetByAddress returns an index of the validator with address and the
// validator itself (copy) if found. Otherwise, -1 and nil are returned.
func (set *ActiveSet) GetByAddress(address Address) (index int32, val *Validator) {
	for idx, val := range set.Validators {
		if bytes.Equal(val.Address, address) {
			return int32(idx), val.Copy()
		}
	}
	return -1, nil
}

// GetByIndex returns the validator (copy) by ordering index.
// It returns nil if index is out of range.
func (set *ActiveSet) GetByIndex(index int32) *Validator {
	if index < 0 || int(index) >= len(set.Validators) {
		return nil
	}
	return set.Validators[index].Copy()
}

// Size returns the number of eligible validators in the set.
func (set *ActiveSet) Size() int {
	return len(set.Validators)
}

// Copy each validator into a new ActiveSet.
func (set *ActiveSet) Copy() *ActiveSet {
	return NewActiveSet(set.Validators)
}

// Hash returns the merkle root built from the validators (as leaves) in
// their stake order. Two snapshots with the same membership, order and
// stakes hash identically; outcome replay tests key off this.
func (set *ActiveSet) Hash() []byte {
	bzs := make([][]byte, len(set.Validators))
	for i, val := range set.Validators {
		bzs[i] = val.Bytes()
	}
	return merkle.HashFromByteSlices(bzs)
}

// Iterate runs the given function over the set, stopping early if fn
// returns true.
func (set *ActiveSet) Iterate(fn func(index int, val *Validator) bool) {
	for i, val := range set.Validators {
		stop := fn(i, val.Copy())
		if stop {
			break
		}
	}
}

// String returns a string representation of ActiveSet.
//
// See StringIndented.
func (set *ActiveSet) String() string {
	return set.StringIndented("")
}

// StringIndented returns an indented String.
func (set *ActiveSet) StringIndented(indent string) string {
	if set == nil {
		return "nil-ActiveSet"
	}
	var valStrings []string
	set.Iterate(func(index int, val *Validator) bool {
		valStrings = append(valStrings, val.String())
		return false
	})
	return fmt.Sprintf(`ActiveSet{
%s  Validators:
%s    %v
%s}`,
		indent,
		indent, strings.Join(valStrings, "\n"+indent+"    "),
		indent)
}
