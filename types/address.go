package types

import (
	"bytes"

	"github.com/tendermint/tendermint/crypto"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
)

// Address is the principal identity used across all components.
// It is derived from a validator's public key.
type Address crypto.Address

func GetAddress(key crypto.PubKey) Address {
	return Address(key.Address())
}

func (addr Address) Equal(other Address) bool {
	if addr == nil || other == nil {
		return false
	}
	return bytes.Equal(crypto.Address(addr), crypto.Address(other))
}

func (addr Address) String() string {
	return crypto.Address(addr).String()
}

// Key returns the map-key form of the address.
func (addr Address) Key() string {
	return string(addr)
}

func (addr Address) IsZero() bool {
	return len(addr) == 0
}

// MarshalJSON encodes the address as an uppercase hex string, matching
// tendermint's HexBytes. Address is a defined type, so the HexBytes methods
// do not carry over automatically.
func (addr Address) MarshalJSON() ([]byte, error) {
	return tmbytes.HexBytes(addr).MarshalJSON()
}

func (addr *Address) UnmarshalJSON(data []byte) error {
	return (*tmbytes.HexBytes)(addr).UnmarshalJSON(data)
}
