package rpc

import (
	"encoding/hex"

	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"

	"optibft/types"
)

type ResultValidators struct {
	Count      int                `json:"count"`
	Validators []*types.Validator `json:"validators"`
}

type ResultActiveSet struct {
	Size       int                `json:"size"`
	Hash       tmbytes.HexBytes   `json:"hash"`
	Validators []*types.Validator `json:"validators"`
}

// Validators returns every stake record, registration order.
func Validators(ctx *rpctypes.Context) (*ResultValidators, error) {
	vals := env.Validators.Validators()
	return &ResultValidators{Count: len(vals), Validators: vals}, nil
}

// Validator returns the stake record for one hex-encoded address.
func Validator(ctx *rpctypes.Context, address string) (*types.Validator, error) {
	raw, err := hex.DecodeString(address)
	if err != nil {
		return nil, err
	}
	return env.Validators.Validator(types.Address(raw))
}

// ActiveSet returns the current top-K ordering with its merkle hash.
func ActiveSet(ctx *rpctypes.Context) (*ResultActiveSet, error) {
	set := env.Validators.ActiveSet()
	return &ResultActiveSet{
		Size:       set.Size(),
		Hash:       set.Hash(),
		Validators: set.Validators,
	}, nil
}
