package rpc

import (
	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"

	"optibft/types"
)

type ResultProposals struct {
	Count     int               `json:"count"`
	Proposals []*types.Proposal `json:"proposals"`
}

func Proposal(ctx *rpctypes.Context, id uint64) (*types.Proposal, error) {
	return env.Proposals.Proposal(id)
}

func Proposals(ctx *rpctypes.Context) (*ResultProposals, error) {
	proposals := env.Proposals.Proposals(nil)
	return &ResultProposals{Count: len(proposals), Proposals: proposals}, nil
}
