package rpc

import (
	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"

	"optibft/consensus"
	"optibft/dispute"
)

func Round(ctx *rpctypes.Context, id uint64) (*consensus.Round, error) {
	return env.Consensus.Round(id)
}

func Dispute(ctx *rpctypes.Context, id uint64) (*dispute.Dispute, error) {
	return env.Disputes.Dispute(id)
}
