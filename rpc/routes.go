package rpc

import rpc "github.com/tendermint/tendermint/rpc/jsonrpc/server"

var Routes = map[string]*rpc.RPCFunc{
	"validators": rpc.NewRPCFunc(Validators, ""),
	"validator":  rpc.NewRPCFunc(Validator, "address"),
	"active_set": rpc.NewRPCFunc(ActiveSet, ""),

	"proposal":  rpc.NewRPCFunc(Proposal, "id"),
	"proposals": rpc.NewRPCFunc(Proposals, ""),

	"round":   rpc.NewRPCFunc(Round, "id"),
	"dispute": rpc.NewRPCFunc(Dispute, "id"),

	"metrics": rpc.NewRPCFunc(JSONMetrics, "label"),
}
