package types

import (
	tmjson "github.com/tendermint/tendermint/libs/json"
)

// Protocol tags separate the two voting domains. A consensus-vote signature
// can never be replayed as a dispute vote, and vice versa.
const (
	ConsensusVoteTag = "optibft/consensus-vote"
	DisputeVoteTag   = "optibft/dispute-vote"
)

// canonicalVote is the wire format of the signed portion of a vote. Fields
// are serialized in declaration order by tmjson, so this struct IS the
// byte-order contract:
//
//	tag, chain_id, contract_id, ballot_id, voter, support
//
// ChainID separates networks, ContractID separates deployments of the same
// engine/resolver on one network, BallotID separates rounds or disputes.
// Changing field order or names breaks every deployed signer; treat this
// like a wire format and keep the conformance test in canonical_test.go
// current.
type canonicalVote struct {
	Tag        string  `json:"tag"`
	ChainID    string  `json:"chain_id"`
	ContractID string  `json:"contract_id"`
	BallotID   uint64  `json:"ballot_id"`
	Voter      Address `json:"voter"`
	Support    bool    `json:"support"`
}

// ConsensusVoteSignBytes returns the bytes a validator signs to vote on a
// consensus round. Panics on marshal failure, which would mean a programming
// error in the canonical struct.
func ConsensusVoteSignBytes(chainID, engineID string, vote *ConsensusVote) []byte {
	bz, err := tmjson.Marshal(canonicalVote{
		Tag:        ConsensusVoteTag,
		ChainID:    chainID,
		ContractID: engineID,
		BallotID:   vote.RoundID,
		Voter:      vote.Voter,
		Support:    vote.Support,
	})
	if err != nil {
		panic(err)
	}
	return bz
}

// DisputeVoteSignBytes returns the bytes a validator signs to vote on a
// dispute.
func DisputeVoteSignBytes(chainID, resolverID string, vote *DisputeVote) []byte {
	bz, err := tmjson.Marshal(canonicalVote{
		Tag:        DisputeVoteTag,
		ChainID:    chainID,
		ContractID: resolverID,
		BallotID:   vote.DisputeID,
		Voter:      vote.Voter,
		Support:    vote.SupportChallenge,
	})
	if err != nil {
		panic(err)
	}
	return bz
}
