package types

import (
	"time"

	tmbytes "github.com/tendermint/tendermint/libs/bytes"
)

// ConsensusVote - a single vote on a consensus round. A validator may cast
// at most one vote per round; the signature covers the canonical sign-bytes
// (see canonical.go) and is verified against the pubkey registered for
// Voter. Raw signatures are not durable state: once verified, only the
// (round, voter, support) triple is retained in the round's vote set.
type ConsensusVote struct {
	RoundID   uint64           `json:"round_id"`
	Voter     Address          `json:"voter"`
	Support   bool             `json:"support"`
	Timestamp time.Time        `json:"timestamp"`
	Signature tmbytes.HexBytes `json:"signature"`
}

// DisputeVote - a single vote on a dispute. SupportChallenge sides with the
// challenger. Same signing discipline as ConsensusVote, under the dispute
// protocol tag.
type DisputeVote struct {
	DisputeID        uint64           `json:"dispute_id"`
	Voter            Address          `json:"voter"`
	SupportChallenge bool             `json:"support_challenge"`
	Timestamp        time.Time        `json:"timestamp"`
	Signature        tmbytes.HexBytes `json:"signature"`
}

// Copy returns a deep copy of the vote.
func (v *ConsensusVote) Copy() *ConsensusVote {
	vCopy := *v
	vCopy.Signature = make(tmbytes.HexBytes, len(v.Signature))
	copy(vCopy.Signature, v.Signature)
	return &vCopy
}

// Copy returns a deep copy of the vote.
func (v *DisputeVote) Copy() *DisputeVote {
	vCopy := *v
	vCopy.Signature = make(tmbytes.HexBytes, len(v.Signature))
	copy(vCopy.Signature, v.Signature)
	return &vCopy
}

// Tally is a running count of votes for and against.
type Tally struct {
	For     uint32 `json:"for"`
	Against uint32 `json:"against"`
}

// Cast returns the total number of votes cast.
func (t Tally) Cast() uint32 {
	return t.For + t.Against
}
