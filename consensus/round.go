package consensus

import (
	"fmt"

	"optibft/types"
)

// Round is one bounded voting process over a challenged proposal.
//
// EligibleAtFinalize is the active-set size captured at finalization time;
// the quorum denominator is always this number, never the count of votes
// cast and never the set size at initiation.
type Round struct {
	ID         uint64 `json:"id"`
	ProposalID uint64 `json:"proposal_id"`

	StartHeight int64 `json:"start_height"`
	EndHeight   int64 `json:"end_height"`

	Finalized bool `json:"finalized"`
	Approved  bool `json:"approved"`

	Tally              types.Tally `json:"tally"`
	EligibleAtFinalize int         `json:"eligible_at_finalize"`

	votes *roundVoteSet
}

func newRound(id, proposalID uint64, start, votingPeriod int64) *Round {
	return &Round{
		ID:          id,
		ProposalID:  proposalID,
		StartHeight: start,
		EndHeight:   start + votingPeriod,
		votes:       newRoundVoteSet(),
	}
}

// Copy returns a snapshot without the internal vote set.
func (r *Round) Copy() *Round {
	rCopy := *r
	rCopy.votes = nil
	return &rCopy
}

func (r *Round) String() string {
	return fmt.Sprintf("Round{#%d proposal:%d [%d,%d] finalized:%v approved:%v %v}",
		r.ID, r.ProposalID, r.StartHeight, r.EndHeight, r.Finalized, r.Approved, r.Tally)
}

//----------------------------------------
// roundVoteSet

// roundVoteSet retains one has-voted/decision pair per voter. Signatures
// are verified on the way in and not stored.
type roundVoteSet struct {
	decisions map[string]bool // voter key -> support
}

func newRoundVoteSet() *roundVoteSet {
	return &roundVoteSet{decisions: make(map[string]bool)}
}

func (vs *roundVoteSet) AddVote(voter types.Address, support bool) error {
	key := voter.Key()
	if _, ok := vs.decisions[key]; ok {
		return ErrAlreadyVoted
	}
	vs.decisions[key] = support
	return nil
}

func (vs *roundVoteSet) HasVoted(voter types.Address) bool {
	_, ok := vs.decisions[voter.Key()]
	return ok
}

func (vs *roundVoteSet) Tally() types.Tally {
	var tally types.Tally
	for _, support := range vs.decisions {
		if support {
			tally.For++
		} else {
			tally.Against++
		}
	}
	return tally
}
