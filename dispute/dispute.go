package dispute

import (
	"fmt"
	"time"

	"optibft/types"
)

// DisputeState is the lifecycle state of a dispute.
type DisputeState uint8

const (
	DisputeActive    = DisputeState(0)
	DisputeResolved  = DisputeState(1)
	DisputeCancelled = DisputeState(2)
)

func (s DisputeState) String() string {
	switch s {
	case DisputeActive:
		return "Active"
	case DisputeResolved:
		return "Resolved"
	case DisputeCancelled:
		return "Cancelled"
	default:
		return "UnknownState"
	}
}

// Dispute is a staked challenge against an optimistically approved
// proposal. The resolver holds the challenge stake in custody for the
// lifetime of the dispute and moves it out exactly once, at resolution or
// cancellation.
type Dispute struct {
	ID         uint64 `json:"id"`
	ProposalID uint64 `json:"proposal_id"`

	// Challenger posted the stake; Proposer is captured from the proposal
	// snapshot at creation and judged by the outcome.
	Challenger types.Address `json:"challenger"`
	Proposer   types.Address `json:"proposer"`

	Stake uint64 `json:"stake"`

	VotingEndTime time.Time `json:"voting_end_time"`

	State         DisputeState `json:"state"`
	ChallengerWon bool         `json:"challenger_won"`
	Tally         types.Tally  `json:"tally"`

	votes map[string]bool // voter key -> supportChallenge
}

func newDispute(id, proposalID uint64, challenger, proposer types.Address, stake uint64, votingEnd time.Time) *Dispute {
	return &Dispute{
		ID:            id,
		ProposalID:    proposalID,
		Challenger:    challenger,
		Proposer:      proposer,
		Stake:         stake,
		VotingEndTime: votingEnd,
		State:         DisputeActive,
		votes:         make(map[string]bool),
	}
}

func (d *Dispute) hasVoted(voter types.Address) bool {
	_, ok := d.votes[voter.Key()]
	return ok
}

func (d *Dispute) addVote(voter types.Address, supportChallenge bool) {
	d.votes[voter.Key()] = supportChallenge
	if supportChallenge {
		d.Tally.For++
	} else {
		d.Tally.Against++
	}
}

// Copy returns a snapshot without the internal vote map.
func (d *Dispute) Copy() *Dispute {
	dCopy := *d
	dCopy.votes = nil
	return &dCopy
}

func (d *Dispute) String() string {
	return fmt.Sprintf("Dispute{#%d proposal:%d stake:%d %v %v}",
		d.ID, d.ProposalID, d.Stake, d.State, d.Tally)
}
