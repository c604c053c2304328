package types

// Event names fired on the node's event switch. External indexers subscribe
// to these; core logic never depends on them.
const (
	EventValidatorRegistered = "ValidatorRegistered"
	EventStakeIncreased      = "StakeIncreased"
	EventUnstakeRequested    = "UnstakeRequested"
	EventUnstakeCompleted    = "UnstakeCompleted"
	EventValidatorSlashed    = "ValidatorSlashed"
	EventActiveSetChanged    = "ActiveSetChanged"

	EventProposalCreated   = "ProposalCreated"
	EventProposalApproved  = "ProposalApproved"
	EventProposalChallenge = "ProposalChallenged"
	EventProposalFinalized = "ProposalFinalized"
	EventProposalRejected  = "ProposalRejected"

	EventRoundStarted   = "RoundStarted"
	EventRoundVoteCast  = "RoundVoteCast"
	EventRoundFinalized = "RoundFinalized"

	EventDisputeCreated   = "DisputeCreated"
	EventDisputeVoteCast  = "DisputeVoteCast"
	EventDisputeResolved  = "DisputeResolved"
	EventDisputeCancelled = "DisputeCancelled"
)
