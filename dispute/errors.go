package dispute

import "errors"

var (
	// ErrZeroChallengeStake is returned when a dispute is opened with no
	// stake at all.
	ErrZeroChallengeStake = errors.New("challenge stake is zero")

	// ErrInsufficientChallengeStake is returned when the posted stake is
	// below the minimum.
	ErrInsufficientChallengeStake = errors.New("challenge stake below minimum")

	// ErrProposalNotDisputable is returned when the proposal is not in a
	// disputable state.
	ErrProposalNotDisputable = errors.New("proposal not in disputable state")

	// ErrUnknownDispute is returned when no dispute exists for the id.
	ErrUnknownDispute = errors.New("unknown dispute")

	// ErrDisputeNotActive is returned when the dispute was already resolved
	// or cancelled.
	ErrDisputeNotActive = errors.New("dispute is not active")

	// ErrDisputeVotingEnded is returned when a vote arrives after the
	// voting window closed.
	ErrDisputeVotingEnded = errors.New("dispute voting has ended")

	// ErrDisputeVotingActive is returned when resolution is attempted while
	// votes may still arrive.
	ErrDisputeVotingActive = errors.New("dispute voting still active")

	// ErrNotActiveValidator is returned when the voter is not currently in
	// the active set.
	ErrNotActiveValidator = errors.New("voter is not an active validator")

	// ErrAlreadyVoted is returned when the voter has already voted on the
	// dispute.
	ErrAlreadyVoted = errors.New("validator already voted on this dispute")

	// ErrInvalidSignature is returned when the vote signature does not
	// verify against the voter's registered key.
	ErrInvalidSignature = errors.New("invalid vote signature")

	// ErrUnauthorized is returned when the caller does not hold the
	// required capability token.
	ErrUnauthorized = errors.New("caller does not hold required authority")

	// ErrReentrantCall is returned when a state-mutating operation is
	// entered while a collateral transfer is outstanding.
	ErrReentrantCall = errors.New("reentrant call during collateral transfer")
)
