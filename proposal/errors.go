package proposal

import "errors"

var (
	// ErrUnknownProposal is returned when no proposal exists for the id.
	ErrUnknownProposal = errors.New("unknown proposal")

	// ErrInvalidContent is returned when the content fingerprint fails the
	// validity oracle.
	ErrInvalidContent = errors.New("content fingerprint rejected by oracle")

	// ErrEmptyMetadata is returned when a proposal carries no metadata.
	ErrEmptyMetadata = errors.New("proposal metadata is empty")

	// ErrProposerNotEligible is returned when the proposer is not an active
	// validator.
	ErrProposerNotEligible = errors.New("proposer is not an active validator")

	// ErrUnauthorized is returned when the caller does not hold the
	// required capability token.
	ErrUnauthorized = errors.New("caller does not hold required authority")

	// ErrProposalNotApprovable is returned when the proposal is not in the
	// Proposed state.
	ErrProposalNotApprovable = errors.New("proposal not in approvable state")

	// ErrInsufficientApprovals is returned when optimistic approval requires
	// more recorded validator approvals than the proposal has.
	ErrInsufficientApprovals = errors.New("not enough validator approvals recorded")

	// ErrProposalNotChallengeable is returned when the proposal is not in
	// the OptimisticApproved state.
	ErrProposalNotChallengeable = errors.New("proposal not in challengeable state")

	// ErrChallengeWindowExpired is returned when a challenge arrives after
	// the window closed.
	ErrChallengeWindowExpired = errors.New("challenge window has expired")

	// ErrChallengeWindowActive is returned when finalization is attempted
	// while the window is still open.
	ErrChallengeWindowActive = errors.New("challenge window still active")

	// ErrProposalNotChallenged is returned when a resolution is applied to a
	// proposal that is not Challenged.
	ErrProposalNotChallenged = errors.New("proposal is not challenged")

	// ErrValidatorNotEligible is returned when the acting validator is not
	// in the active set.
	ErrValidatorNotEligible = errors.New("validator is not in the active set")

	// ErrValidatorAlreadyApproved is returned on a repeated validator
	// approval.
	ErrValidatorAlreadyApproved = errors.New("validator already approved this proposal")
)
