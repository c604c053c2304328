package consensus

import "errors"

var (
	// ErrUnauthorized is returned when the caller does not hold the
	// initiator authority.
	ErrUnauthorized = errors.New("caller does not hold required authority")

	// ErrUnknownProposal is returned when the proposal reader has no entry
	// for the id.
	ErrUnknownProposal = errors.New("unknown proposal")

	// ErrProposalAlreadyInConsensus is returned when an unfinalized round
	// already exists for the proposal.
	ErrProposalAlreadyInConsensus = errors.New("proposal already has an open round")

	// ErrUnknownRound is returned when no round exists for the id.
	ErrUnknownRound = errors.New("unknown round")

	// ErrVotingPeriodEnded is returned when a vote arrives after the
	// round's end height.
	ErrVotingPeriodEnded = errors.New("voting period has ended")

	// ErrVotingPeriodActive is returned when finalization is attempted
	// while votes may still arrive.
	ErrVotingPeriodActive = errors.New("voting period still active")

	// ErrRoundAlreadyFinalized is returned on repeated finalization.
	ErrRoundAlreadyFinalized = errors.New("round already finalized")

	// ErrNotActiveValidator is returned when the voter is not currently in
	// the active set.
	ErrNotActiveValidator = errors.New("voter is not an active validator")

	// ErrAlreadyVoted is returned when the voter has already voted in the
	// round.
	ErrAlreadyVoted = errors.New("validator already voted in this round")

	// ErrInvalidSignature is returned when the vote signature does not
	// verify against the voter's registered key.
	ErrInvalidSignature = errors.New("invalid vote signature")
)
