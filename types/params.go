package types

import (
	"errors"
	"fmt"
	"time"
)

// Params holds the protocol constants. They are fixed at construction;
// only the active-validator limit may be adjusted afterwards, by an
// administrator, through ValidatorSet.SetActiveValidatorLimit.
type Params struct {
	// MinimumStake is the least collateral a validator must bond to register
	// and to stay eligible for the active set.
	MinimumStake uint64 `json:"minimum_stake" mapstructure:"minimum_stake"`

	// MaxValidators bounds ActiveValidatorLimit.
	MaxValidators int `json:"max_validators" mapstructure:"max_validators"`

	// ActiveValidatorLimit is the size bound of the active set.
	ActiveValidatorLimit int `json:"active_validator_limit" mapstructure:"active_validator_limit"`

	// BondingPeriod is the number of heights between an unstake request and
	// the release of funds.
	BondingPeriod int64 `json:"bonding_period" mapstructure:"bonding_period"`

	// ChallengeWindow is the number of heights after optimistic approval
	// during which a proposal may be challenged.
	ChallengeWindow int64 `json:"challenge_window" mapstructure:"challenge_window"`

	// VotingPeriod is the duration, in heights, of a consensus round.
	VotingPeriod int64 `json:"voting_period" mapstructure:"voting_period"`

	// QuorumPercent is the percentage of the active set whose support votes
	// are required to approve a round.
	QuorumPercent uint64 `json:"quorum_percent" mapstructure:"quorum_percent"`

	// DisputeVotingPeriod is the wall-clock duration of a dispute's voting
	// window.
	DisputeVotingPeriod time.Duration `json:"dispute_voting_period" mapstructure:"dispute_voting_period"`

	// MinimumChallengeStake is the least collateral a challenger must post
	// to open a dispute.
	MinimumChallengeStake uint64 `json:"minimum_challenge_stake" mapstructure:"minimum_challenge_stake"`

	// SlashPercent is the share of the challenge stake slashed from the
	// losing side of a dispute.
	SlashPercent uint64 `json:"slash_percent" mapstructure:"slash_percent"`

	// RequiredApprovals, when non-zero, is the number of recorded validator
	// approvals a proposal needs before it can be optimistically approved.
	RequiredApprovals uint32 `json:"required_approvals" mapstructure:"required_approvals"`
}

func DefaultParams() Params {
	return Params{
		MinimumStake:          1000,
		MaxValidators:         100,
		ActiveValidatorLimit:  21,
		BondingPeriod:         100,
		ChallengeWindow:       20,
		VotingPeriod:          10,
		QuorumPercent:         60,
		DisputeVotingPeriod:   10 * time.Minute,
		MinimumChallengeStake: 100,
		SlashPercent:          10,
		RequiredApprovals:     0,
	}
}

func (p Params) ValidateBasic() error {
	if p.MinimumStake == 0 {
		return errors.New("minimum stake must be positive")
	}
	if p.MaxValidators <= 0 {
		return errors.New("max validators must be positive")
	}
	if p.ActiveValidatorLimit <= 0 || p.ActiveValidatorLimit > p.MaxValidators {
		return fmt.Errorf("active validator limit %d out of range (0, %d]",
			p.ActiveValidatorLimit, p.MaxValidators)
	}
	if p.BondingPeriod < 0 || p.ChallengeWindow <= 0 || p.VotingPeriod <= 0 {
		return errors.New("window lengths must be positive")
	}
	if p.QuorumPercent == 0 || p.QuorumPercent > 100 {
		return fmt.Errorf("quorum percent %d out of range (0, 100]", p.QuorumPercent)
	}
	if p.DisputeVotingPeriod <= 0 {
		return errors.New("dispute voting period must be positive")
	}
	if p.MinimumChallengeStake == 0 {
		return errors.New("minimum challenge stake must be positive")
	}
	if p.SlashPercent > 100 {
		return fmt.Errorf("slash percent %d out of range [0, 100]", p.SlashPercent)
	}
	return nil
}
