package valset

import "errors"

var (
	// ErrInsufficientStake is returned when a registration carries less than
	// the minimum stake.
	ErrInsufficientStake = errors.New("stake below minimum")

	// ErrAlreadyRegistered is returned when the principal already has a
	// non-zero stake record.
	ErrAlreadyRegistered = errors.New("validator already registered")

	// ErrUnknownValidator is returned when no stake record exists for the
	// principal.
	ErrUnknownValidator = errors.New("unknown validator")

	// ErrZeroAmount is returned when an operation carries a zero amount.
	ErrZeroAmount = errors.New("amount must be positive")

	// ErrUnstakeExceedsStake is returned when an unstake request exceeds the
	// staked balance.
	ErrUnstakeExceedsStake = errors.New("unstake amount exceeds staked balance")

	// ErrInvalidStatus is returned when the validator's status does not
	// admit the requested transition.
	ErrInvalidStatus = errors.New("invalid validator status for operation")

	// ErrBondingPeriodNotMet is returned when an unstake completion arrives
	// before the bonding period has elapsed.
	ErrBondingPeriodNotMet = errors.New("bonding period not met")

	// ErrNoUnstakePending is returned when there is no unstake request to
	// complete.
	ErrNoUnstakePending = errors.New("no unstake request pending")

	// ErrUnauthorized is returned when the caller does not hold the
	// required capability token.
	ErrUnauthorized = errors.New("caller does not hold required authority")

	// ErrReentrantCall is returned when a state-mutating operation is
	// entered while a collateral transfer is outstanding.
	ErrReentrantCall = errors.New("reentrant call during collateral transfer")

	// ErrLimitOutOfRange is returned when the active-validator limit is set
	// outside [1, MaxValidators].
	ErrLimitOutOfRange = errors.New("active validator limit out of range")
)
