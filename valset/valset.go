package valset

import (
	"sort"
	"sync"

	"github.com/tendermint/tendermint/crypto"
	"github.com/tendermint/tendermint/libs/events"
	"github.com/tendermint/tendermint/libs/log"

	"optibft/clock"
	"optibft/ledger"
	"optibft/libs/metric"
	"optibft/libs/utils"
	"optibft/types"
)

const MetricLabel = "VALSET"

// ValidatorSet is the stake ledger and active-set selector. It owns every
// validator record, keeps the active set as the top-K records by bonded
// stake, and is the single writer of validator collateral in custody.
//
// All collateral moves follow the same discipline: bookkeeping is updated
// first, then the ledger call is made, and the bookkeeping is rolled back
// if the ledger refuses. A guard flag rejects operations re-entered while
// a transfer is outstanding.
type ValidatorSet struct {
	mtx    sync.Mutex
	logger log.Logger
	evsw   events.Fireable

	params  types.Params
	ledger  ledger.CollateralLedger
	clock   clock.Clock
	slasher *types.Authority
	admin   *types.Authority

	vals        map[string]*types.Validator // by Address.Key()
	active      []*types.Validator          // ordered top-K, pointers into vals
	activeLimit int
	regSeq      uint64

	// transferring guards against reentrancy through the collateral ledger.
	transferring bool

	metric *valsetMetric
}

func NewValidatorSet(
	params types.Params,
	collateral ledger.CollateralLedger,
	clk clock.Clock,
	slasher, admin *types.Authority,
) *ValidatorSet {
	return &ValidatorSet{
		logger:      log.NewNopLogger(),
		params:      params,
		ledger:      collateral,
		clock:       clk,
		slasher:     slasher,
		admin:       admin,
		vals:        make(map[string]*types.Validator),
		activeLimit: params.ActiveValidatorLimit,
		metric:      newValsetMetric(),
	}
}

func (vs *ValidatorSet) SetLogger(logger log.Logger) {
	vs.logger = logger
}

func (vs *ValidatorSet) SetEventSwitch(evsw events.Fireable) {
	vs.evsw = evsw
}

func (vs *ValidatorSet) Metric() metric.MetricItem {
	return vs.metric
}

//----------------------------------------
// stake operations

// Register creates a stake record for the key's principal and pulls the
// stake into custody. A principal with a live non-zero record cannot
// register again; a principal who fully exited may.
func (vs *ValidatorSet) Register(pubKey crypto.PubKey, amount uint64) error {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	if vs.transferring {
		return ErrReentrantCall
	}
	if amount < vs.params.MinimumStake {
		return ErrInsufficientStake
	}

	addr := types.GetAddress(pubKey)
	key := addr.Key()
	if old, ok := vs.vals[key]; ok && old.StakedAmount > 0 {
		return ErrAlreadyRegistered
	}

	vs.regSeq++
	val := types.NewValidator(pubKey, amount, vs.clock.Height(), vs.regSeq)
	prev := vs.vals[key] // nil or an exhausted record
	vs.vals[key] = val

	if err := vs.transferIn(addr, amount); err != nil {
		if prev != nil {
			vs.vals[key] = prev
		} else {
			delete(vs.vals, key)
		}
		vs.regSeq--
		return err
	}

	vs.recomputeActiveSet()
	vs.fireEvent(types.EventValidatorRegistered, val.Copy())
	vs.logger.Info("validator registered", "addr", addr, "stake", amount)
	return nil
}

// IncreaseStake pulls additional collateral for an existing record.
func (vs *ValidatorSet) IncreaseStake(principal types.Address, amount uint64) error {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	if vs.transferring {
		return ErrReentrantCall
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	val, ok := vs.vals[principal.Key()]
	if !ok || val.StakedAmount == 0 {
		return ErrUnknownValidator
	}

	prevStatus := val.Status
	val.StakedAmount += amount
	// A slashed validator who tops back up above the minimum is eligible
	// again.
	if val.Status == types.StatusSlashed && val.StakedAmount >= vs.params.MinimumStake {
		val.Status = types.StatusInactive
	}

	if err := vs.transferIn(principal, amount); err != nil {
		val.StakedAmount -= amount
		val.Status = prevStatus
		return err
	}

	vs.recomputeActiveSet()
	vs.fireEvent(types.EventStakeIncreased, val.Copy())
	vs.logger.Info("stake increased", "addr", principal, "amount", amount,
		"total", val.StakedAmount)
	return nil
}

// RequestUnstake starts the bonding countdown for part or all of the
// validator's stake. The validator leaves the active set immediately; the
// funds leave custody only after CompleteUnstake.
func (vs *ValidatorSet) RequestUnstake(principal types.Address, amount uint64) error {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	if vs.transferring {
		return ErrReentrantCall
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	val, ok := vs.vals[principal.Key()]
	if !ok || val.StakedAmount == 0 {
		return ErrUnknownValidator
	}
	if val.Status == types.StatusUnstaking {
		return ErrInvalidStatus
	}
	if amount > val.StakedAmount {
		return ErrUnstakeExceedsStake
	}

	val.Status = types.StatusUnstaking
	val.UnstakeHeight = vs.clock.Height()
	val.UnstakeAmount = amount

	vs.recomputeActiveSet()
	vs.fireEvent(types.EventUnstakeRequested, val.Copy())
	vs.logger.Info("unstake requested", "addr", principal, "amount", amount,
		"height", val.UnstakeHeight)
	return nil
}

// CompleteUnstake releases the requested amount after the bonding period.
// Slashing during bonding may have reduced the balance below the request;
// only what remains is released.
func (vs *ValidatorSet) CompleteUnstake(principal types.Address) error {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	if vs.transferring {
		return ErrReentrantCall
	}
	val, ok := vs.vals[principal.Key()]
	if !ok {
		return ErrUnknownValidator
	}
	if val.Status != types.StatusUnstaking {
		return ErrNoUnstakePending
	}
	if vs.clock.Height() < val.UnstakeHeight+vs.params.BondingPeriod {
		return ErrBondingPeriodNotMet
	}

	release := utils.MinUint64(val.UnstakeAmount, val.StakedAmount)

	prev := *val
	val.StakedAmount -= release
	val.UnstakeHeight = 0
	val.UnstakeAmount = 0
	// The record is kept even at zero balance; the next recompute promotes
	// it again if the remainder still clears the minimum.
	val.Status = types.StatusInactive

	if release > 0 {
		if err := vs.transferOut(principal, release); err != nil {
			*val = prev
			return err
		}
	}

	vs.recomputeActiveSet()
	vs.fireEvent(types.EventUnstakeCompleted, val.Copy())
	vs.logger.Info("unstake completed", "addr", principal, "released", release,
		"remaining", val.StakedAmount)
	return nil
}

// Slash deducts up to amount from the validator's bonded stake. The
// deducted collateral stays in custody; routing it is the caller's
// concern. Only the holder of the slasher authority may call. Returns the
// amount actually applied.
func (vs *ValidatorSet) Slash(auth *types.Authority, principal types.Address, amount uint64, reason string) (uint64, error) {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	if auth != vs.slasher {
		return 0, ErrUnauthorized
	}
	if vs.transferring {
		return 0, ErrReentrantCall
	}
	val, ok := vs.vals[principal.Key()]
	if !ok {
		return 0, ErrUnknownValidator
	}

	applied := utils.MinUint64(amount, val.StakedAmount)
	val.StakedAmount -= applied
	val.TotalSlashed += applied

	// A pending unstake keeps its status so the remainder can still be
	// withdrawn after bonding.
	if val.StakedAmount < vs.params.MinimumStake && val.Status != types.StatusUnstaking {
		val.Status = types.StatusSlashed
	}

	vs.recomputeActiveSet()
	vs.fireEvent(types.EventValidatorSlashed, val.Copy())
	vs.logger.Info("validator slashed", "addr", principal, "amount", applied,
		"reason", reason, "remaining", val.StakedAmount)
	return applied, nil
}

// SetActiveValidatorLimit adjusts K, the active-set size bound. Only the
// holder of the admin authority may call.
func (vs *ValidatorSet) SetActiveValidatorLimit(auth *types.Authority, limit int) error {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	if auth != vs.admin {
		return ErrUnauthorized
	}
	if limit <= 0 || limit > vs.params.MaxValidators {
		return ErrLimitOutOfRange
	}

	vs.activeLimit = limit
	vs.metric.MarkActiveLimit(limit)
	vs.recomputeActiveSet()
	vs.logger.Info("active validator limit changed", "limit", limit)
	return nil
}

//----------------------------------------
// queries

// Validator returns a copy of the record for the principal.
func (vs *ValidatorSet) Validator(principal types.Address) (*types.Validator, error) {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	val, ok := vs.vals[principal.Key()]
	if !ok {
		return nil, ErrUnknownValidator
	}
	return val.Copy(), nil
}

// Validators returns copies of every stake record, active or not.
func (vs *ValidatorSet) Validators() []*types.Validator {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	out := make([]*types.Validator, 0, len(vs.vals))
	for _, val := range vs.vals {
		out = append(out, val.Copy())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegistrationSeq < out[j].RegistrationSeq
	})
	return out
}

// PubKey returns the registered public key for the principal.
func (vs *ValidatorSet) PubKey(principal types.Address) (crypto.PubKey, error) {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	val, ok := vs.vals[principal.Key()]
	if !ok {
		return nil, ErrUnknownValidator
	}
	return val.PubKey, nil
}

// TopValidators returns copies of the top-n active validators, ordered by
// descending stake (earlier registration breaks ties). n is clamped to the
// active-set size.
func (vs *ValidatorSet) TopValidators(n int) []*types.Validator {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	n = utils.ClampInt(n, 0, len(vs.active))
	top := make([]*types.Validator, n)
	for i := 0; i < n; i++ {
		top[i] = vs.active[i].Copy()
	}
	return top
}

// IsTopValidator reports whether the principal ranks within the top n of
// the active ordering.
func (vs *ValidatorSet) IsTopValidator(principal types.Address, n int) bool {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	if n > len(vs.active) {
		n = len(vs.active)
	}
	for i := 0; i < n; i++ {
		if vs.active[i].Address.Equal(principal) {
			return true
		}
	}
	return false
}

// ActiveSet returns a deep-copied snapshot of the current active set.
func (vs *ValidatorSet) ActiveSet() *types.ActiveSet {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()
	return types.NewActiveSet(vs.active)
}

func (vs *ValidatorSet) ActiveCount() int {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()
	return len(vs.active)
}

func (vs *ValidatorSet) IsActive(principal types.Address) bool {
	vs.mtx.Lock()
	defer vs.mtx.Unlock()

	val, ok := vs.vals[principal.Key()]
	return ok && val.Status == types.StatusActive
}

//----------------------------------------
// internals; callers hold vs.mtx

func (vs *ValidatorSet) transferIn(from types.Address, amount uint64) error {
	vs.transferring = true
	err := vs.ledger.TransferIn(from, amount)
	vs.transferring = false
	return err
}

func (vs *ValidatorSet) transferOut(to types.Address, amount uint64) error {
	vs.transferring = true
	err := vs.ledger.TransferOut(to, amount)
	vs.transferring = false
	return err
}

// recomputeActiveSet rebuilds the top-K ordering from scratch. Eligible
// records have at least the minimum stake and are neither unstaking nor
// slashed. Fires EventActiveSetChanged when membership or order changed.
func (vs *ValidatorSet) recomputeActiveSet() {
	eligible := make([]*types.Validator, 0, len(vs.vals))
	for _, val := range vs.vals {
		if val.StakedAmount < vs.params.MinimumStake {
			continue
		}
		switch val.Status {
		case types.StatusUnstaking, types.StatusSlashed:
			continue
		}
		eligible = append(eligible, val)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].StakedAmount != eligible[j].StakedAmount {
			return eligible[i].StakedAmount > eligible[j].StakedAmount
		}
		return eligible[i].RegistrationSeq < eligible[j].RegistrationSeq
	})

	if len(eligible) > vs.activeLimit {
		for _, val := range eligible[vs.activeLimit:] {
			val.Status = types.StatusInactive
		}
		eligible = eligible[:vs.activeLimit]
	}
	for _, val := range eligible {
		val.Status = types.StatusActive
	}
	// Demote records evicted since the last computation.
	for _, val := range vs.active {
		if val.Status == types.StatusActive && !containsVal(eligible, val) {
			val.Status = types.StatusInactive
		}
	}

	changed := len(eligible) != len(vs.active)
	if !changed {
		for i := range eligible {
			if eligible[i] != vs.active[i] {
				changed = true
				break
			}
		}
	}
	vs.active = eligible

	vs.updateMetric()
	if changed {
		vs.fireEvent(types.EventActiveSetChanged, types.NewActiveSet(vs.active))
		vs.logger.Debug("active set recomputed", "size", len(vs.active))
	}
}

func containsVal(vals []*types.Validator, target *types.Validator) bool {
	for _, val := range vals {
		if val == target {
			return true
		}
	}
	return false
}

func (vs *ValidatorSet) updateMetric() {
	var bonded, slashed uint64
	for _, val := range vs.vals {
		bonded += val.StakedAmount
		slashed += val.TotalSlashed
	}
	vs.metric.MarkCounts(len(vs.vals), len(vs.active))
	vs.metric.MarkBonded(bonded)
	vs.metric.MarkSlashed(slashed)
}

func (vs *ValidatorSet) fireEvent(event string, data events.EventData) {
	if vs.evsw != nil {
		vs.evsw.FireEvent(event, data)
	}
}
