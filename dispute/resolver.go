package dispute

import (
	"sync"

	"github.com/tendermint/tendermint/crypto"
	"github.com/tendermint/tendermint/libs/events"
	"github.com/tendermint/tendermint/libs/log"

	"optibft/clock"
	"optibft/ledger"
	"optibft/libs/metric"
	"optibft/types"
)

const MetricLabel = "DISPUTE"

// ValidatorAuthority is the slice of the validator set the resolver uses:
// voter eligibility, key lookups, and slashing. Slash calls carry the
// slasher token the resolver was constructed with.
type ValidatorAuthority interface {
	IsActive(principal types.Address) bool
	PubKey(principal types.Address) (crypto.PubKey, error)
	Slash(auth *types.Authority, principal types.Address, amount uint64, reason string) (uint64, error)
}

// ProposalHook is how the resolver touches the proposal lifecycle. The
// node implements it with whatever authority the lifecycle requires; the
// resolver itself holds none.
type ProposalHook interface {
	// Snapshot returns the current proposal record.
	Snapshot(id uint64) (*types.Proposal, error)
	// MarkChallenged moves the proposal to Challenged.
	MarkChallenged(id uint64, challenger types.Address) error
	// Resolve settles a Challenged proposal: approved means the proposer
	// prevailed.
	Resolve(id uint64, approved bool) error
}

// Resolver runs stake-backed disputes. Challenge stakes live in the
// resolver's custody account; the outcome rule is majority of votes cast,
// deliberately looser than the consensus engine's quorum over the active
// set.
type Resolver struct {
	mtx    sync.Mutex
	logger log.Logger
	evsw   events.Fireable

	params  types.Params
	clock   clock.Clock
	custody ledger.CollateralLedger
	valset  ValidatorAuthority
	hook    ProposalHook

	// slasherAuth is presented to the validator set on every slash;
	// adminAuth gates cancellation.
	slasherAuth *types.Authority
	adminAuth   *types.Authority

	chainID    string
	resolverID string

	disputes map[uint64]*Dispute
	nextID   uint64

	transferring bool

	metric *disputeMetric
}

func NewResolver(
	params types.Params,
	clk clock.Clock,
	custody ledger.CollateralLedger,
	valset ValidatorAuthority,
	hook ProposalHook,
	slasherAuth, adminAuth *types.Authority,
	chainID, resolverID string,
) *Resolver {
	return &Resolver{
		logger:      log.NewNopLogger(),
		params:      params,
		clock:       clk,
		custody:     custody,
		valset:      valset,
		hook:        hook,
		slasherAuth: slasherAuth,
		adminAuth:   adminAuth,
		chainID:     chainID,
		resolverID:  resolverID,
		disputes:    make(map[uint64]*Dispute),
		nextID:      1,
		metric:      newDisputeMetric(),
	}
}

func (r *Resolver) SetLogger(logger log.Logger) {
	r.logger = logger
}

func (r *Resolver) SetEventSwitch(evsw events.Fireable) {
	r.evsw = evsw
}

func (r *Resolver) Metric() metric.MetricItem {
	return r.metric
}

//----------------------------------------
// operations

// CreateDispute opens a dispute against an optimistically approved
// proposal, pulling the challenge stake into custody. The first dispute
// moves the proposal to Challenged; further disputes within the same
// challenge window run independently against the already-Challenged
// proposal.
func (r *Resolver) CreateDispute(challenger types.Address, proposalID uint64, stake uint64) (uint64, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.transferring {
		return 0, ErrReentrantCall
	}
	if stake == 0 {
		return 0, ErrZeroChallengeStake
	}
	if stake < r.params.MinimumChallengeStake {
		return 0, ErrInsufficientChallengeStake
	}

	p, err := r.hook.Snapshot(proposalID)
	if err != nil {
		return 0, err
	}
	switch p.State {
	case types.StateOptimisticApproved:
		// first dispute; the lifecycle vets window and challenger below
	case types.StateChallenged:
		// a further dispute, vetted here since the lifecycle is not called
		if r.clock.Height() > p.ChallengeWindowEnd {
			return 0, ErrProposalNotDisputable
		}
		if !r.valset.IsActive(challenger) {
			return 0, ErrNotActiveValidator
		}
	default:
		return 0, ErrProposalNotDisputable
	}

	d := newDispute(r.nextID, proposalID, challenger, p.Proposer, stake,
		r.clock.Now().Add(r.params.DisputeVotingPeriod))
	r.disputes[d.ID] = d
	r.nextID++

	if err := r.transferIn(challenger, stake); err != nil {
		delete(r.disputes, d.ID)
		r.nextID--
		return 0, err
	}
	if p.State == types.StateOptimisticApproved {
		if err := r.hook.MarkChallenged(proposalID, challenger); err != nil {
			// The lifecycle refused (window expired, challenger no longer
			// active); undo the pull and the record.
			if txErr := r.transferOut(challenger, stake); txErr != nil {
				r.logger.Error("stake refund failed after refused challenge",
					"dispute", d.ID, "err", txErr)
			}
			delete(r.disputes, d.ID)
			r.nextID--
			return 0, err
		}
	}

	r.metric.MarkCreated(d.ID, stake)
	r.fireEvent(types.EventDisputeCreated, d.Copy())
	r.logger.Info("dispute created", "dispute", d.ID, "proposal", proposalID,
		"challenger", challenger, "stake", stake)
	return d.ID, nil
}

// VoteOnDispute records a signed vote. Eligibility is checked now, at vote
// time.
func (r *Resolver) VoteOnDispute(vote *types.DisputeVote) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.disputes[vote.DisputeID]
	if !ok {
		return ErrUnknownDispute
	}
	if d.State != DisputeActive {
		return ErrDisputeNotActive
	}
	if r.clock.Now().After(d.VotingEndTime) {
		return ErrDisputeVotingEnded
	}
	if !r.valset.IsActive(vote.Voter) {
		return ErrNotActiveValidator
	}
	if d.hasVoted(vote.Voter) {
		return ErrAlreadyVoted
	}
	if err := r.verifyVote(vote); err != nil {
		return err
	}

	d.addVote(vote.Voter, vote.SupportChallenge)

	r.fireEvent(types.EventDisputeVoteCast, vote.Copy())
	r.logger.Debug("dispute vote cast", "dispute", d.ID, "voter", vote.Voter,
		"support_challenge", vote.SupportChallenge, "tally", d.Tally)
	return nil
}

// ResolveDispute settles the dispute after its voting window. The
// challenger wins on a majority of votes cast; no votes at all means the
// challenge fails. Custody moves at most once:
//
//	challenger wins: proposer slashed the configured percent of the stake, the
//	  entire stake returns to the challenger (slashed proposer funds stay
//	  in validator-set custody);
//	proposer wins:  stake minus the slash portion is forwarded to the
//	  proposer as a reward, the slash portion is burned from custody.
//
// The dispute is marked resolved before any collateral call. A settlement
// failure is surfaced but never reopens the dispute: a retried resolve
// cannot slash or pay the same dispute twice.
func (r *Resolver) ResolveDispute(disputeID uint64) (bool, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.transferring {
		return false, ErrReentrantCall
	}
	d, ok := r.disputes[disputeID]
	if !ok {
		return false, ErrUnknownDispute
	}
	if d.State != DisputeActive {
		return false, ErrDisputeNotActive
	}
	if !r.clock.Now().After(d.VotingEndTime) {
		return false, ErrDisputeVotingActive
	}

	cast := d.Tally.Cast()
	challengerWon := cast > 0 && 2*uint64(d.Tally.For) >= uint64(cast)
	slashAmount := d.Stake * r.params.SlashPercent / 100

	d.State = DisputeResolved
	d.ChallengerWon = challengerWon

	var err error
	if challengerWon {
		err = r.settleChallengerWin(d, slashAmount)
	} else {
		err = r.settleProposerWin(d, slashAmount)
	}
	if err != nil {
		// Custody may be partially moved; the remainder is an operator
		// problem on the ledger side. Reopening here would let a retry
		// apply the slash or the reward a second time.
		r.metric.MarkResolved(d.ID, challengerWon)
		r.logger.Error("dispute settlement incomplete", "dispute", d.ID,
			"challenger_won", challengerWon, "err", err)
		return challengerWon, err
	}

	if err := r.hook.Resolve(d.ProposalID, !challengerWon); err != nil {
		// Custody already moved; the proposal may have been settled through
		// another path. Surface it, do not unwind.
		r.logger.Error("proposal resolution not applied", "dispute", d.ID,
			"proposal", d.ProposalID, "err", err)
	}

	r.metric.MarkResolved(d.ID, challengerWon)
	r.fireEvent(types.EventDisputeResolved, d.Copy())
	r.logger.Info("dispute resolved", "dispute", d.ID,
		"challenger_won", challengerWon, "tally", d.Tally, "slash", slashAmount)
	return challengerWon, nil
}

// CancelDispute is the administrative escape hatch: the full stake returns
// to the challenger and nobody is slashed. Only the holder of the admin
// authority may call.
func (r *Resolver) CancelDispute(auth *types.Authority, disputeID uint64, reason string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if auth != r.adminAuth {
		return ErrUnauthorized
	}
	if r.transferring {
		return ErrReentrantCall
	}
	d, ok := r.disputes[disputeID]
	if !ok {
		return ErrUnknownDispute
	}
	if d.State != DisputeActive {
		return ErrDisputeNotActive
	}

	prev := *d
	d.State = DisputeCancelled

	if err := r.transferOut(d.Challenger, d.Stake); err != nil {
		*d = prev
		return err
	}

	r.metric.MarkCancelled(d.ID)
	r.fireEvent(types.EventDisputeCancelled, d.Copy())
	r.logger.Info("dispute cancelled", "dispute", d.ID, "reason", reason)
	return nil
}

//----------------------------------------
// queries

// Dispute returns a snapshot of the dispute with the given id.
func (r *Resolver) Dispute(disputeID uint64) (*Dispute, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.disputes[disputeID]
	if !ok {
		return nil, ErrUnknownDispute
	}
	return d.Copy(), nil
}

// HasVoted reports whether the voter already voted on the dispute.
func (r *Resolver) HasVoted(disputeID uint64, voter types.Address) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.disputes[disputeID]
	return ok && d.hasVoted(voter)
}

//----------------------------------------
// internals; callers hold r.mtx

func (r *Resolver) settleChallengerWin(d *Dispute, slashAmount uint64) error {
	if slashAmount > 0 {
		applied, err := r.valset.Slash(r.slasherAuth, d.Proposer, slashAmount,
			"dispute upheld")
		if err != nil {
			return err
		}
		if applied < slashAmount {
			r.logger.Info("proposer stake exhausted by slash", "dispute", d.ID,
				"wanted", slashAmount, "applied", applied)
		}
	}
	return r.transferOut(d.Challenger, d.Stake)
}

func (r *Resolver) settleProposerWin(d *Dispute, slashAmount uint64) error {
	if reward := d.Stake - slashAmount; reward > 0 {
		if err := r.transferOut(d.Proposer, reward); err != nil {
			return err
		}
	}
	if slashAmount > 0 {
		return r.burn(slashAmount)
	}
	return nil
}

func (r *Resolver) verifyVote(vote *types.DisputeVote) error {
	pubKey, err := r.valset.PubKey(vote.Voter)
	if err != nil {
		return ErrNotActiveValidator
	}
	if !vote.Voter.Equal(types.GetAddress(pubKey)) {
		return ErrInvalidSignature
	}
	if !pubKey.VerifySignature(
		types.DisputeVoteSignBytes(r.chainID, r.resolverID, vote), vote.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

func (r *Resolver) transferIn(from types.Address, amount uint64) error {
	r.transferring = true
	err := r.custody.TransferIn(from, amount)
	r.transferring = false
	return err
}

func (r *Resolver) transferOut(to types.Address, amount uint64) error {
	r.transferring = true
	err := r.custody.TransferOut(to, amount)
	r.transferring = false
	return err
}

func (r *Resolver) burn(amount uint64) error {
	r.transferring = true
	err := r.custody.Burn(amount)
	r.transferring = false
	return err
}

func (r *Resolver) fireEvent(event string, data events.EventData) {
	if r.evsw != nil {
		r.evsw.FireEvent(event, data)
	}
}
