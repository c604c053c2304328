package proposal

import (
	"sync"

	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	"github.com/tendermint/tendermint/libs/events"
	"github.com/tendermint/tendermint/libs/log"

	"optibft/clock"
	"optibft/libs/metric"
	"optibft/oracle"
	"optibft/types"
)

const MetricLabel = "PROPOSAL"

// EligibilityChecker answers whether a principal may act as a validator
// right now. Eligibility is re-checked at the moment of each action, never
// cached across calls.
type EligibilityChecker interface {
	IsActive(principal types.Address) bool
}

// Lifecycle drives the proposal state machine:
//
//	Proposed -> OptimisticApproved -> Finalized
//	                |                     ^
//	                v                     |
//	            Challenged ---------------+--> Rejected
//	Proposed -> Rejected
//
// It never inspects consensus or dispute state; Challenged proposals leave
// that state only through ApplyResolution, called by whoever owns the
// resolution outcome.
type Lifecycle struct {
	mtx    sync.Mutex
	logger log.Logger
	evsw   events.Fireable

	params   types.Params
	clock    clock.Clock
	oracle   oracle.ValidityOracle
	checker  EligibilityChecker
	approver *types.Authority
	store    Store

	proposals map[uint64]*types.Proposal
	nextID    uint64

	metric *proposalMetric
}

func NewLifecycle(
	params types.Params,
	clk clock.Clock,
	vo oracle.ValidityOracle,
	checker EligibilityChecker,
	approver *types.Authority,
	store Store,
) *Lifecycle {
	lc := &Lifecycle{
		logger:    log.NewNopLogger(),
		params:    params,
		clock:     clk,
		oracle:    vo,
		checker:   checker,
		approver:  approver,
		store:     store,
		proposals: make(map[uint64]*types.Proposal),
		nextID:    1,
		metric:    newProposalMetric(),
	}
	lc.reload()
	return lc
}

func (lc *Lifecycle) SetLogger(logger log.Logger) {
	lc.logger = logger
}

func (lc *Lifecycle) SetEventSwitch(evsw events.Fireable) {
	lc.evsw = evsw
}

func (lc *Lifecycle) Metric() metric.MetricItem {
	return lc.metric
}

// reload repopulates the in-memory map from the store on construction.
func (lc *Lifecycle) reload() {
	stored, err := lc.store.LoadAll()
	if err != nil {
		lc.logger.Error("proposal reload failed", "err", err)
		return
	}
	for _, p := range stored {
		lc.proposals[p.ID] = p
		if p.ID >= lc.nextID {
			lc.nextID = p.ID + 1
		}
	}
}

//----------------------------------------
// transitions

// Create registers a new proposal in the Proposed state and returns its id.
// The proposer must be an active validator and the content fingerprint must
// pass the validity oracle.
func (lc *Lifecycle) Create(proposer types.Address, contentHash tmbytes.HexBytes, metadata string) (uint64, error) {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	if !lc.checker.IsActive(proposer) {
		return 0, ErrProposerNotEligible
	}
	if metadata == "" {
		return 0, ErrEmptyMetadata
	}
	if !lc.oracle.Validate(contentHash) {
		return 0, ErrInvalidContent
	}

	p := types.NewProposal(lc.nextID, proposer, contentHash, metadata, lc.clock.Height())
	p.OracleValidated = true
	if err := p.ValidateBasic(); err != nil {
		return 0, err
	}
	if err := lc.store.Save(p); err != nil {
		return 0, err
	}

	lc.proposals[p.ID] = p
	lc.nextID++

	lc.metric.MarkCreated(len(lc.proposals))
	lc.fireEvent(types.EventProposalCreated, p.Copy())
	lc.logger.Info("proposal created", "id", p.ID, "proposer", proposer,
		"content", contentHash)
	return p.ID, nil
}

// Approve optimistically approves a Proposed proposal and opens its
// challenge window. Only the holder of the approver authority may call.
// When RequiredApprovals is configured, the proposal must have collected
// that many validator approvals first.
func (lc *Lifecycle) Approve(auth *types.Authority, id uint64) error {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	if auth != lc.approver {
		return ErrUnauthorized
	}
	p, ok := lc.proposals[id]
	if !ok {
		return ErrUnknownProposal
	}
	if p.State != types.StateProposed {
		return ErrProposalNotApprovable
	}
	if n := lc.params.RequiredApprovals; n > 0 && uint32(p.ApprovalCount()) < n {
		return ErrInsufficientApprovals
	}

	prev := *p
	p.State = types.StateOptimisticApproved
	p.ChallengeWindowEnd = lc.clock.Height() + lc.params.ChallengeWindow
	if err := lc.commit(p, prev); err != nil {
		return err
	}

	lc.fireEvent(types.EventProposalApproved, p.Copy())
	lc.logger.Info("proposal optimistically approved", "id", id,
		"window_end", p.ChallengeWindowEnd)
	return nil
}

// Reject rejects a Proposed proposal outright. Only the holder of the
// approver authority may call.
func (lc *Lifecycle) Reject(auth *types.Authority, id uint64) error {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	if auth != lc.approver {
		return ErrUnauthorized
	}
	p, ok := lc.proposals[id]
	if !ok {
		return ErrUnknownProposal
	}
	if p.State != types.StateProposed {
		return ErrProposalNotApprovable
	}

	prev := *p
	p.State = types.StateRejected
	if err := lc.commit(p, prev); err != nil {
		return err
	}

	lc.fireEvent(types.EventProposalRejected, p.Copy())
	lc.logger.Info("proposal rejected", "id", id)
	return nil
}

// RecordValidatorApproval counts an active validator's sign-off on a
// Proposed proposal. The count gates Approve when RequiredApprovals is
// configured.
func (lc *Lifecycle) RecordValidatorApproval(id uint64, validator types.Address) error {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	p, ok := lc.proposals[id]
	if !ok {
		return ErrUnknownProposal
	}
	if p.State != types.StateProposed {
		return ErrProposalNotApprovable
	}
	if !lc.checker.IsActive(validator) {
		return ErrValidatorNotEligible
	}
	if p.HasApprovalFrom(validator) {
		return ErrValidatorAlreadyApproved
	}

	prev := *p
	p.Approvals[validator.Key()] = true
	if err := lc.commit(p, prev); err != nil {
		delete(p.Approvals, validator.Key())
		return err
	}

	lc.logger.Debug("validator approval recorded", "id", id, "validator", validator,
		"count", p.ApprovalCount())
	return nil
}

// Challenge moves an OptimisticApproved proposal to Challenged. The
// challenger must be an active validator and the challenge window must
// still be open.
func (lc *Lifecycle) Challenge(id uint64, challenger types.Address) error {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	p, ok := lc.proposals[id]
	if !ok {
		return ErrUnknownProposal
	}
	if p.State != types.StateOptimisticApproved {
		return ErrProposalNotChallengeable
	}
	if lc.clock.Height() > p.ChallengeWindowEnd {
		return ErrChallengeWindowExpired
	}
	if !lc.checker.IsActive(challenger) {
		return ErrValidatorNotEligible
	}

	prev := *p
	p.State = types.StateChallenged
	p.Challenger = challenger
	if err := lc.commit(p, prev); err != nil {
		return err
	}

	lc.fireEvent(types.EventProposalChallenge, p.Copy())
	lc.logger.Info("proposal challenged", "id", id, "challenger", challenger)
	return nil
}

// Finalize completes an unchallenged proposal once its window has closed.
// Only the holder of the approver authority may call.
func (lc *Lifecycle) Finalize(auth *types.Authority, id uint64) error {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	if auth != lc.approver {
		return ErrUnauthorized
	}
	p, ok := lc.proposals[id]
	if !ok {
		return ErrUnknownProposal
	}
	if p.State != types.StateOptimisticApproved {
		return ErrProposalNotChallengeable
	}
	if lc.clock.Height() <= p.ChallengeWindowEnd {
		return ErrChallengeWindowActive
	}

	prev := *p
	p.State = types.StateFinalized
	if err := lc.commit(p, prev); err != nil {
		return err
	}

	lc.fireEvent(types.EventProposalFinalized, p.Copy())
	lc.logger.Info("proposal finalized", "id", id)
	return nil
}

// ApplyResolution settles a Challenged proposal with the outcome of the
// consensus round or dispute that judged it: approved means Finalized,
// otherwise Rejected. Only the holder of the approver authority may call.
func (lc *Lifecycle) ApplyResolution(auth *types.Authority, id uint64, approved bool) error {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	if auth != lc.approver {
		return ErrUnauthorized
	}
	p, ok := lc.proposals[id]
	if !ok {
		return ErrUnknownProposal
	}
	if p.State != types.StateChallenged {
		return ErrProposalNotChallenged
	}

	prev := *p
	event := types.EventProposalRejected
	p.State = types.StateRejected
	if approved {
		p.State = types.StateFinalized
		event = types.EventProposalFinalized
	}
	if err := lc.commit(p, prev); err != nil {
		return err
	}

	lc.fireEvent(event, p.Copy())
	lc.logger.Info("proposal resolution applied", "id", id, "approved", approved)
	return nil
}

//----------------------------------------
// queries

// Proposal returns a copy of the proposal with the given id.
func (lc *Lifecycle) Proposal(id uint64) (*types.Proposal, error) {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	p, ok := lc.proposals[id]
	if !ok {
		return nil, ErrUnknownProposal
	}
	return p.Copy(), nil
}

// Proposals returns copies of all proposals in the given state, or all
// proposals when state is nil.
func (lc *Lifecycle) Proposals(state *types.ProposalState) []*types.Proposal {
	lc.mtx.Lock()
	defer lc.mtx.Unlock()

	out := make([]*types.Proposal, 0, len(lc.proposals))
	for _, p := range lc.proposals {
		if state == nil || p.State == *state {
			out = append(out, p.Copy())
		}
	}
	return out
}

//----------------------------------------
// internals; callers hold lc.mtx

// commit writes through to the store, restoring prev on failure so a
// refused write leaves no partial transition behind. prev shares the
// Approvals map with p; callers that mutate the map undo that themselves.
func (lc *Lifecycle) commit(p *types.Proposal, prev types.Proposal) error {
	if err := lc.store.Save(p); err != nil {
		*p = prev
		lc.logger.Error("proposal persist failed", "id", p.ID, "err", err)
		return err
	}
	lc.updateMetric()
	return nil
}

func (lc *Lifecycle) updateMetric() {
	var challenged, finalized int
	for _, p := range lc.proposals {
		switch p.State {
		case types.StateChallenged:
			challenged++
		case types.StateFinalized:
			finalized++
		}
	}
	lc.metric.MarkStates(len(lc.proposals), challenged, finalized)
}

func (lc *Lifecycle) fireEvent(event string, data events.EventData) {
	if lc.evsw != nil {
		lc.evsw.FireEvent(event, data)
	}
}
