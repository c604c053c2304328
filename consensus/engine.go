package consensus

import (
	"sync"

	"github.com/tendermint/tendermint/crypto"
	"github.com/tendermint/tendermint/libs/events"
	"github.com/tendermint/tendermint/libs/log"

	"optibft/clock"
	"optibft/libs/metric"
	"optibft/types"
)

const MetricLabel = "CONSENSUS"

// ValidatorView is the slice of the validator set the engine reads:
// eligibility and key lookups at vote time, the set size at finalization
// time.
type ValidatorView interface {
	IsActive(principal types.Address) bool
	ActiveCount() int
	PubKey(principal types.Address) (crypto.PubKey, error)
}

// Engine runs voting rounds over challenged proposals. One unfinalized
// round may exist per proposal at a time. The engine never mutates
// proposal state; Finalize returns the outcome and the caller routes it.
type Engine struct {
	mtx    sync.Mutex
	logger log.Logger
	evsw   events.Fireable

	params    types.Params
	clock     clock.Clock
	valset    ValidatorView
	initiator *types.Authority

	// chainID and engineID are the signature domain-separation identities:
	// a vote signed for one engine or one chain never verifies on another.
	chainID  string
	engineID string

	rounds     map[uint64]*Round
	byProposal map[uint64]uint64 // proposal id -> open round id
	nextID     uint64

	metric *consensusMetric
}

func NewEngine(
	params types.Params,
	clk clock.Clock,
	valset ValidatorView,
	initiator *types.Authority,
	chainID, engineID string,
) *Engine {
	return &Engine{
		logger:     log.NewNopLogger(),
		params:     params,
		clock:      clk,
		valset:     valset,
		initiator:  initiator,
		chainID:    chainID,
		engineID:   engineID,
		rounds:     make(map[uint64]*Round),
		byProposal: make(map[uint64]uint64),
		nextID:     1,
		metric:     newConsensusMetric(),
	}
}

func (e *Engine) SetLogger(logger log.Logger) {
	e.logger = logger
}

func (e *Engine) SetEventSwitch(evsw events.Fireable) {
	e.evsw = evsw
}

func (e *Engine) Metric() metric.MetricItem {
	return e.metric
}

//----------------------------------------
// operations

// Initiate opens a voting round for the proposal. Only the holder of the
// initiator authority may call; a proposal can have at most one open round.
func (e *Engine) Initiate(auth *types.Authority, proposalID uint64) (uint64, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if auth != e.initiator {
		return 0, ErrUnauthorized
	}
	if _, open := e.byProposal[proposalID]; open {
		return 0, ErrProposalAlreadyInConsensus
	}

	round := newRound(e.nextID, proposalID, e.clock.Height(), e.params.VotingPeriod)
	e.rounds[round.ID] = round
	e.byProposal[proposalID] = round.ID
	e.nextID++

	e.metric.MarkRoundStarted(round.ID, round.ProposalID, round.EndHeight)
	e.fireEvent(types.EventRoundStarted, round.Copy())
	e.logger.Info("consensus round started", "round", round.ID,
		"proposal", proposalID, "end_height", round.EndHeight)
	return round.ID, nil
}

// CastVote records a signed vote. The voter's eligibility is checked at
// this moment, not at round initiation; a vote that was valid when cast
// stands even if the voter later leaves the active set.
func (e *Engine) CastVote(vote *types.ConsensusVote) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	round, ok := e.rounds[vote.RoundID]
	if !ok {
		return ErrUnknownRound
	}
	if round.Finalized {
		return ErrRoundAlreadyFinalized
	}
	if e.clock.Height() > round.EndHeight {
		return ErrVotingPeriodEnded
	}
	if !e.valset.IsActive(vote.Voter) {
		return ErrNotActiveValidator
	}
	if round.votes.HasVoted(vote.Voter) {
		return ErrAlreadyVoted
	}
	if err := e.verifyVote(vote); err != nil {
		return err
	}

	if err := round.votes.AddVote(vote.Voter, vote.Support); err != nil {
		return err
	}
	round.Tally = round.votes.Tally()

	e.fireEvent(types.EventRoundVoteCast, vote.Copy())
	e.logger.Debug("vote cast", "round", round.ID, "voter", vote.Voter,
		"support", vote.Support, "tally", round.Tally)
	return nil
}

// Finalize closes the round after its voting period and returns the
// outcome. The quorum denominator is the active-set size right now, at
// finalization; zero participation and an empty active set both yield
// non-approval.
func (e *Engine) Finalize(roundID uint64) (bool, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	round, ok := e.rounds[roundID]
	if !ok {
		return false, ErrUnknownRound
	}
	if round.Finalized {
		return false, ErrRoundAlreadyFinalized
	}
	if e.clock.Height() <= round.EndHeight {
		return false, ErrVotingPeriodActive
	}

	eligible := e.valset.ActiveCount()
	tally := round.votes.Tally()

	round.Finalized = true
	round.Approved = quorumReached(uint64(tally.For), e.params.QuorumPercent, eligible)
	round.Tally = tally
	round.EligibleAtFinalize = eligible
	delete(e.byProposal, round.ProposalID)

	e.metric.MarkRoundFinalized(round.ID, round.Approved)
	e.fireEvent(types.EventRoundFinalized, round.Copy())
	e.logger.Info("consensus round finalized", "round", round.ID,
		"approved", round.Approved, "tally", tally, "eligible", eligible)
	return round.Approved, nil
}

// quorumReached applies the approval rule:
//
//	votesFor * 100 >= quorumPercent * eligible
//
// measured against the active-set size, not the votes cast. The rule is
// monotonic in votesFor for a fixed denominator.
func quorumReached(votesFor, quorumPercent uint64, eligible int) bool {
	if eligible <= 0 || votesFor == 0 {
		return false
	}
	return votesFor*100 >= quorumPercent*uint64(eligible)
}

//----------------------------------------
// queries

// Round returns a snapshot of the round with the given id.
func (e *Engine) Round(roundID uint64) (*Round, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	round, ok := e.rounds[roundID]
	if !ok {
		return nil, ErrUnknownRound
	}
	snap := round.Copy()
	snap.Tally = round.votes.Tally()
	return snap, nil
}

// OpenRound returns the id of the unfinalized round for the proposal.
func (e *Engine) OpenRound(proposalID uint64) (uint64, bool) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	id, ok := e.byProposal[proposalID]
	return id, ok
}

// HasVoted reports whether the voter already voted in the round.
func (e *Engine) HasVoted(roundID uint64, voter types.Address) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	round, ok := e.rounds[roundID]
	return ok && round.votes.HasVoted(voter)
}

//----------------------------------------
// internals; callers hold e.mtx

// verifyVote checks the signature over the canonical domain-separated sign
// bytes against the voter's registered key.
func (e *Engine) verifyVote(vote *types.ConsensusVote) error {
	pubKey, err := e.valset.PubKey(vote.Voter)
	if err != nil {
		return ErrNotActiveValidator
	}
	if !vote.Voter.Equal(types.GetAddress(pubKey)) {
		return ErrInvalidSignature
	}
	if !pubKey.VerifySignature(
		types.ConsensusVoteSignBytes(e.chainID, e.engineID, vote), vote.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

func (e *Engine) fireEvent(event string, data events.EventData) {
	if e.evsw != nil {
		e.evsw.FireEvent(event, data)
	}
}
