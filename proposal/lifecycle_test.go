package proposal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/crypto/tmhash"
	"github.com/tendermint/tendermint/libs/log"
	tmdb "github.com/tendermint/tm-db"

	"optibft/clock"
	"optibft/oracle"
	"optibft/types"
)

// staticChecker treats a fixed address list as the active set.
type staticChecker struct {
	active map[string]bool
}

func newStaticChecker(addrs ...types.Address) *staticChecker {
	c := &staticChecker{active: make(map[string]bool)}
	for _, addr := range addrs {
		c.active[addr.Key()] = true
	}
	return c
}

func (c *staticChecker) IsActive(principal types.Address) bool {
	return c.active[principal.Key()]
}

type lcEnv struct {
	lc       *Lifecycle
	clk      *clock.ManualClock
	approver *types.Authority
	checker  *staticChecker
	proposer types.Address
}

func newLcEnv(t *testing.T, params types.Params, store Store) *lcEnv {
	t.Helper()
	proposer := types.NewMockPV().GetAddress()
	checker := newStaticChecker(proposer)
	clk := clock.NewManualClock(1, time.Now())
	approver := types.NewAuthority("approver")

	lc := NewLifecycle(params, clk, oracle.NewHashRuleOracle(), checker, approver, store)
	return &lcEnv{lc: lc, clk: clk, approver: approver, checker: checker, proposer: proposer}
}

func (env *lcEnv) create(t *testing.T) uint64 {
	t.Helper()
	id, err := env.lc.Create(env.proposer, tmhash.Sum([]byte("content")), "meta")
	require.NoError(t, err)
	return id
}

func TestCreateGuards(t *testing.T) {
	env := newLcEnv(t, types.DefaultParams(), NopStore{})

	stranger := types.NewMockPV().GetAddress()
	_, err := env.lc.Create(stranger, tmhash.Sum([]byte("x")), "meta")
	assert.Equal(t, ErrProposerNotEligible, err)

	_, err = env.lc.Create(env.proposer, tmhash.Sum([]byte("x")), "")
	assert.Equal(t, ErrEmptyMetadata, err)

	_, err = env.lc.Create(env.proposer, []byte{0x01}, "meta")
	assert.Equal(t, ErrInvalidContent, err)

	id := env.create(t)
	assert.Equal(t, uint64(1), id)
	p, err := env.lc.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateProposed, p.State)
	assert.True(t, p.OracleValidated)

	// Sequential ids.
	assert.Equal(t, uint64(2), env.create(t))
}

func TestHappyPathFinalize(t *testing.T) {
	params := types.DefaultParams()
	params.ChallengeWindow = 20
	env := newLcEnv(t, params, NopStore{})

	id := env.create(t)

	assert.Equal(t, ErrUnauthorized, env.lc.Approve(types.NewAuthority("approver"), id))
	require.NoError(t, env.lc.Approve(env.approver, id))

	p, err := env.lc.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateOptimisticApproved, p.State)
	assert.Equal(t, env.clk.Height()+20, p.ChallengeWindowEnd)

	// Double approval is refused.
	assert.Equal(t, ErrProposalNotApprovable, env.lc.Approve(env.approver, id))

	// Too early to finalize, exactly at the boundary still counts as open.
	assert.Equal(t, ErrChallengeWindowActive, env.lc.Finalize(env.approver, id))
	env.clk.AdvanceHeight(20)
	assert.Equal(t, ErrChallengeWindowActive, env.lc.Finalize(env.approver, id))

	env.clk.AdvanceHeight(1)
	require.NoError(t, env.lc.Finalize(env.approver, id))

	p, err = env.lc.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateFinalized, p.State)

	assert.Equal(t, ErrProposalNotChallengeable, env.lc.Finalize(env.approver, id))
}

func TestChallengeWindow(t *testing.T) {
	params := types.DefaultParams()
	params.ChallengeWindow = 5
	env := newLcEnv(t, params, NopStore{})

	id := env.create(t)

	// Cannot challenge before approval.
	assert.Equal(t, ErrProposalNotChallengeable, env.lc.Challenge(id, env.proposer))

	require.NoError(t, env.lc.Approve(env.approver, id))

	stranger := types.NewMockPV().GetAddress()
	assert.Equal(t, ErrValidatorNotEligible, env.lc.Challenge(id, stranger))

	env.clk.AdvanceHeight(6)
	assert.Equal(t, ErrChallengeWindowExpired, env.lc.Challenge(id, env.proposer))

	// Fresh proposal, challenged in time.
	id2 := env.create(t)
	require.NoError(t, env.lc.Approve(env.approver, id2))
	require.NoError(t, env.lc.Challenge(id2, env.proposer))

	p, err := env.lc.Proposal(id2)
	require.NoError(t, err)
	assert.Equal(t, types.StateChallenged, p.State)
	assert.True(t, p.Challenger.Equal(env.proposer))

	// A challenged proposal cannot be finalized directly.
	assert.Equal(t, ErrProposalNotChallengeable, env.lc.Finalize(env.approver, id2))
}

func TestApplyResolution(t *testing.T) {
	env := newLcEnv(t, types.DefaultParams(), NopStore{})

	for _, approved := range []bool{true, false} {
		id := env.create(t)
		require.NoError(t, env.lc.Approve(env.approver, id))
		require.NoError(t, env.lc.Challenge(id, env.proposer))

		assert.Equal(t, ErrUnauthorized,
			env.lc.ApplyResolution(types.NewAuthority("approver"), id, approved))
		require.NoError(t, env.lc.ApplyResolution(env.approver, id, approved))

		p, err := env.lc.Proposal(id)
		require.NoError(t, err)
		if approved {
			assert.Equal(t, types.StateFinalized, p.State)
		} else {
			assert.Equal(t, types.StateRejected, p.State)
		}

		// Resolution applies exactly once.
		assert.Equal(t, ErrProposalNotChallenged,
			env.lc.ApplyResolution(env.approver, id, approved))
	}
}

func TestReject(t *testing.T) {
	env := newLcEnv(t, types.DefaultParams(), NopStore{})

	id := env.create(t)
	require.NoError(t, env.lc.Reject(env.approver, id))

	p, err := env.lc.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateRejected, p.State)

	assert.Equal(t, ErrProposalNotApprovable, env.lc.Reject(env.approver, id))
	assert.Equal(t, ErrProposalNotApprovable, env.lc.Approve(env.approver, id))
}

func TestValidatorApprovalGate(t *testing.T) {
	params := types.DefaultParams()
	params.RequiredApprovals = 2
	env := newLcEnv(t, params, NopStore{})

	second := types.NewMockPV().GetAddress()
	env.checker.active[second.Key()] = true

	id := env.create(t)

	assert.Equal(t, ErrInsufficientApprovals, env.lc.Approve(env.approver, id))

	require.NoError(t, env.lc.RecordValidatorApproval(id, env.proposer))
	assert.Equal(t, ErrValidatorAlreadyApproved,
		env.lc.RecordValidatorApproval(id, env.proposer))
	assert.Equal(t, ErrInsufficientApprovals, env.lc.Approve(env.approver, id))

	stranger := types.NewMockPV().GetAddress()
	assert.Equal(t, ErrValidatorNotEligible, env.lc.RecordValidatorApproval(id, stranger))

	require.NoError(t, env.lc.RecordValidatorApproval(id, second))
	require.NoError(t, env.lc.Approve(env.approver, id))
}

func TestUnknownProposal(t *testing.T) {
	env := newLcEnv(t, types.DefaultParams(), NopStore{})

	assert.Equal(t, ErrUnknownProposal, env.lc.Approve(env.approver, 42))
	assert.Equal(t, ErrUnknownProposal, env.lc.Challenge(42, env.proposer))
	assert.Equal(t, ErrUnknownProposal, env.lc.Finalize(env.approver, 42))
	_, err := env.lc.Proposal(42)
	assert.Equal(t, ErrUnknownProposal, err)
}

func TestProposalsFilter(t *testing.T) {
	env := newLcEnv(t, types.DefaultParams(), NopStore{})

	id := env.create(t)
	env.create(t)
	require.NoError(t, env.lc.Approve(env.approver, id))

	assert.Len(t, env.lc.Proposals(nil), 2)
	state := types.StateProposed
	assert.Len(t, env.lc.Proposals(&state), 1)
	state = types.StateOptimisticApproved
	assert.Len(t, env.lc.Proposals(&state), 1)
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewKVStoreWithDB(tmdb.NewMemDB(), log.TestingLogger())
	env := newLcEnv(t, types.DefaultParams(), store)

	id := env.create(t)
	require.NoError(t, env.lc.Approve(env.approver, id))

	// A fresh lifecycle over the same store sees the approved proposal and
	// continues the id sequence.
	lc2 := NewLifecycle(types.DefaultParams(), env.clk, oracle.NewHashRuleOracle(),
		env.checker, env.approver, store)

	p, err := lc2.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateOptimisticApproved, p.State)
	assert.Equal(t, env.proposer.Key(), p.Proposer.Key())

	id2, err := lc2.Create(env.proposer, tmhash.Sum([]byte("more")), "meta")
	require.NoError(t, err)
	assert.Equal(t, id+1, id2)
}
