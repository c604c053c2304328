package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/crypto"

	"optibft/clock"
	"optibft/types"
)

const (
	testChainID  = "test-chain"
	testEngineID = "engine-0"
)

// mockValset is a ValidatorView over a fixed map, mutable mid-test to model
// eligibility changes between calls.
type mockValset struct {
	active map[string]bool
	keys   map[string]crypto.PubKey
}

func newMockValset() *mockValset {
	return &mockValset{
		active: make(map[string]bool),
		keys:   make(map[string]crypto.PubKey),
	}
}

func (m *mockValset) add(t *testing.T, pv types.PrivValidator) {
	t.Helper()
	pubKey, err := pv.GetPubKey()
	require.NoError(t, err)
	m.active[pv.GetAddress().Key()] = true
	m.keys[pv.GetAddress().Key()] = pubKey
}

func (m *mockValset) deactivate(addr types.Address) {
	delete(m.active, addr.Key())
}

func (m *mockValset) IsActive(principal types.Address) bool {
	return m.active[principal.Key()]
}

func (m *mockValset) ActiveCount() int {
	return len(m.active)
}

func (m *mockValset) PubKey(principal types.Address) (crypto.PubKey, error) {
	pubKey, ok := m.keys[principal.Key()]
	if !ok {
		return nil, ErrNotActiveValidator
	}
	return pubKey, nil
}

type engineEnv struct {
	engine    *Engine
	clk       *clock.ManualClock
	valset    *mockValset
	initiator *types.Authority
	voters    []types.PrivValidator
}

func newEngineEnv(t *testing.T, voters int) *engineEnv {
	t.Helper()
	params := types.DefaultParams()
	params.VotingPeriod = 10
	params.QuorumPercent = 60

	clk := clock.NewManualClock(1, time.Now())
	valset := newMockValset()
	initiator := types.NewAuthority("initiator")

	env := &engineEnv{
		engine:    NewEngine(params, clk, valset, initiator, testChainID, testEngineID),
		clk:       clk,
		valset:    valset,
		initiator: initiator,
	}
	for i := 0; i < voters; i++ {
		pv := types.NewMockPV()
		valset.add(t, pv)
		env.voters = append(env.voters, pv)
	}
	return env
}

func (env *engineEnv) signedVote(t *testing.T, pv types.PrivValidator, roundID uint64, support bool) *types.ConsensusVote {
	t.Helper()
	vote := &types.ConsensusVote{
		RoundID:   roundID,
		Voter:     pv.GetAddress(),
		Support:   support,
		Timestamp: time.Now(),
	}
	require.NoError(t, pv.SignConsensusVote(testChainID, testEngineID, vote))
	return vote
}

func TestInitiateGuards(t *testing.T) {
	env := newEngineEnv(t, 3)

	_, err := env.engine.Initiate(types.NewAuthority("initiator"), 1)
	assert.Equal(t, ErrUnauthorized, err)

	roundID, err := env.engine.Initiate(env.initiator, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), roundID)

	_, err = env.engine.Initiate(env.initiator, 1)
	assert.Equal(t, ErrProposalAlreadyInConsensus, err)

	// A different proposal opens fine.
	_, err = env.engine.Initiate(env.initiator, 2)
	require.NoError(t, err)

	open, ok := env.engine.OpenRound(1)
	require.True(t, ok)
	assert.Equal(t, roundID, open)
}

func TestQuorumApproval(t *testing.T) {
	// 3 of 5 support at 60%: 3*100 >= 60*5 holds exactly.
	env := newEngineEnv(t, 5)
	roundID, err := env.engine.Initiate(env.initiator, 1)
	require.NoError(t, err)

	for i, pv := range env.voters {
		require.NoError(t, env.engine.CastVote(env.signedVote(t, pv, roundID, i < 3)))
	}

	_, err = env.engine.Finalize(roundID)
	assert.Equal(t, ErrVotingPeriodActive, err)

	env.clk.AdvanceHeight(11)
	approved, err := env.engine.Finalize(roundID)
	require.NoError(t, err)
	assert.True(t, approved)

	round, err := env.engine.Round(roundID)
	require.NoError(t, err)
	assert.True(t, round.Finalized)
	assert.Equal(t, types.Tally{For: 3, Against: 2}, round.Tally)
	assert.Equal(t, 5, round.EligibleAtFinalize)

	_, err = env.engine.Finalize(roundID)
	assert.Equal(t, ErrRoundAlreadyFinalized, err)

	// The round no longer blocks a new one for the same proposal.
	_, err = env.engine.Initiate(env.initiator, 1)
	require.NoError(t, err)
}

func TestQuorumRejection(t *testing.T) {
	// 2 of 5 support at 60%: 2*100 < 60*5.
	env := newEngineEnv(t, 5)
	roundID, err := env.engine.Initiate(env.initiator, 1)
	require.NoError(t, err)

	for i, pv := range env.voters {
		require.NoError(t, env.engine.CastVote(env.signedVote(t, pv, roundID, i < 2)))
	}

	env.clk.AdvanceHeight(11)
	approved, err := env.engine.Finalize(roundID)
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestZeroParticipation(t *testing.T) {
	env := newEngineEnv(t, 5)
	roundID, err := env.engine.Initiate(env.initiator, 1)
	require.NoError(t, err)

	env.clk.AdvanceHeight(11)
	approved, err := env.engine.Finalize(roundID)
	require.NoError(t, err)
	assert.False(t, approved, "no votes can never approve")
}

func TestVoteGuards(t *testing.T) {
	env := newEngineEnv(t, 3)
	roundID, err := env.engine.Initiate(env.initiator, 1)
	require.NoError(t, err)

	pv := env.voters[0]

	assert.Equal(t, ErrUnknownRound,
		env.engine.CastVote(env.signedVote(t, pv, 99, true)))

	// Non-active principal.
	outsider := types.NewMockPV()
	assert.Equal(t, ErrNotActiveValidator,
		env.engine.CastVote(env.signedVote(t, outsider, roundID, true)))

	// Tampered support flips the sign bytes.
	vote := env.signedVote(t, pv, roundID, true)
	vote.Support = false
	assert.Equal(t, ErrInvalidSignature, env.engine.CastVote(vote))

	// Signature from a different round does not replay.
	other := env.signedVote(t, pv, roundID, true)
	wrong := env.signedVote(t, pv, 2, true)
	other.Signature = wrong.Signature
	assert.Equal(t, ErrInvalidSignature, env.engine.CastVote(other))

	require.NoError(t, env.engine.CastVote(env.signedVote(t, pv, roundID, true)))
	assert.Equal(t, ErrAlreadyVoted,
		env.engine.CastVote(env.signedVote(t, pv, roundID, false)))
	assert.True(t, env.engine.HasVoted(roundID, pv.GetAddress()))

	env.clk.AdvanceHeight(11)
	assert.Equal(t, ErrVotingPeriodEnded,
		env.engine.CastVote(env.signedVote(t, env.voters[1], roundID, true)))
}

// TestEligibilityAtFinalization covers a voter leaving the active set
// mid-round: the cast vote stands, a second vote is still refused, and the
// denominator reflects the set at finalization.
func TestEligibilityAtFinalization(t *testing.T) {
	env := newEngineEnv(t, 5)
	roundID, err := env.engine.Initiate(env.initiator, 1)
	require.NoError(t, err)

	leaver := env.voters[0]
	require.NoError(t, env.engine.CastVote(env.signedVote(t, leaver, roundID, true)))
	require.NoError(t, env.engine.CastVote(env.signedVote(t, env.voters[1], roundID, true)))
	require.NoError(t, env.engine.CastVote(env.signedVote(t, env.voters[2], roundID, true)))

	env.valset.deactivate(leaver.GetAddress())

	assert.Equal(t, ErrAlreadyVoted,
		env.engine.CastVote(env.signedVote(t, leaver, roundID, false)))

	env.clk.AdvanceHeight(11)
	approved, err := env.engine.Finalize(roundID)
	require.NoError(t, err)

	// 3*100 >= 60*4: the denominator is 4, not the 5 present at initiation.
	assert.True(t, approved)
	round, err := env.engine.Round(roundID)
	require.NoError(t, err)
	assert.Equal(t, 4, round.EligibleAtFinalize)
}

// TestQuorumMonotonic checks that adding support votes never flips an
// approved outcome back to rejected for a fixed denominator.
func TestQuorumMonotonic(t *testing.T) {
	for eligible := 0; eligible <= 25; eligible++ {
		prev := false
		for votesFor := uint64(0); votesFor <= uint64(eligible); votesFor++ {
			got := quorumReached(votesFor, 60, eligible)
			if prev {
				assert.True(t, got,
					"eligible=%d votesFor=%d flipped back", eligible, votesFor)
			}
			prev = got
		}
	}
}
