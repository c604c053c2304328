package node

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/go-kit/kit/log/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/crypto/tmhash"
	"github.com/tendermint/tendermint/libs/log"

	"optibft/ledger"
	"optibft/proposal"
	"optibft/types"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RPCListenAddress = "" // no server in tests
	cfg.HeightInterval = 10 * time.Millisecond
	cfg.Params.MinimumStake = 1000
	cfg.Params.ActiveValidatorLimit = 5
	cfg.Params.ChallengeWindow = 10
	cfg.Params.VotingPeriod = 10
	cfg.Params.QuorumPercent = 60
	cfg.Params.DisputeVotingPeriod = 50 * time.Millisecond
	cfg.Params.MinimumChallengeStake = 100
	cfg.Params.SlashPercent = 10
	return cfg
}

// nodeLogger colors log lines by originating module.
func nodeLogger() log.Logger {
	return log.TestingLoggerWithColorFn(func(keyvals ...interface{}) term.FgBgColor {
		for i := 0; i < len(keyvals)-1; i += 2 {
			if keyvals[i] == "module" && keyvals[i+1] == "dispute" {
				return term.FgBgColor{Fg: term.Yellow}
			}
		}
		return term.FgBgColor{}
	})
}

func startTestNode(t *testing.T, cfg Config) *Node {
	t.Helper()
	logger := log.NewFilter(nodeLogger(), log.AllowInfo())

	n, err := NewNode(cfg, ledger.NewMemBank(), proposal.NopStore{}, logger)
	require.NoError(t, err)
	require.NoError(t, n.Start())
	t.Cleanup(func() {
		if err := n.Stop(); err != nil {
			t.Logf("stopping node: %v", err)
		}
	})
	return n
}

// fundValidator registers a funded validator with both custody accounts
// pre-approved, returning its signer.
func fundValidator(t *testing.T, n *Node, stake uint64) types.PrivValidator {
	t.Helper()
	pv := types.NewMockPV()
	addr := pv.GetAddress()
	pubKey, err := pv.GetPubKey()
	require.NoError(t, err)

	require.NoError(t, n.Bank().Mint(addr, stake*10))
	require.NoError(t, n.Bank().Approve(addr, custodyAddress(valsetCustodyName), stake*10))
	require.NoError(t, n.Bank().Approve(addr, custodyAddress(disputeCustodyName), stake*10))
	require.NoError(t, n.Validators().Register(pubKey, stake))
	return pv
}

// waitForHeight blocks until the node's clock passes h.
func waitForHeight(t *testing.T, n *Node, h int64) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		if n.Clock().Height() > h {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("height never passed %d (now %d)", h, n.Clock().Height())
}

func TestNodeStartStop(t *testing.T) {
	defer leaktest.CheckTimeout(t, 10*time.Second)()

	n := startTestNode(t, testConfig())
	require.True(t, n.IsRunning())
	require.NoError(t, n.Stop())
}

// TestUnchallengedFlow is the optimistic happy path: five validators,
// a proposal, approval, a quiet challenge window, finalization. No round
// ever exists.
func TestUnchallengedFlow(t *testing.T) {
	n := startTestNode(t, testConfig())

	var pvs []types.PrivValidator
	for _, stake := range []uint64{3000, 2500, 2000, 1500, 1000} {
		pvs = append(pvs, fundValidator(t, n, stake))
	}
	require.Equal(t, 5, n.Validators().ActiveCount())

	top := n.Validators().TopValidators(5)
	assert.Equal(t, uint64(3000), top[0].StakedAmount)
	assert.Equal(t, uint64(1000), top[4].StakedAmount)

	id, err := n.Proposals().Create(pvs[0].GetAddress(),
		tmhash.Sum([]byte("payload")), "release v1")
	require.NoError(t, err)
	require.NoError(t, n.ApproveProposal(id))

	p, err := n.Proposals().Proposal(id)
	require.NoError(t, err)
	waitForHeight(t, n, p.ChallengeWindowEnd)

	require.NoError(t, n.FinalizeProposal(id))

	p, err = n.Proposals().Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateFinalized, p.State)

	_, ok := n.Engine().OpenRound(id)
	assert.False(t, ok, "no round for an unchallenged proposal")
}

// TestChallengedConsensusFlow runs the full challenge path: a proposal is
// challenged, a round opens, 3 of 5 support at 60% quorum, and the
// approval lands back on the proposal.
func TestChallengedConsensusFlow(t *testing.T) {
	n := startTestNode(t, testConfig())

	var pvs []types.PrivValidator
	for i := 0; i < 5; i++ {
		pvs = append(pvs, fundValidator(t, n, 2000))
	}

	id, err := n.Proposals().Create(pvs[0].GetAddress(),
		tmhash.Sum([]byte("payload")), "release v2")
	require.NoError(t, err)
	require.NoError(t, n.ApproveProposal(id))
	require.NoError(t, n.Proposals().Challenge(id, pvs[1].GetAddress()))

	roundID, err := n.StartConsensus(id)
	require.NoError(t, err)

	for i, pv := range pvs {
		vote := &types.ConsensusVote{
			RoundID:   roundID,
			Voter:     pv.GetAddress(),
			Support:   i < 3,
			Timestamp: time.Now(),
		}
		require.NoError(t, pv.SignConsensusVote(n.config.ChainID, engineID, vote))
		require.NoError(t, n.Engine().CastVote(vote))
	}

	round, err := n.Engine().Round(roundID)
	require.NoError(t, err)
	waitForHeight(t, n, round.EndHeight)

	approved, err := n.FinalizeConsensus(roundID)
	require.NoError(t, err)
	assert.True(t, approved)

	p, err := n.Proposals().Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateFinalized, p.State)
}

// TestDisputeFlow exercises the staked path end to end: dispute created,
// upheld by vote, proposer slashed, challenger refunded, proposal
// rejected.
func TestDisputeFlow(t *testing.T) {
	n := startTestNode(t, testConfig())

	var pvs []types.PrivValidator
	for i := 0; i < 5; i++ {
		pvs = append(pvs, fundValidator(t, n, 2000))
	}
	proposer := pvs[0]
	challenger := pvs[1]

	id, err := n.Proposals().Create(proposer.GetAddress(),
		tmhash.Sum([]byte("payload")), "release v3")
	require.NoError(t, err)
	require.NoError(t, n.ApproveProposal(id))

	balBefore := n.Bank().BalanceOf(challenger.GetAddress())

	disputeID, err := n.Disputes().CreateDispute(challenger.GetAddress(), id, 200)
	require.NoError(t, err)

	p, err := n.Proposals().Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateChallenged, p.State)

	for i, pv := range pvs {
		vote := &types.DisputeVote{
			DisputeID:        disputeID,
			Voter:            pv.GetAddress(),
			SupportChallenge: i < 3,
			Timestamp:        time.Now(),
		}
		require.NoError(t, pv.SignDisputeVote(n.config.ChainID, resolverID, vote))
		require.NoError(t, n.Disputes().VoteOnDispute(vote))
	}

	time.Sleep(n.config.Params.DisputeVotingPeriod + 50*time.Millisecond)

	challengerWon, err := n.Disputes().ResolveDispute(disputeID)
	require.NoError(t, err)
	assert.True(t, challengerWon)

	// The challenger's 200 came back in full.
	assert.Equal(t, balBefore, n.Bank().BalanceOf(challenger.GetAddress()))

	// The proposer lost 10% of the challenge stake.
	val, err := n.Validators().Validator(proposer.GetAddress())
	require.NoError(t, err)
	assert.Equal(t, uint64(20), val.TotalSlashed)
	assert.Equal(t, uint64(1980), val.StakedAmount)

	p, err = n.Proposals().Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateRejected, p.State)
}

func TestAdminOperations(t *testing.T) {
	n := startTestNode(t, testConfig())

	for i := 0; i < 5; i++ {
		fundValidator(t, n, 2000)
	}
	require.Equal(t, 5, n.Validators().ActiveCount())

	require.NoError(t, n.SetActiveValidatorLimit(3))
	assert.Equal(t, 3, n.Validators().ActiveCount())
}
