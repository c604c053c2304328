package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The sign-bytes layout is a wire format: tag, chain_id, contract_id,
// ballot_id, voter, support, in that byte order, with 64-bit ints encoded
// as strings per tmjson. If this test breaks, deployed signers break.
func TestConsensusVoteSignBytesConformance(t *testing.T) {
	pv := NewMockPV()
	vote := &ConsensusVote{
		RoundID: 7,
		Voter:   pv.GetAddress(),
		Support: true,
	}

	expected := fmt.Sprintf(
		`{"tag":"optibft/consensus-vote","chain_id":"test-chain","contract_id":"engine-0","ballot_id":"7","voter":"%s","support":true}`,
		vote.Voter,
	)

	bz := ConsensusVoteSignBytes("test-chain", "engine-0", vote)
	assert.Equal(t, expected, string(bz))
}

func TestDisputeVoteSignBytesConformance(t *testing.T) {
	pv := NewMockPV()
	vote := &DisputeVote{
		DisputeID:        3,
		Voter:            pv.GetAddress(),
		SupportChallenge: false,
	}

	expected := fmt.Sprintf(
		`{"tag":"optibft/dispute-vote","chain_id":"test-chain","contract_id":"resolver-0","ballot_id":"3","voter":"%s","support":false}`,
		vote.Voter,
	)

	bz := DisputeVoteSignBytes("test-chain", "resolver-0", vote)
	assert.Equal(t, expected, string(bz))
}

// A vote signed for one (round, contract, chain) domain must not verify in
// any other.
func TestSignBytesDomainSeparation(t *testing.T) {
	pv := NewMockPV()
	vote := &ConsensusVote{RoundID: 1, Voter: pv.GetAddress(), Support: true}

	base := ConsensusVoteSignBytes("chain-a", "engine-a", vote)

	otherRound := &ConsensusVote{RoundID: 2, Voter: vote.Voter, Support: true}
	assert.NotEqual(t, base, ConsensusVoteSignBytes("chain-a", "engine-a", otherRound))
	assert.NotEqual(t, base, ConsensusVoteSignBytes("chain-b", "engine-a", vote))
	assert.NotEqual(t, base, ConsensusVoteSignBytes("chain-a", "engine-b", vote))

	// Same fields under the dispute tag are a different message entirely.
	dvote := &DisputeVote{DisputeID: 1, Voter: vote.Voter, SupportChallenge: true}
	assert.NotEqual(t, base, DisputeVoteSignBytes("chain-a", "engine-a", dvote))
}

func TestMockPVSignVerify(t *testing.T) {
	pv := NewMockPV()
	pubKey, err := pv.GetPubKey()
	require.NoError(t, err)

	vote := &ConsensusVote{RoundID: 42, Voter: pv.GetAddress(), Support: true}
	require.NoError(t, pv.SignConsensusVote("test-chain", "engine-0", vote))

	assert.True(t, pubKey.VerifySignature(
		ConsensusVoteSignBytes("test-chain", "engine-0", vote), vote.Signature))

	// Replay into another round fails verification.
	replay := &ConsensusVote{RoundID: 43, Voter: vote.Voter, Support: true, Signature: vote.Signature}
	assert.False(t, pubKey.VerifySignature(
		ConsensusVoteSignBytes("test-chain", "engine-0", replay), replay.Signature))
}
