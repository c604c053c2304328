package privval

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optibft/types"
)

func tempKeyPath(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "privval_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "priv_validator_key.json")
}

func TestGenLoadFilePV(t *testing.T) {
	path := tempKeyPath(t)

	pv := GenFilePV(path)
	pv.Save()

	loaded := LoadFilePV(path)
	assert.True(t, loaded.GetAddress().Equal(pv.GetAddress()))

	pubKey, err := loaded.GetPubKey()
	require.NoError(t, err)
	assert.True(t, loaded.GetAddress().Equal(types.GetAddress(pubKey)))
}

func TestLoadOrGenFilePV(t *testing.T) {
	path := tempKeyPath(t)

	first := LoadOrGenFilePV(path)
	second := LoadOrGenFilePV(path)
	assert.True(t, first.GetAddress().Equal(second.GetAddress()),
		"second call must load, not regenerate")
}

func TestFilePVSignsVerifiably(t *testing.T) {
	path := tempKeyPath(t)
	pv := GenFilePV(path)
	pubKey, err := pv.GetPubKey()
	require.NoError(t, err)

	cv := &types.ConsensusVote{
		RoundID:   3,
		Voter:     pv.GetAddress(),
		Support:   true,
		Timestamp: time.Now(),
	}
	require.NoError(t, pv.SignConsensusVote("chain", "engine", cv))
	assert.True(t, pubKey.VerifySignature(
		types.ConsensusVoteSignBytes("chain", "engine", cv), cv.Signature))

	dv := &types.DisputeVote{
		DisputeID:        4,
		Voter:            pv.GetAddress(),
		SupportChallenge: false,
		Timestamp:        time.Now(),
	}
	require.NoError(t, pv.SignDisputeVote("chain", "resolver", dv))
	assert.True(t, pubKey.VerifySignature(
		types.DisputeVoteSignBytes("chain", "resolver", dv), dv.Signature))

	// The two tags never cross-verify.
	assert.False(t, pubKey.VerifySignature(
		types.DisputeVoteSignBytes("chain", "engine", dv), cv.Signature))
}
