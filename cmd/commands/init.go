package commands

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"
	"github.com/tendermint/tendermint/libs/tempfile"

	"optibft/node"
	"optibft/privval"
)

// InitFilesCmd lays down a fresh home directory: a signing key and a
// default config file. Existing files are left alone.
var InitFilesCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the home directory",
	RunE:  initFiles,
}

func initFiles(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(filepath.Join(homeDir(), "config"), 0700); err != nil {
		return errors.Wrap(err, "ensuring config dir")
	}
	if err := os.MkdirAll(dataDir(), 0700); err != nil {
		return errors.Wrap(err, "ensuring data dir")
	}

	keyFile := privValKeyFilePath()
	if tmos.FileExists(keyFile) {
		logger.Info("Found private validator key", "keyFile", keyFile)
	} else {
		pv := privval.GenFilePV(keyFile)
		pv.Save()
		logger.Info("Generated private validator key", "keyFile", keyFile)
	}

	confFile := configFilePath()
	if tmos.FileExists(confFile) {
		logger.Info("Found config file", "path", confFile)
		return nil
	}
	if err := writeDefaultConfig(confFile); err != nil {
		return err
	}
	logger.Info("Generated config file", "path", confFile)
	return nil
}

// writeDefaultConfig renders the defaults with durations as strings so
// the file stays hand-editable.
func writeDefaultConfig(path string) error {
	def := node.DefaultConfig()
	doc := map[string]interface{}{
		"chain_id":        def.ChainID,
		"rpc_laddr":       def.RPCListenAddress,
		"db_dir":          "",
		"height_interval": def.HeightInterval.String(),
		"params": map[string]interface{}{
			"minimum_stake":           def.Params.MinimumStake,
			"max_validators":          def.Params.MaxValidators,
			"active_validator_limit":  def.Params.ActiveValidatorLimit,
			"bonding_period":          def.Params.BondingPeriod,
			"challenge_window":        def.Params.ChallengeWindow,
			"voting_period":           def.Params.VotingPeriod,
			"quorum_percent":          def.Params.QuorumPercent,
			"dispute_voting_period":   def.Params.DisputeVotingPeriod.String(),
			"minimum_challenge_stake": def.Params.MinimumChallengeStake,
			"slash_percent":           def.Params.SlashPercent,
			"required_approvals":      def.Params.RequiredApprovals,
		},
	}
	bz, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return tempfile.WriteFileAtomic(path, bz, 0600)
}
