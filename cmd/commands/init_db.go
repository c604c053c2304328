package commands

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"

	"optibft/ledger"
	"optibft/privval"
	"optibft/types"
)

var initBalance uint64

func init() {
	InitDBCmd.Flags().Uint64Var(&initBalance, "balance", 1_000_000, "amount minted to each account")
}

// InitDBCmd seeds the ledger database with funded accounts. With no
// arguments it funds this node's own validator address; otherwise each
// argument is a hex address to fund.
var InitDBCmd = &cobra.Command{
	Use:     "init-db [address...]",
	Aliases: []string{"init_db", "initdb"},
	Short:   "Seed the ledger database with funded accounts",
	PreRun:  deprecateSnakeCase,
	RunE:    initDB,
}

func initDB(cmd *cobra.Command, args []string) error {
	if initBalance == 0 {
		return errors.New("balance must be positive")
	}

	var addrs []types.Address
	if len(args) == 0 {
		keyFile := privValKeyFilePath()
		if !tmos.FileExists(keyFile) {
			return errors.Errorf("no private validator key at %s, run init first", keyFile)
		}
		addrs = append(addrs, privval.LoadFilePV(keyFile).GetAddress())
	}
	for _, arg := range args {
		bz, err := hex.DecodeString(arg)
		if err != nil {
			return errors.Wrapf(err, "address %q is not hex", arg)
		}
		addrs = append(addrs, types.Address(bz))
	}

	bank, err := ledger.NewKVBank("ledger", config.DBDir, logger.With("module", "ledger"))
	if err != nil {
		return err
	}
	defer bank.Close()

	for _, addr := range addrs {
		if err := bank.Mint(addr, initBalance); err != nil {
			return errors.Wrapf(err, "funding %v", addr)
		}
		logger.Info("Funded account", "address", addr, "balance", initBalance)
	}
	return nil
}
