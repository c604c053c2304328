package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmos "github.com/tendermint/tendermint/libs/os"

	"optibft/privval"
)

// GenValidatorCmd generates the node's signing keypair.
var GenValidatorCmd = &cobra.Command{
	Use:     "gen-validator",
	Aliases: []string{"gen_validator"},
	Short:   "Generate a new validator keypair",
	PreRun:  deprecateSnakeCase,
	RunE:    genValidator,
}

func genValidator(cmd *cobra.Command, args []string) error {
	keyFile := privValKeyFilePath()
	if tmos.FileExists(keyFile) {
		return fmt.Errorf("private validator key at %s already exists", keyFile)
	}

	pv := privval.GenFilePV(keyFile)
	pv.Save()

	bz, err := tmjson.MarshalIndent(pv.Key, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bz))
	return nil
}
