package commands

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmos "github.com/tendermint/tendermint/libs/os"

	"optibft/privval"
)

// ShowValidatorCmd prints this node's validator address and public key.
var ShowValidatorCmd = &cobra.Command{
	Use:     "show-validator",
	Aliases: []string{"show_validator"},
	Short:   "Show this node's validator address and public key",
	PreRun:  deprecateSnakeCase,
	RunE:    showValidator,
}

func showValidator(cmd *cobra.Command, args []string) error {
	keyFile := privValKeyFilePath()
	if !tmos.FileExists(keyFile) {
		return errors.Errorf("no private validator key at %s, run init first", keyFile)
	}

	pv := privval.LoadFilePV(keyFile)
	pubKey, err := pv.GetPubKey()
	if err != nil {
		return errors.Wrap(err, "reading pubkey")
	}

	bz, err := tmjson.MarshalIndent(struct {
		Address string `json:"address"`
		PubKey  string `json:"pub_key"`
	}{pv.GetAddress().String(), fmt.Sprintf("%X", pubKey.Bytes())}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bz))
	return nil
}
