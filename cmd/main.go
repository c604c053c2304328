package main

import (
	"os"
	"path/filepath"

	"github.com/tendermint/tendermint/libs/cli"

	cmd "optibft/cmd/commands"
	"optibft/node"
)

func main() {
	rootCmd := cmd.RootCmd
	rootCmd.AddCommand(
		cmd.InitFilesCmd,
		cmd.GenValidatorCmd,
		cmd.ShowValidatorCmd,
		cmd.InitDBCmd,
		cmd.VersionCmd,
		cmd.NewRunNodeCmd(node.DefaultNewNode),
		cli.NewCompletionCmd(rootCmd, true),
	)

	baseCmd := cli.PrepareBaseCmd(rootCmd, "OPTIBFT",
		os.ExpandEnv(filepath.Join("$HOME", ".optibft")))
	if err := baseCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
