package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/cli"
	"github.com/tendermint/tendermint/libs/log"

	"optibft/node"
)

var (
	config  = node.DefaultConfig()
	logger  = log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	verbose bool
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// homeDir is the root directory chosen through the --home flag that
// cli.PrepareBaseCmd registers.
func homeDir() string {
	return viper.GetString(cli.HomeFlag)
}

func configFilePath() string {
	return filepath.Join(homeDir(), "config", "config.json")
}

func privValKeyFilePath() string {
	return filepath.Join(homeDir(), "config", "priv_validator_key.json")
}

func dataDir() string {
	return filepath.Join(homeDir(), "data")
}

// ParseConfig loads config.json from the home directory, if present, and
// layers any matching viper keys on top of the defaults.
func ParseConfig() (node.Config, error) {
	conf := node.DefaultConfig()

	if path := configFilePath(); fileExists(path) {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return conf, errors.Wrap(err, "reading config file")
		}
	}
	if err := viper.Unmarshal(&conf); err != nil {
		return conf, errors.Wrap(err, "unmarshaling config")
	}
	if conf.DBDir == "" {
		conf.DBDir = dataDir()
	}
	if err := conf.ValidateBasic(); err != nil {
		return conf, errors.Wrap(err, "config is invalid")
	}
	return conf, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RootCmd is the root command. Every subcommand sees a parsed config and
// a leveled logger.
var RootCmd = &cobra.Command{
	Use:   "optibft",
	Short: "Optimistically approved, economically secured proposal consensus",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == VersionCmd.Name() {
			return nil
		}

		var err error
		config, err = ParseConfig()
		if err != nil {
			return err
		}

		logger = log.NewTMLogger(log.NewSyncWriter(os.Stdout))
		if verbose {
			logger = log.NewFilter(logger, log.AllowDebug())
		} else {
			logger = log.NewFilter(logger, log.AllowInfo())
		}
		logger = logger.With("module", "main")
		return nil
	},
}

// deprecateSnakeCase warns when a command is invoked through its legacy
// snake_case alias.
func deprecateSnakeCase(cmd *cobra.Command, args []string) {
	if strings.Contains(cmd.CalledAs(), "_") {
		logger.Error("deprecated command alias: snake_case commands will be removed, use hyphen-case")
	}
}
