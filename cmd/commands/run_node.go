package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"

	"optibft/node"
)

// NewRunNodeCmd returns the command that starts a node built by the
// given provider and blocks until it is signalled to stop.
func NewRunNodeCmd(nodeProvider node.Provider) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"node", "run"},
		Short:   "Run the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := nodeProvider(config, logger)
			if err != nil {
				return errors.Wrap(err, "failed to create node")
			}
			if err := n.Start(); err != nil {
				return errors.Wrap(err, "failed to start node")
			}
			logger.Info("Started node", "chainID", config.ChainID)

			// stop on SIGTERM or SIGINT
			tmos.TrapSignal(logger, func() {
				if n.IsRunning() {
					if err := n.Stop(); err != nil {
						logger.Error("unable to stop the node", "error", err)
					}
				}
			})

			// run forever; the signal handler exits the process
			select {}
		},
	}

	// flag names match the config keys so the viper binding set up by
	// cli.PrepareBaseCmd flows them into ParseConfig
	cmd.Flags().String("rpc_laddr",
		config.RPCListenAddress, "RPC listen address (tcp://host:port), empty to disable")
	cmd.Flags().String("chain_id",
		config.ChainID, "chain identity baked into vote signatures")
	return cmd
}
