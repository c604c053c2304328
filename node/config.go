package node

import (
	"errors"
	"time"

	"optibft/types"
)

// Config collects everything a node needs beyond the protocol params.
type Config struct {
	// ChainID is the chain identity baked into every vote signature.
	ChainID string `mapstructure:"chain_id"`

	// RPCListenAddress is the tcp address the jsonrpc server binds,
	// e.g. "tcp://127.0.0.1:26657". Empty disables the server.
	RPCListenAddress string `mapstructure:"rpc_laddr"`

	// DBDir is where the ledger and proposal stores live. Empty keeps
	// everything in memory.
	DBDir string `mapstructure:"db_dir"`

	// HeightInterval is the wall-clock length of one height tick.
	HeightInterval time.Duration `mapstructure:"height_interval"`

	Params types.Params `mapstructure:"params"`
}

func DefaultConfig() Config {
	return Config{
		ChainID:          "optibft-dev",
		RPCListenAddress: "tcp://127.0.0.1:26657",
		DBDir:            "",
		HeightInterval:   time.Second,
		Params:           types.DefaultParams(),
	}
}

func (cfg Config) ValidateBasic() error {
	if cfg.ChainID == "" {
		return errors.New("chain id must not be empty")
	}
	if cfg.HeightInterval <= 0 {
		return errors.New("height interval must be positive")
	}
	return cfg.Params.ValidateBasic()
}
