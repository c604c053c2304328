package node

import (
	"github.com/tendermint/tendermint/crypto/tmhash"

	"optibft/oracle"
	"optibft/types"
)

// custodyAddress derives a deterministic ledger address for a named
// internal account. No key exists for these addresses; the components
// holding the corresponding custody handle are their only spenders.
func custodyAddress(name string) types.Address {
	return types.Address(tmhash.SumTruncated([]byte(name)))
}

func defaultOracle() oracle.ValidityOracle {
	return oracle.NewHashRuleOracle()
}
