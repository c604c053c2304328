package rpc

import (
	"optibft/consensus"
	"optibft/dispute"
	"optibft/libs/metric"
	"optibft/proposal"
	"optibft/valset"
)

var env *Environment

func SetEnvironment(e *Environment) {
	env = e
}

type Environment struct {
	Validators *valset.ValidatorSet
	Proposals  *proposal.Lifecycle
	Consensus  *consensus.Engine
	Disputes   *dispute.Resolver

	MetricSet *metric.MetricSet
}
