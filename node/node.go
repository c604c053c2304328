package node

import (
	"fmt"
	"net"
	"net/http"

	"github.com/tendermint/tendermint/libs/events"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
	rpcserver "github.com/tendermint/tendermint/rpc/jsonrpc/server"

	"optibft/clock"
	"optibft/consensus"
	"optibft/dispute"
	"optibft/ledger"
	"optibft/libs/metric"
	"optibft/proposal"
	"optibft/rpc"
	"optibft/types"
	"optibft/valset"
)

const (
	engineID   = "engine-0"
	resolverID = "resolver-0"

	// custody account names, hashed into ledger addresses
	valsetCustodyName  = "valset-custody"
	disputeCustodyName = "dispute-custody"
)

type Provider func(Config, log.Logger) (*Node, error)

// Node wires the four components together and owns every capability
// token: the approver, initiator, slasher and admin authorities never
// leave this struct. External callers act through the Node's methods or
// the read-only rpc routes.
type Node struct {
	service.BaseService

	config Config

	evsw  events.EventSwitch
	clock *clock.IntervalClock

	bank       ledger.Bank
	validators *valset.ValidatorSet
	proposals  *proposal.Lifecycle
	engine     *consensus.Engine
	disputes   *dispute.Resolver

	approver  *types.Authority
	initiator *types.Authority
	slasher   *types.Authority
	admin     *types.Authority

	metricSet *metric.MetricSet

	rpcListeners []net.Listener
}

type Option func(*Node)

// DefaultNewNode builds a node with an in-memory bank when no DBDir is
// configured, a leveldb-backed one otherwise.
func DefaultNewNode(config Config, logger log.Logger) (*Node, error) {
	var (
		bank  ledger.Bank
		store proposal.Store
		err   error
	)
	if config.DBDir == "" {
		bank = ledger.NewMemBank()
		store = proposal.NopStore{}
	} else {
		bank, err = ledger.NewKVBank("ledger", config.DBDir, logger.With("module", "ledger"))
		if err != nil {
			return nil, err
		}
		store, err = proposal.NewKVStore("proposals", config.DBDir, logger.With("module", "proposal"))
		if err != nil {
			return nil, err
		}
	}
	return NewNode(config, bank, store, logger)
}

func NewNode(config Config, bank ledger.Bank, store proposal.Store, logger log.Logger, options ...Option) (*Node, error) {
	if err := config.ValidateBasic(); err != nil {
		return nil, err
	}

	evsw := events.NewEventSwitch()
	evsw.SetLogger(logger.With("module", "events"))

	clk := clock.NewIntervalClock(1, config.HeightInterval)
	clk.SetLogger(logger.With("module", "clock"))

	approver := types.NewAuthority("approver")
	initiator := types.NewAuthority("initiator")
	slasher := types.NewAuthority("slasher")
	admin := types.NewAuthority("admin")

	vals := valset.NewValidatorSet(config.Params,
		ledger.NewCustody(bank, custodyAddress(valsetCustodyName)),
		clk, slasher, admin)
	vals.SetLogger(logger.With("module", "valset"))
	vals.SetEventSwitch(evsw)

	props := proposal.NewLifecycle(config.Params, clk,
		defaultOracle(), vals, approver, store)
	props.SetLogger(logger.With("module", "proposal"))
	props.SetEventSwitch(evsw)

	engine := consensus.NewEngine(config.Params, clk, vals, initiator,
		config.ChainID, engineID)
	engine.SetLogger(logger.With("module", "consensus"))
	engine.SetEventSwitch(evsw)

	node := &Node{
		config:     config,
		evsw:       evsw,
		clock:      clk,
		bank:       bank,
		validators: vals,
		proposals:  props,
		engine:     engine,
		approver:   approver,
		initiator:  initiator,
		slasher:    slasher,
		admin:      admin,
		metricSet:  metric.NewMetricSet(),
	}

	node.disputes = dispute.NewResolver(config.Params, clk,
		ledger.NewCustody(bank, custodyAddress(disputeCustodyName)),
		vals, (*proposalHook)(node), slasher, admin,
		config.ChainID, resolverID)
	node.disputes.SetLogger(logger.With("module", "dispute"))
	node.disputes.SetEventSwitch(evsw)

	node.registerMetrics()
	node.subscribeEventLog(logger.With("module", "events"))

	node.BaseService = *service.NewBaseService(logger, "Node", node)
	for _, option := range options {
		option(node)
	}
	return node, nil
}

func (n *Node) OnStart() error {
	if err := n.evsw.Start(); err != nil {
		return err
	}
	if err := n.clock.Start(); err != nil {
		return err
	}
	if n.config.RPCListenAddress != "" {
		if err := n.startRPC(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) OnStop() {
	for _, l := range n.rpcListeners {
		if err := l.Close(); err != nil {
			n.Logger.Error("error closing rpc listener", "err", err)
		}
	}
	if err := n.clock.Stop(); err != nil {
		n.Logger.Error("error stopping clock", "err", err)
	}
	if err := n.evsw.Stop(); err != nil {
		n.Logger.Error("error stopping event switch", "err", err)
	}
}

//----------------------------------------
// accessors

func (n *Node) Validators() *valset.ValidatorSet { return n.validators }
func (n *Node) Proposals() *proposal.Lifecycle   { return n.proposals }
func (n *Node) Engine() *consensus.Engine        { return n.engine }
func (n *Node) Disputes() *dispute.Resolver      { return n.disputes }
func (n *Node) Bank() ledger.Bank                { return n.bank }
func (n *Node) Clock() clock.Clock               { return n.clock }
func (n *Node) EventSwitch() events.EventSwitch  { return n.evsw }
func (n *Node) MetricSet() *metric.MetricSet     { return n.metricSet }

//----------------------------------------
// capability-gated operations

// ApproveProposal optimistically approves a proposal with the node's
// approver authority.
func (n *Node) ApproveProposal(id uint64) error {
	return n.proposals.Approve(n.approver, id)
}

// RejectProposal rejects a pending proposal.
func (n *Node) RejectProposal(id uint64) error {
	return n.proposals.Reject(n.approver, id)
}

// FinalizeProposal completes an unchallenged proposal after its window.
func (n *Node) FinalizeProposal(id uint64) error {
	return n.proposals.Finalize(n.approver, id)
}

// StartConsensus opens a voting round over a challenged proposal.
func (n *Node) StartConsensus(proposalID uint64) (uint64, error) {
	return n.engine.Initiate(n.initiator, proposalID)
}

// FinalizeConsensus closes the round and routes the outcome into the
// proposal lifecycle.
func (n *Node) FinalizeConsensus(roundID uint64) (bool, error) {
	approved, err := n.engine.Finalize(roundID)
	if err != nil {
		return false, err
	}
	round, err := n.engine.Round(roundID)
	if err != nil {
		return approved, err
	}
	if err := n.proposals.ApplyResolution(n.approver, round.ProposalID, approved); err != nil {
		return approved, fmt.Errorf("round finalized but proposal not settled: %w", err)
	}
	return approved, nil
}

// SetActiveValidatorLimit adjusts the active-set bound with the node's
// admin authority.
func (n *Node) SetActiveValidatorLimit(limit int) error {
	return n.validators.SetActiveValidatorLimit(n.admin, limit)
}

// CancelDispute aborts a dispute with the node's admin authority.
func (n *Node) CancelDispute(disputeID uint64, reason string) error {
	return n.disputes.CancelDispute(n.admin, disputeID, reason)
}

//----------------------------------------
// dispute -> proposal bridge

// proposalHook lends the resolver exactly the three proposal touches it
// needs, exercising the node's approver authority on its behalf.
type proposalHook Node

func (h *proposalHook) Snapshot(id uint64) (*types.Proposal, error) {
	return h.proposals.Proposal(id)
}

func (h *proposalHook) MarkChallenged(id uint64, challenger types.Address) error {
	return h.proposals.Challenge(id, challenger)
}

func (h *proposalHook) Resolve(id uint64, approved bool) error {
	return h.proposals.ApplyResolution(h.approver, id, approved)
}

//----------------------------------------
// internals

func (n *Node) registerMetrics() {
	// labels are unique per component; a duplicate means a programming
	// mistake, so panic early.
	for label, item := range map[string]metric.MetricItem{
		valset.MetricLabel:    n.validators.Metric(),
		proposal.MetricLabel:  n.proposals.Metric(),
		consensus.MetricLabel: n.engine.Metric(),
		dispute.MetricLabel:   n.disputes.Metric(),
	} {
		if err := n.metricSet.SetMetrics(label, item); err != nil {
			panic(err)
		}
	}
}

// subscribeEventLog mirrors every protocol event into the debug log.
func (n *Node) subscribeEventLog(logger log.Logger) {
	for _, event := range []string{
		types.EventValidatorRegistered,
		types.EventStakeIncreased,
		types.EventUnstakeRequested,
		types.EventUnstakeCompleted,
		types.EventValidatorSlashed,
		types.EventActiveSetChanged,
		types.EventProposalCreated,
		types.EventProposalApproved,
		types.EventProposalChallenge,
		types.EventProposalFinalized,
		types.EventProposalRejected,
		types.EventRoundStarted,
		types.EventRoundVoteCast,
		types.EventRoundFinalized,
		types.EventDisputeCreated,
		types.EventDisputeVoteCast,
		types.EventDisputeResolved,
		types.EventDisputeCancelled,
	} {
		event := event
		if err := n.evsw.AddListenerForEvent("node-log", event,
			func(data events.EventData) {
				logger.Debug(event, "data", data)
			}); err != nil {
			panic(err)
		}
	}
}

func (n *Node) startRPC() error {
	rpc.SetEnvironment(&rpc.Environment{
		Validators: n.validators,
		Proposals:  n.proposals,
		Consensus:  n.engine,
		Disputes:   n.disputes,
		MetricSet:  n.metricSet,
	})

	rpcLogger := n.Logger.With("module", "rpc-server")
	mux := http.NewServeMux()
	rpcserver.RegisterRPCFuncs(mux, rpc.Routes, rpcLogger)

	config := rpcserver.DefaultConfig()
	listener, err := rpcserver.Listen(n.config.RPCListenAddress, config)
	if err != nil {
		return err
	}
	go func() {
		if err := rpcserver.Serve(listener, mux, rpcLogger, config); err != nil {
			rpcLogger.Error("rpc server stopped", "err", err)
		}
	}()
	n.rpcListeners = append(n.rpcListeners, listener)
	return nil
}
