package consensus

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

func newConsensusMetric() *consensusMetric {
	return &consensusMetric{LastRound: 0, LastApproved: false}
}

type consensusMetric struct {
	mtx sync.Mutex

	OpenRounds      int    `json:"open_rounds"`
	LastRound       uint64 `json:"last_round"`
	LastProposal    uint64 `json:"last_proposal"`
	LastEndHeight   int64  `json:"last_end_height"`
	LastApproved    bool   `json:"last_approved"`
	FinalizedRounds int    `json:"finalized_rounds"`
}

func (cm *consensusMetric) JSONString() string {
	cm.mtx.Lock()
	defer cm.mtx.Unlock()
	s, _ := jsoniter.MarshalToString(cm)
	return s
}

func (cm *consensusMetric) MarkRoundStarted(round, proposal uint64, endHeight int64) {
	cm.mtx.Lock()
	cm.OpenRounds++
	cm.LastRound = round
	cm.LastProposal = proposal
	cm.LastEndHeight = endHeight
	cm.mtx.Unlock()
}

func (cm *consensusMetric) MarkRoundFinalized(round uint64, approved bool) {
	cm.mtx.Lock()
	cm.OpenRounds--
	cm.LastRound = round
	cm.LastApproved = approved
	cm.FinalizedRounds++
	cm.mtx.Unlock()
}
