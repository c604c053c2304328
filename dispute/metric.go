package dispute

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

func newDisputeMetric() *disputeMetric {
	return &disputeMetric{}
}

type disputeMetric struct {
	mtx sync.Mutex

	ActiveDisputes int    `json:"active_disputes"`
	LastDispute    uint64 `json:"last_dispute"`
	LastStake      uint64 `json:"last_stake"`
	ChallengerWins int    `json:"challenger_wins"`
	ProposerWins   int    `json:"proposer_wins"`
	CancelledTotal int    `json:"cancelled_total"`
}

func (dm *disputeMetric) JSONString() string {
	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	s, _ := jsoniter.MarshalToString(dm)
	return s
}

func (dm *disputeMetric) MarkCreated(id, stake uint64) {
	dm.mtx.Lock()
	dm.ActiveDisputes++
	dm.LastDispute = id
	dm.LastStake = stake
	dm.mtx.Unlock()
}

func (dm *disputeMetric) MarkResolved(id uint64, challengerWon bool) {
	dm.mtx.Lock()
	dm.ActiveDisputes--
	dm.LastDispute = id
	if challengerWon {
		dm.ChallengerWins++
	} else {
		dm.ProposerWins++
	}
	dm.mtx.Unlock()
}

func (dm *disputeMetric) MarkCancelled(id uint64) {
	dm.mtx.Lock()
	dm.ActiveDisputes--
	dm.LastDispute = id
	dm.CancelledTotal++
	dm.mtx.Unlock()
}
