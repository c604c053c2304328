package proposal

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

func newProposalMetric() *proposalMetric {
	return &proposalMetric{}
}

type proposalMetric struct {
	mtx sync.Mutex

	ProposalCount  int `json:"proposal_count"`
	ChallengedNow  int `json:"challenged_now"`
	FinalizedTotal int `json:"finalized_total"`
}

func (pm *proposalMetric) JSONString() string {
	pm.mtx.Lock()
	defer pm.mtx.Unlock()
	s, _ := jsoniter.MarshalToString(pm)
	return s
}

func (pm *proposalMetric) MarkCreated(total int) {
	pm.mtx.Lock()
	pm.ProposalCount = total
	pm.mtx.Unlock()
}

func (pm *proposalMetric) MarkStates(total, challenged, finalized int) {
	pm.mtx.Lock()
	pm.ProposalCount = total
	pm.ChallengedNow = challenged
	pm.FinalizedTotal = finalized
	pm.mtx.Unlock()
}
