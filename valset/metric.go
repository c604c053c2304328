package valset

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

func newValsetMetric() *valsetMetric {
	return &valsetMetric{}
}

type valsetMetric struct {
	mtx sync.Mutex

	ValidatorCount int    `json:"validator_count"`
	ActiveCount    int    `json:"active_count"`
	TotalBonded    uint64 `json:"total_bonded"`
	TotalSlashed   uint64 `json:"total_slashed"`
	ActiveLimit    int    `json:"active_limit"`
}

func (vm *valsetMetric) JSONString() string {
	vm.mtx.Lock()
	defer vm.mtx.Unlock()
	s, _ := jsoniter.MarshalToString(vm)
	return s
}

func (vm *valsetMetric) MarkCounts(validators, active int) {
	vm.mtx.Lock()
	vm.ValidatorCount = validators
	vm.ActiveCount = active
	vm.mtx.Unlock()
}

func (vm *valsetMetric) MarkBonded(total uint64) {
	vm.mtx.Lock()
	vm.TotalBonded = total
	vm.mtx.Unlock()
}

func (vm *valsetMetric) MarkSlashed(total uint64) {
	vm.mtx.Lock()
	vm.TotalSlashed = total
	vm.mtx.Unlock()
}

func (vm *valsetMetric) MarkActiveLimit(limit int) {
	vm.mtx.Lock()
	vm.ActiveLimit = limit
	vm.mtx.Unlock()
}
