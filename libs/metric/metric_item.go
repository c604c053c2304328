package metric

// MetricItem is implemented once per component; JSONString renders the
// component's current counters as a JSON object.
type MetricItem interface {
	JSONString() string
}

type mockMetricItem struct {
	name string
}

func (mock *mockMetricItem) JSONString() string {
	return mock.name
}
