package metrics

// 分片事件指标名
const (
	MetricEventsTotal          = "shardkit_events_total"
	MetricEventDurationSeconds = "shardkit_event_duration_seconds"
)

// 标签键
const (
	LabelFamily  = "family"
	LabelPhase   = "phase"
	LabelOutcome = "outcome"
)

// 结果取值
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var defaultDurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Outcome 把错误映射为 outcome 标签值
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
