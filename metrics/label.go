package metrics

// Label 指标标签，用于多维度分组
//
// 避免高基数的标签值（用户 ID、SQL 文本等）。
type Label struct {
	Key   string
	Value string
}

// L 简写构造函数
//
//	counter.Inc(ctx, metrics.L("family", "parsing"))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}
