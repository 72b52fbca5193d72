package trace

// 组件名，作为 component 属性写入所有分片相关的 Span
const ComponentName = "Sharding-Sphere"

// 各事件族的 Span 名称
const (
	SpanNameRootInvoke      = "/" + ComponentName + "/rootInvoke/"
	SpanNameParseSQL        = "/" + ComponentName + "/parseSQL/"
	SpanNameCloseConnection = "/" + ComponentName + "/closeConnection/"
)

// Span 属性键
const (
	AttrComponent    = "component"
	AttrSpanKind     = "span.kind"
	AttrDBStatement  = "db.statement"
	AttrDBInstance   = "db.instance"
	AttrConnectionID = "connection.id"
	AttrOperation    = "shardkit.operation"
)

// SpanKindClient span.kind 属性的取值
const SpanKindClient = "client"

// TracerName 默认的 Tracer 名称
const TracerName = "github.com/ceyewan/shardkit"
