package source

import "context"

// context key类型，用于类型安全的context.Value访问
type contextKey string

const (
	// ExecutionIDKey 执行ID在context中的key
	ExecutionIDKey contextKey = "acquisition.execution.id"
	// SourceNameKey 数据源名称在context中的key
	SourceNameKey contextKey = "acquisition.source"
)

// WithExecutionID 将执行ID添加到context中（对外导出）
func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ExecutionIDKey, id)
}

// GetExecutionID 从context中获取执行ID（对外导出）
func GetExecutionID(ctx context.Context) string {
	if id, ok := ctx.Value(ExecutionIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSourceName 将数据源名称添加到context中（对外导出）
func WithSourceName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, SourceNameKey, name)
}

// GetSourceName 从context中获取数据源名称（对外导出）
func GetSourceName(ctx context.Context) string {
	if name, ok := ctx.Value(SourceNameKey).(string); ok {
		return name
	}
	return ""
}
