package executor

import (
	"time"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// Status 远程调用结果状态（对外导出）
type Status string

const (
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
	StatusTimeout Status = "Timeout"
)

// Outcome 一次远程调用的结果（对外导出）
// 每次Call只产生一个Outcome，执行器内部不重试
type Outcome struct {
	Status   Status
	Result   *tabular.Result // Success时有效
	Message  string          // Error/Timeout时的说明
	Err      error           // Error时的原始错误
	Duration time.Duration
	Cached   bool // 结果来自缓存
}

// OK 是否成功
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}
