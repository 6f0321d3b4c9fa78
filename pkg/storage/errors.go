package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

// FailureReason 写入失败原因分类（对外导出）
type FailureReason string

const (
	ReasonConnection FailureReason = "connection" // 连接不可用或中断
	ReasonConstraint FailureReason = "constraint" // 约束冲突
	ReasonSchema     FailureReason = "schema"     // 表或列不存在、类型不匹配
	ReasonUnknown    FailureReason = "unknown"
)

// WriteError 批量写入失败（对外导出）
// RowsCommitted为失败前已提交的行数，Batch为失败批次序号（从1开始，0表示写入前阶段）
type WriteError struct {
	Table         string
	Reason        FailureReason
	Batch         int
	RowsCommitted int
	Err           error
}

func (e *WriteError) Error() string {
	if e.Batch > 0 {
		return fmt.Sprintf("写入表 %s 失败（%s，第%d批，已提交%d行）: %v", e.Table, e.Reason, e.Batch, e.RowsCommitted, e.Err)
	}
	return fmt.Sprintf("写入表 %s 失败（%s）: %v", e.Table, e.Reason, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func newWriteError(d Dialect, table string, batch, committed int, err error) *WriteError {
	return &WriteError{
		Table:         table,
		Reason:        classify(d, err),
		Batch:         batch,
		RowsCommitted: committed,
		Err:           err,
	}
}

// classify 先处理与驱动无关的连接类错误，其余交给方言
func classify(d Dialect, err error) FailureReason {
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr):
		return ReasonConnection
	}
	if d == nil {
		return ReasonUnknown
	}
	return d.ClassifyError(err)
}
