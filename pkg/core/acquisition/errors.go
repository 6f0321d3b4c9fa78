package acquisition

import (
	"errors"
	"fmt"
)

// ErrorKind 采集失败类型（对外导出）
type ErrorKind string

const (
	KindNotFound       ErrorKind = "NotFound"       // 数据源未注册
	KindTimeout        ErrorKind = "Timeout"        // 远程调用超时
	KindCallFailed     ErrorKind = "CallFailed"     // 远程调用报错
	KindEmpty          ErrorKind = "Empty"          // 返回空数据（仅用于强制非空的调用方）
	KindWriteFailed    ErrorKind = "WriteFailed"    // 写入存储失败
	KindInvalidRequest ErrorKind = "InvalidRequest" // 请求参数不合法
)

// AcquisitionError 采集失败（对外导出）
// State为失败时所处的终止状态
type AcquisitionError struct {
	Kind   ErrorKind
	State  State
	Source string
	Table  string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("采集 %s -> %s 失败（%s）: %v", e.Source, e.Table, e.Kind, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// KindOf 返回错误的采集失败类型，非AcquisitionError返回空字符串（对外导出）
func KindOf(err error) ErrorKind {
	var aErr *AcquisitionError
	if errors.As(err, &aErr) {
		return aErr.Kind
	}
	return ""
}

// IsRetryable 超时和调用失败可以重试，其余类型不可重试（对外导出）
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindCallFailed:
		return true
	}
	return false
}
