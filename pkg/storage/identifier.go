package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidIdentifier 表名或列名不合法（对外导出）
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateIdentifier 校验SQL标识符（对外导出）
// 去除首尾空白后只允许ASCII字母、数字和下划线，返回清理后的名称
func ValidateIdentifier(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if !identifierPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return trimmed, nil
}

// IsValidIdentifier 判断标识符是否合法
func IsValidIdentifier(name string) bool {
	_, err := ValidateIdentifier(name)
	return err == nil
}
