package playout

import (
	"errors"
	"fmt"
)

// FailureKind 指令失败的机器可读分类
type FailureKind string

const (
	// ExclusivityViolation 同一演播室已有其他播出单处于激活状态
	ExclusivityViolation FailureKind = "ExclusivityViolation"
	// Inactive 操作要求播出单处于激活状态
	Inactive FailureKind = "Inactive"
	// NoNextPart 没有可切换的下一条
	NoNextPart FailureKind = "NoNextPart"
	// StaleRequest 乐观并发检查失败，请求基于过期状态
	StaleRequest FailureKind = "StaleRequest"
	// NotFound 未知的播出单/段落/Part
	NotFound FailureKind = "NotFound"
	// PersistenceFailure 存储提交失败，操作整体回滚
	PersistenceFailure FailureKind = "PersistenceFailure"
	// SideEffectFailure 时间线生成或扩展钩子失败，仅记录不影响结果
	SideEffectFailure FailureKind = "SideEffectFailure"
)

// Failure 带分类的指令失败
type Failure struct {
	Kind    FailureKind
	Message string
	cause   error
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.cause
}

// NewFailure 创建一个指令失败
func NewFailure(kind FailureKind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapFailure 包装底层错误为指令失败
func WrapFailure(kind FailureKind, err error, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), cause: err}
}

// KindOf 提取错误的失败分类；非 Failure 错误归类为 PersistenceFailure
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return PersistenceFailure
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind FailureKind) bool {
	return err != nil && KindOf(err) == kind
}
