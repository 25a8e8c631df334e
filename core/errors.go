package core

import (
	"context"
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型，UI 层只会看到它或成功值
//   - 提供错误代码（Code）和消息（Message），便于分类重试与降级
//   - 取消信号不属于领域错误，必须原样向上传播
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "TIMEOUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "remote", "feed"）
	Status  int    // 上游 HTTP 状态码，仅 UPSTREAM_STATUS 时有效
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// NewStatusError 创建上游 HTTP 状态错误（重试分类依赖 Status）。
func NewStatusError(module string, status int) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    ErrorCodeUpstreamStatus,
		Message: fmt.Sprintf("%s: upstream status %d", module, status),
		Status:  status,
	}
}

// GetDomainError 获取 DomainError（支持 %w 链），不是则返回 nil。
func GetDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound       = "NOT_FOUND"       // 资源不存在 / 缓存未命中
	ErrorCodeNotSupported   = "NOT_SUPPORTED"   // 操作不支持
	ErrorCodeUnavailable    = "UNAVAILABLE"     // 服务不可用
	ErrorCodeInvalidInput   = "INVALID_INPUT"   // 输入无效（空标识、非法区块名）
	ErrorCodeTimeout        = "TIMEOUT"         // 连接/读取超时（可重试）
	ErrorCodeUnresolvedHost = "UNRESOLVED_HOST" // DNS 解析失败（不可重试）
	ErrorCodeUpstreamStatus = "UPSTREAM_STATUS" // 上游 HTTP 状态错误
	ErrorCodeInternalError  = "INTERNAL_ERROR"  // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 缓存/存储模块
	ModuleRemote  = "remote"  // 上游音乐 API 模块
	ModuleHistory = "history" // 播放历史模块
	ModuleRegion  = "region"  // 地区解析模块
	ModuleFeed    = "feed"    // 推荐编排模块
)

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == ErrorCodeNotFound
}

// IsInvalidInput 检查错误是否为输入校验失败（快速失败，不重试、不走缓存）。
func IsInvalidInput(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == ErrorCodeInvalidInput
}

// IsTimeout 检查错误是否为超时类错误。
func IsTimeout(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == ErrorCodeTimeout
}

// IsUnresolvedHost 检查错误是否为 DNS 解析失败。
func IsUnresolvedHost(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == ErrorCodeUnresolvedHost
}

// UpstreamStatus 返回上游状态码；非状态错误返回 0。
func UpstreamStatus(err error) int {
	de := GetDomainError(err)
	if de == nil || de.Code != ErrorCodeUpstreamStatus {
		return 0
	}
	return de.Status
}

// IsCancellation 判断取消信号。取消必须向上传播，
// 任何 catch-all 都不得把它转成降级结果或领域错误。
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
