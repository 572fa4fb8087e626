package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown          ErrorCode = 1000
	ErrInvalidParam     ErrorCode = 1001
	ErrNotFound         ErrorCode = 1002
	ErrAlreadyExists    ErrorCode = 1003
	ErrPermissionDenied ErrorCode = 1004
	ErrTimeout          ErrorCode = 1005
	ErrCanceled         ErrorCode = 1006

	// 游戏/会话错误 (2000-2999)
	ErrMazeNotFound     ErrorCode = 2000
	ErrMazeInactive     ErrorCode = 2001
	ErrRoomNotFound     ErrorCode = 2002
	ErrSessionNotFound  ErrorCode = 2003
	ErrSessionInactive  ErrorCode = 2004
	ErrSessionNotOwned  ErrorCode = 2005
	ErrInvalidDirection ErrorCode = 2006
	ErrNoDoor           ErrorCode = 2007
	ErrPlayerFrozen     ErrorCode = 2008
	ErrNoPortal         ErrorCode = 2009

	// 奖励错误 (3000-3999)
	ErrRewardNotFound       ErrorCode = 3000
	ErrRewardAlreadyClaimed ErrorCode = 3001
	ErrRewardExpired        ErrorCode = 3002
	ErrNoSpawnableRoom      ErrorCode = 3003

	// 陷阱错误 (4000-4999)
	ErrTrapNotFound         ErrorCode = 4000
	ErrTrapAlreadyTriggered ErrorCode = 4001
	ErrInvalidTrapType      ErrorCode = 4002

	// 房间经济错误 (4500-4999)
	ErrRoomAlreadySold     ErrorCode = 4500
	ErrInsufficientBalance ErrorCode = 4501
	ErrNotRoomOwner        ErrorCode = 4502
	ErrWallHasDoor         ErrorCode = 4503

	// 通信错误 (5000-5999)
	ErrWebSocketSend   ErrorCode = 5000
	ErrWebSocketClosed ErrorCode = 5001
	ErrMessageFormat   ErrorCode = 5002

	// 数据库错误 (6000-6999)
	ErrDatabaseConnect ErrorCode = 6000
	ErrDatabaseQuery   ErrorCode = 6001
	ErrDatabaseInsert  ErrorCode = 6002
	ErrDatabaseUpdate  ErrorCode = 6003
	ErrTransaction     ErrorCode = 6004

	// 安全错误 (7000-7999)
	ErrAuthentication ErrorCode = 7000
	ErrAuthorization  ErrorCode = 7001
	ErrTokenExpired   ErrorCode = 7002
	ErrTokenInvalid   ErrorCode = 7003

	// 用户错误 (7100-7199)
	ErrUserNotFound       ErrorCode = 7100
	ErrUserExists         ErrorCode = 7101
	ErrInvalidCredentials ErrorCode = 7102
	ErrUserBanned         ErrorCode = 7103
	ErrInvalidToken       ErrorCode = 7104
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:          "未知错误",
	ErrInvalidParam:     "无效的参数",
	ErrNotFound:         "资源未找到",
	ErrAlreadyExists:    "资源已存在",
	ErrPermissionDenied: "权限不足",
	ErrTimeout:          "操作超时",
	ErrCanceled:         "操作已取消",

	// 游戏/会话错误
	ErrMazeNotFound:     "迷宫不存在",
	ErrMazeInactive:     "迷宫未激活",
	ErrRoomNotFound:     "房间不存在",
	ErrSessionNotFound:  "游戏会话不存在",
	ErrSessionInactive:  "游戏会话已结束",
	ErrSessionNotOwned:  "会话不属于当前用户",
	ErrInvalidDirection: "无效的移动方向",
	ErrNoDoor:           "该方向没有门",
	ErrPlayerFrozen:     "玩家处于冰冻状态",
	ErrNoPortal:         "当前房间没有传送门",

	// 奖励错误
	ErrRewardNotFound:       "奖励不存在",
	ErrRewardAlreadyClaimed: "奖励已被领取",
	ErrRewardExpired:        "奖励已过期",
	ErrNoSpawnableRoom:      "没有可生成奖励的房间",

	// 陷阱错误
	ErrTrapNotFound:         "陷阱不存在",
	ErrTrapAlreadyTriggered: "陷阱已被触发",
	ErrInvalidTrapType:      "无效的陷阱类型",

	// 房间经济错误
	ErrRoomAlreadySold:     "房间已售出",
	ErrInsufficientBalance: "余额不足",
	ErrNotRoomOwner:        "不是房间拥有者",
	ErrWallHasDoor:         "该墙面有门，不能放置广告",

	// 通信错误
	ErrWebSocketSend:   "WebSocket发送失败",
	ErrWebSocketClosed: "WebSocket连接已关闭",
	ErrMessageFormat:   "消息格式错误",

	// 数据库错误
	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",
	ErrTransaction:     "事务处理失败",

	// 安全错误
	ErrAuthentication: "认证失败",
	ErrAuthorization:  "授权失败",
	ErrTokenExpired:   "令牌已过期",
	ErrTokenInvalid:   "无效的令牌",

	// 用户错误
	ErrUserNotFound:       "用户不存在",
	ErrUserExists:         "用户已存在",
	ErrInvalidCredentials: "用户名或密码错误",
	ErrUserBanned:         "用户已被封禁",
	ErrInvalidToken:       "无效的令牌",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`            // 错误码
	Message string       `json:"message"`         // 错误消息
	Details string       `json:"details"`         // 详细信息
	Cause   error        `json:"-"`               // 原始错误
	Stack   []StackFrame `json:"stack,omitempty"` // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	// 捕获调用栈
	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return New(code, details)
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	if appErr, ok := err.(*AppError); ok {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr := New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return Wrap(err, code, details)
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)

	if n > 0 {
		frames := runtime.CallersFrames(pcs[:n])
		for {
			frame, more := frames.Next()

			// 跳过runtime和本包的调用
			if strings.Contains(frame.Function, "runtime.") ||
				strings.Contains(frame.Function, "github.com/wfunc/maze-game/internal/errors") {
				if !more {
					break
				}
				continue
			}

			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})

			if !more {
				break
			}

			// 只保留前10个栈帧
			if len(e.Stack) >= 10 {
				break
			}
		}
	}
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam || e.Code == ErrInvalidDirection ||
		e.Code == ErrInvalidTrapType || e.Code == ErrNoPortal || e.Code == ErrWallHasDoor:
		return 400 // Bad Request
	case e.Code == ErrNotFound || e.Code == ErrMazeNotFound ||
		e.Code == ErrRoomNotFound || e.Code == ErrSessionNotFound ||
		e.Code == ErrRewardNotFound || e.Code == ErrTrapNotFound ||
		e.Code == ErrUserNotFound:
		return 404 // Not Found
	case e.Code == ErrPermissionDenied || e.Code == ErrSessionNotOwned ||
		e.Code == ErrNotRoomOwner || e.Code == ErrAuthorization:
		return 403 // Forbidden
	case e.Code == ErrAlreadyExists || e.Code == ErrRewardAlreadyClaimed ||
		e.Code == ErrRewardExpired || e.Code == ErrTrapAlreadyTriggered ||
		e.Code == ErrRoomAlreadySold || e.Code == ErrUserExists:
		return 409 // Conflict
	case e.Code == ErrInsufficientBalance:
		return 402 // Payment Required
	case (e.Code >= 7000 && e.Code <= 7003 && e.Code != ErrAuthorization) ||
		e.Code == ErrInvalidCredentials || e.Code == ErrUserBanned ||
		e.Code == ErrInvalidToken:
		return 401 // Unauthorized
	case e.Code >= 6000 && e.Code <= 6999:
		return 503 // Service Unavailable
	default:
		return 500 // Internal Server Error
	}
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	code := GetCode(err)
	switch code {
	case ErrTimeout,
		ErrDatabaseConnect,
		ErrWebSocketSend:
		return true
	default:
		return false
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
