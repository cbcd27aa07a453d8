package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Detail string `json:"detail"` // 錯誤信息
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrInvalidRequest) 可用於帶有不同訊息的同類錯誤
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WithMessage 沿用代碼與狀態碼，換上新的訊息
func (e *CustomError) WithMessage(message string) *CustomError {
	return NewError(e.Code, message, e.Status, nil)
}

// BadRequest 創建輸入錯誤
func BadRequest(message string) *CustomError {
	return NewError(ErrCodeInvalidRequest, message, http.StatusBadRequest, nil)
}

// Internal 包裝內部錯誤
func Internal(message string, err error) *CustomError {
	return NewError(ErrCodeInternalError, message, http.StatusInternalServerError, err)
}

// Upstream 包裝外部服務錯誤
func Upstream(message string, err error) *CustomError {
	return NewError(ErrCodeBadGateway, message, http.StatusBadGateway, err)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeTooLarge        = "PAYLOAD_TOO_LARGE" // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeBadGateway         = "BAD_GATEWAY"         // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "not authenticated", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "not found", http.StatusNotFound, nil)
	ErrConflict        = NewError(ErrCodeConflict, "conflict", http.StatusConflict, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "service unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "gateway timeout", http.StatusGatewayTimeout, nil)

	// 快取狀態
	ErrCacheDisabled = NewError("CACHE_DISABLED", "cache is disabled", http.StatusServiceUnavailable, nil)
	ErrCacheMiss     = NewError("CACHE_MISS", "cache miss", http.StatusNotFound, nil)
)

// classify 找出錯誤對應的 CustomError；伺服器端錯誤若起因為逾時則視為 504
func classify(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Status != 0 && ce.Status < http.StatusInternalServerError {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrGatewayTimeout
	}
	if ce != nil && ce.Status != 0 {
		return ce
	}
	return nil
}

// StatusOf 取得錯誤對應的 HTTP 狀態碼
func StatusOf(err error) int {
	if ce := classify(err); ce != nil {
		return ce.Status
	}
	return http.StatusInternalServerError
}

// DetailOf 取得對外顯示的錯誤訊息；內部錯誤不外洩原始錯誤內容
func DetailOf(err error) string {
	ce := classify(err)
	if ce == nil {
		return ErrInternalError.Message
	}
	if ce.Status >= http.StatusInternalServerError || ce.Err == nil {
		return ce.Message
	}
	return ce.Error()
}

// Respond 寫入 {"detail": ...} 錯誤響應並中止後續處理
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusOf(err), ErrorResponse{Detail: DetailOf(err)})
}

// RespondDetail 以指定狀態碼寫入錯誤響應
func RespondDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}
