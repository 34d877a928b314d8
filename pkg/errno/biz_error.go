package errno

import (
	"errors"
	"net/http"
)

// BizError 携带错误码和底层原因
type BizError struct {
	errno *Errno
	cause error
}

// NewBizError 用错误码包装底层错误
func NewBizError(e *Errno, cause error) *BizError {
	if e == nil {
		e = ErrUnknown
	}
	return &BizError{errno: e, cause: cause}
}

func (e *BizError) Error() string {
	if e.cause == nil {
		return e.errno.Message
	}
	return e.errno.Message + ": " + e.cause.Error()
}

// Unwrap 返回底层原因
func (e *BizError) Unwrap() error { return e.cause }

// Is 使 errors.Is(err, errno.ErrXxx) 成立
func (e *BizError) Is(target error) bool {
	t, ok := target.(*Errno)
	return ok && t == e.errno
}

// Errno 返回错误码
func (e *BizError) Errno() *Errno { return e.errno }

// Detail 返回底层原因的文本
func (e *BizError) Detail() string {
	if e.cause == nil {
		return ""
	}
	return e.cause.Error()
}

// Decode 从任意错误中解析出错误码、HTTP 状态与详情
func Decode(err error) (code int, status int, message string, detail string) {
	if err == nil {
		return OK.Code, OK.HTTPStatus, OK.Message, ""
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.errno.Code, statusOf(biz.errno), biz.errno.Message, biz.Detail()
	}
	var en *Errno
	if errors.As(err, &en) {
		return en.Code, statusOf(en), en.Message, ""
	}
	return ErrInternalServer.Code, http.StatusInternalServerError, ErrInternalServer.Message, err.Error()
}

func statusOf(e *Errno) int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
