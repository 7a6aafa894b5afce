package service

import (
	"Courier/internal/pkg/payload"
	"errors"
)

const (
	BadRequest          = 400
	NotFound            = 404
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid    = errors.New("参数错误")
	ErrMessageNotFound = errors.New("消息不存在")
	ErrAnchorMismatch  = errors.New("锚点消息不属于该会话")
	ErrContactNotFound = errors.New("联系人不存在")
	ErrSearchDisabled  = errors.New("消息检索未启用")
	ErrStorageFailure  = errors.New("存储异常")
	UnExpectedError    = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:                     BadRequest,
	ErrMessageNotFound:                  NotFound,
	ErrAnchorMismatch:                   BadRequest,
	ErrContactNotFound:                  NotFound,
	ErrSearchDisabled:                   ServiceUnavailable,
	ErrStorageFailure:                   InternalServerError,
	payload.ErrUnrecognizedPayload:      BadRequest,
	payload.ErrUnresolvableConversation: BadRequest,
	payload.ErrNoIdentifier:             BadRequest,
	payload.ErrInvalidStatus:            BadRequest,
	UnExpectedError:                     InternalServerError,
}

// CodeOf 返回错误对应的业务码，支持被包装的错误
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return 0, false
}
