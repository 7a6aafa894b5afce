package response

import (
	"Courier/internal/api/dto"
	"Courier/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	PayloadTooLarge     = 413
	InternalServerError = 500
)

// Success 成功返回封装
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装
func Fail(c *gin.Context, businessCode int, message string) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    nil,
	})
}

// Status HTTP 状态码与业务码一致，供需要按状态码判断结果的调用方（webhook 网关）使用
func Status(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, dto.Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	Fail(c, codeOf(c, err), err.Error())
}

// ErrorStatus 同 Error，但以业务码作为 HTTP 状态码
func ErrorStatus(c *gin.Context, err error, data interface{}) {
	Status(c, codeOf(c, err), err.Error(), data)
}

func codeOf(c *gin.Context, err error) int {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return BadRequest
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		return BadRequest
	}
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return BadRequest
	}

	code, ok := service.CodeOf(err)
	if !ok {
		code = InternalServerError
		log.ErrorContext(c.Request.Context(), "Error", "err", err)
	}
	return code
}
