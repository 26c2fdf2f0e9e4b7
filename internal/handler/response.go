package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"Lee_Social/internal/middleware"
	"Lee_Social/internal/pkg"
)

type okBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type failBody struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Reason  string         `json:"reason"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Responder 统一响应格式。Debug 为 true 时失败响应带上底层错误
type Responder struct {
	Debug bool
}

func (r Responder) OK(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, okBody{Success: true, Message: msg, Data: data})
}

func (r Responder) Fail(c *gin.Context, err error) {
	var e *pkg.Error
	if !errors.As(err, &e) {
		e = pkg.ErrInternal
	}
	body := failBody{
		Message: e.Msg,
		Reason:  e.Kind.String(),
		Details: e.Details,
	}
	if e.Kind == pkg.KindInternal {
		slog.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(middleware.ContextRequestIDKey), "err", err)
		body.Message = "internal server error"
	}
	if r.Debug {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), body)
}

// bindError 把绑定/校验错误转成 InvalidOperation，字段级信息放在 details 里
func bindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return pkg.InvalidOperation("invalid params").WithDetail("fields", fields)
	}
	return pkg.InvalidOperation("invalid params")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "max", "len":
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	default:
		return "failed " + fe.Tag()
	}
}

// SetupValidator 校验错误里的字段名使用 json/form 标签名
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

// parseID 解析路径或查询参数中的用户/申请 id
func parseID(raw, name string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, pkg.InvalidOperation("invalid %s", name).WithDetail("field", name)
	}
	return id, nil
}

func pageQuery(c *gin.Context) (pkg.PageQuery, error) {
	var q pkg.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, bindError(err)
	}
	return q.Normalize(), nil
}

func userIDFromCtx(c *gin.Context) uint64 {
	return middleware.UserID(c)
}
