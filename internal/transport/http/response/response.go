package response

import "github.com/gin-gonic/gin"

const (
	CodeOK              = 0
	CodeBadRequest      = 40000
	CodeModelNotAllowed = 40001
	CodeForbidden       = 40300
	CodeNotFound        = 40400
	CodeTimeout         = 40800
	CodeConflict        = 40900
	CodeInternalServer  = 50000
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// APIResponse is the envelope of the JSON API under /api/v1.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// StatusBody is the flat {status, message} shape the webhook and sync
// endpoints answer with.
type StatusBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func Status(c *gin.Context, httpStatus int, status, message string) {
	c.JSON(httpStatus, StatusBody{Status: status, Message: message})
}

// AbortStatus is Status for middleware that must stop the chain.
func AbortStatus(c *gin.Context, httpStatus int, status, message string) {
	c.AbortWithStatusJSON(httpStatus, StatusBody{Status: status, Message: message})
}
