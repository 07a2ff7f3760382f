package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details"`
}

func ErrorResponse(c *gin.Context, status int, message string) {
	ErrorResponseWithDetails(c, status, message, nil)
}

func ErrorResponseWithDetails(c *gin.Context, status int, message string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	c.AbortWithStatusJSON(status, ErrorBody{
		Error:   message,
		Details: details,
	})
}

// SuccessResponse writes {"message": ..., "data": ...}; data is omitted when nil.
func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}
