package utils

import "github.com/gin-gonic/gin"

// ApiResponse is the success envelope every endpoint returns.
type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

func Respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, ApiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}
