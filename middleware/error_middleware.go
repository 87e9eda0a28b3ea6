package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamhive/vidtube/utils"
)

// ErrorResponse is the error envelope. Stack carries the wrapped cause
// chain and is only filled outside production.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ErrorHandler is the single place errors become HTTP responses. Handlers
// push errors with c.Error and return; anything that is not an ApiError is
// normalized to Internal here.
func ErrorHandler(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *utils.ApiError
		if !errors.As(err, &apiErr) {
			apiErr = utils.Internal("Some unknown error occurred", err)
		}

		if apiErr.Kind == utils.KindInternal {
			log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, apiErr)
		}

		resp := ErrorResponse{
			Success: false,
			Message: apiErr.Message,
		}
		if !production && apiErr.Err != nil {
			resp.Stack = apiErr.Err.Error()
		}

		status := apiErr.StatusCode()
		if status == 0 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, resp)
	}
}
