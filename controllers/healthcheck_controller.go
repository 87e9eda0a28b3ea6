package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamhive/vidtube/utils"
)

// GET /api/v1/healthcheck
func Healthcheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.Respond(c, http.StatusOK, "OK", "healthcheck passed")
	}
}
