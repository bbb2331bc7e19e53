package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/ratepulse/internal/middleware"
	"github.com/irfndi/ratepulse/internal/utils"
)

// respondError maps service errors onto the JSON error envelope.
func respondError(c *gin.Context, err error) {
	if isValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errorMessage(err)})
		return
	}
	_ = c.Error(err)
	middleware.RecordError(c, err, "request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": errorMessage(err)})
}

func isValidation(err error) bool {
	_, ok := utils.AsValidationError(err)
	return ok
}

// errorMessage exposes validation messages verbatim and hides everything else.
func errorMessage(err error) string {
	if verr, ok := utils.AsValidationError(err); ok {
		return verr.Message
	}
	return "upstream request failed"
}
