package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

const maxIDLength = 64

// pathID reads a path parameter or writes a 400.
func pathID(c *gin.Context, param string) (string, bool) {
	id := strings.TrimSpace(c.Param(param))
	if id == "" || utf8.RuneCountInString(id) > maxIDLength {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Code:    "invalid_id",
		})
		return "", false
	}
	return id, true
}

// parseIntQuery returns the query value, or defaultValue when it is missing
// or not a number. Range checks are left to request validation.
func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(param))
	if err != nil {
		return defaultValue
	}
	return value
}
