package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MessageResponse is the standard error payload shape.
type MessageResponse struct {
	Message string `json:"message"`
}

func respondNotFound(c *gin.Context, entity string) {
	c.JSON(http.StatusNotFound, MessageResponse{Message: entity + " not found"})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, MessageResponse{Message: message})
}

func respondInternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, MessageResponse{Message: "internal server error"})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// parseIDParam reads a numeric path parameter. The second return value is
// false when the parameter is not a positive integer, in which case a 400
// response has already been written.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}
