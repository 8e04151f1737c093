package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APITokenController manages the caller's long-lived API token. Routes sit
// behind SignInRequired.
type APITokenController struct {
	service *Service
}

func NewAPITokenController(service *Service) *APITokenController {
	return &APITokenController{service: service}
}

// GenerateToken issues a fresh token, replacing any existing one. The
// plaintext is returned exactly once; only its hash is stored.
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	token, err := tc.service.GenerateToken(GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (tc *APITokenController) RevokeToken(c *gin.Context) {
	if err := tc.service.RevokeToken(GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to revoke token"})
		return
	}
	c.Status(http.StatusNoContent)
}
