package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/auth"
)

type meResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UsersController struct {
	service *auth.Service
}

func NewUsersController(service *auth.Service) *UsersController {
	return &UsersController{service: service}
}

// Me returns the profile of the signed-in caller. The route sits behind
// SignInRequired, so an anonymous request never reaches this handler.
func (controller *UsersController) Me(c *gin.Context) {
	user, err := controller.service.GetUserByID(auth.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, MessageResponse{Message: auth.SignInMessage})
		return
	}
	c.JSON(http.StatusOK, meResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}
