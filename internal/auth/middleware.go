package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/config"
	"locallibrary/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
)

// AnonymousUserID marks a request with no authenticated identity.
const AnonymousUserID = uint(0)

// SignInMessage is the single generic message returned for any rejected
// write or scoped read, regardless of why authentication failed.
const SignInMessage = "Please sign in first"

// Middleware resolves the caller's identity (bearer token first, session
// cookie second) into the gin context. It never rejects a request itself;
// gating is done per-route with SignInRequired and RoleRequired.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
}

func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
	}
}

// Handler returns the identity-resolution middleware.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Set(ContextKeyUserID, AnonymousUserID)
			c.Next()
			return
		}

		if user := m.tryBearerAuth(c); user != nil {
			m.setUserContext(c, user)
			c.Next()
			return
		}
		if user := m.trySessionAuth(c); user != nil {
			m.setUserContext(c, user)
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, AnonymousUserID)
		c.Next()
	}
}

// SignInRequired gates mutating API routes and per-user reads. Anonymous
// callers get 403 with the generic sign-in message; the check runs before
// any handler touches the store.
func (m *Middleware) SignInRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}
		if GetUserID(c) == AnonymousUserID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": SignInMessage})
			return
		}
		c.Next()
	}
}

// RoleRequired gates routes behind a specific role on top of SignInRequired.
func (m *Middleware) RoleRequired(role entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}
		if GetUserID(c) == AnonymousUserID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": SignInMessage})
			return
		}
		if GetUserRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// LoginRequiredPage gates server-rendered pages: anonymous visitors are
// redirected to the login form instead of receiving a JSON error.
func (m *Middleware) LoginRequiredPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}
		if GetUserID(c) == AnonymousUserID {
			c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}
	user, err := m.service.ValidateToken(parts[1])
	if err != nil {
		return nil
	}
	return user
}

func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}
	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}
	return user
}

func (m *Middleware) setUserContext(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyRole, user.Role)
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns AnonymousUserID when the caller is not signed in.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return AnonymousUserID
}

func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}
