package auth

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/config"
	"locallibrary/internal/entities"
)

// setupMutex serializes setup requests so concurrent first-run submissions
// cannot both pass the HasUsers check.
var setupMutex sync.Mutex

// isLocalPath rejects redirect targets that could leave the site.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/catalog/"
}

// Controller handles the login, logout and first-run setup pages.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	config         config.Auth
}

func NewController(service *Service, sessionManager *SessionManager, cfg config.Auth) *Controller {
	return &Controller{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    NewRateLimiter(cfg.MaxLoginAttempts, cfg.RateLimitWindow, cfg.LockoutDuration),
		config:         cfg,
	}
}

// RegisterRoutes registers the authentication routes on the router.
func (ac *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // simple logout links use GET
	router.GET("/setup", ac.SetupPage)
	router.POST("/setup", ac.Setup)
}

// LoginPage renders the login form.
func (ac *Controller) LoginPage(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/catalog/")
		return
	}

	hasUsers, _ := ac.service.HasUsers()
	if !hasUsers {
		c.Redirect(http.StatusFound, "/setup")
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":     "Login",
		"Next":      sanitizeRedirectPath(c.Query("next")),
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Login handles the login form submission.
func (ac *Controller) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	renderError := func(message string) {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     message,
		})
	}

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, username); !allowed {
		c.Header("Retry-After", retryAfter.String())
		renderError("Too many login attempts. Please try again later.")
		return
	}

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, username)
		if errors.Is(err, ErrAccountLocked) {
			renderError("Account is locked. Please try again later.")
			return
		}
		renderError("Invalid username or password")
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, username)

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			renderError("Failed to create session")
			return
		}
	}

	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and returns to the login form.
func (ac *Controller) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	c.Redirect(http.StatusFound, "/login")
}

// SetupPage renders the first-run librarian setup form.
func (ac *Controller) SetupPage(c *gin.Context) {
	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		c.HTML(http.StatusOK, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.HTML(http.StatusOK, "setup.html", gin.H{
		"Title":     "Initial Setup",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Setup creates the first user, a librarian.
func (ac *Controller) Setup(c *gin.Context) {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		c.HTML(http.StatusOK, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	username := c.PostForm("username")
	email := c.PostForm("email")
	firstName := c.PostForm("first_name")
	lastName := c.PostForm("last_name")
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	renderError := func(message string) {
		c.HTML(http.StatusOK, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"Username":  username,
			"Email":     email,
			"CSRFToken": GetCSRFToken(c),
			"Error":     message,
		})
	}

	if password != confirmPassword {
		renderError("Passwords do not match")
		return
	}

	user, err := ac.service.CreateUser(username, email, firstName, lastName, password, entities.UserRoleLibrarian)
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordTooShort):
			renderError("Password must be at least 8 characters")
		case errors.Is(err, ErrPasswordTooLong):
			renderError("Password exceeds maximum length of 72 characters")
		case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrUsernameInvalid):
			renderError("Username must be 3-64 characters, alphanumeric with underscore/hyphen only")
		case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrEmailInvalid):
			renderError("A valid email is required")
		case errors.Is(err, ErrUserExists):
			// Another request won the race
			c.Redirect(http.StatusFound, "/login")
		default:
			renderError("Failed to create user")
		}
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(c.Request, user)
	}

	c.Redirect(http.StatusFound, "/catalog/")
}
