package http

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/auth"
	"locallibrary/internal/entities"
)

// NewRouter wires middleware, controllers and routes. All dependencies come
// in through RouterConfig.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session load so the session context survives
	// the request replacement CSRF performs
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.AnonymousUserID)
			c.Next()
		})
	}

	if cfg.TemplatesPath != "" {
		tmpl := template.Must(template.New("").ParseGlob(cfg.TemplatesPath + "/*.html"))
		router.SetHTMLTemplate(tmpl)
	}
	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	// Write gates. When auth is off these all pass through.
	signIn := passthrough()
	librarian := passthrough()
	loginPage := passthrough()
	if cfg.AuthMiddleware != nil {
		signIn = cfg.AuthMiddleware.SignInRequired()
		librarian = cfg.AuthMiddleware.RoleRequired(entities.UserRoleLibrarian)
		loginPage = cfg.AuthMiddleware.LoginRequiredPage()
	}

	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		authController.RegisterRoutes(router)

		tokenController := auth.NewAPITokenController(cfg.AuthService)
		router.POST("/api/auth/token", signIn, tokenController.GenerateToken)
		router.DELETE("/api/auth/token", signIn, tokenController.RevokeToken)
	}

	health := NewHealthController(cfg.Database)
	router.GET("/health", health.Status)

	booksController := NewBooksController(cfg.Books)
	authorsController := NewAuthorsController(cfg.Authors)
	genresController := NewGenresController(cfg.Genres)
	languagesController := NewLanguagesController(cfg.Languages)
	instancesController := NewInstancesController(cfg.Instances)

	api := router.Group("/libapi")
	{
		api.GET("/all_books", booksController.GetAllBooks)
		api.GET("/books", booksController.ListBooks)
		api.POST("/books", signIn, booksController.CreateBook)
		api.GET("/books/:id", booksController.GetBook)
		api.PUT("/books/:id", signIn, booksController.UpdateBook)
		api.DELETE("/books/:id", signIn, booksController.DeleteBook)

		api.GET("/all_book_instances", instancesController.GetAllInstances)
		api.POST("/book_instances", signIn, instancesController.CreateInstance)
		api.GET("/book_instances/:id", instancesController.GetInstance)
		api.PUT("/book_instances/:id", signIn, instancesController.UpdateInstance)
		api.DELETE("/book_instances/:id", signIn, instancesController.DeleteInstance)

		api.GET("/authors", authorsController.ListAuthors)
		api.POST("/authors", signIn, authorsController.CreateAuthor)
		api.GET("/authors/:id", authorsController.GetAuthor)
		api.PUT("/authors/:id", signIn, authorsController.UpdateAuthor)
		api.DELETE("/authors/:id", signIn, authorsController.DeleteAuthor)

		api.GET("/genres", genresController.ListGenres)
		api.POST("/genres", signIn, genresController.CreateGenre)
		api.GET("/genres/:id", genresController.GetGenre)
		api.PUT("/genres/:id", signIn, genresController.UpdateGenre)
		api.DELETE("/genres/:id", signIn, genresController.DeleteGenre)

		api.GET("/languages", languagesController.ListLanguages)
		api.POST("/languages", signIn, languagesController.CreateLanguage)
		api.GET("/languages/:id", languagesController.GetLanguage)
		api.PUT("/languages/:id", signIn, languagesController.UpdateLanguage)
		api.DELETE("/languages/:id", signIn, languagesController.DeleteLanguage)
	}

	if cfg.AuthService != nil {
		usersController := NewUsersController(cfg.AuthService)
		router.GET("/api/me", signIn, usersController.Me)
	}

	if cfg.TemplatesPath != "" {
		pages := NewPagesController(cfg.Database, cfg.Books, cfg.Authors,
			cfg.Instances, cfg.SessionManager, cfg.CatalogConfig)

		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/catalog")
		})
		catalog := router.Group("/catalog")
		{
			catalog.GET("", pages.Home)
			catalog.GET("/books", pages.BooksPage)
			catalog.GET("/books/:id", pages.BookDetailPage)
			catalog.GET("/authors", pages.AuthorsPage)
			catalog.GET("/authors/:id", pages.AuthorDetailPage)
			catalog.GET("/mybooks", loginPage, pages.MyBooksPage)
			catalog.GET("/allborrowed", librarian, pages.AllBorrowedPage)
		}
	}

	return router
}

func passthrough() gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}
