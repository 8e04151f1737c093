package http

import (
	"locallibrary/internal/auth"
	"locallibrary/internal/config"
	"locallibrary/internal/database"
	"locallibrary/internal/database/authors"
	"locallibrary/internal/database/books"
	"locallibrary/internal/database/genres"
	"locallibrary/internal/database/instances"
	"locallibrary/internal/database/languages"
)

// RouterConfig bundles every dependency the router needs. Optional pieces
// (session manager, CSRF secret) may be left zero for tests that exercise
// the API surface only.
type RouterConfig struct {
	Database *database.Database

	Books     *books.Repository
	Authors   *authors.Repository
	Genres    *genres.Repository
	Languages *languages.Repository
	Instances *instances.Repository

	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager

	AuthConfig    config.Auth
	CatalogConfig config.Catalog

	CSRFSecret []byte

	// UI paths; templates are skipped entirely when TemplatesPath is empty
	TemplatesPath string
	StaticPath    string
}
