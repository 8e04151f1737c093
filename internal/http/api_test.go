package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"locallibrary/internal/auth"
	"locallibrary/internal/config"
	"locallibrary/internal/database"
	"locallibrary/internal/database/authors"
	"locallibrary/internal/database/books"
	"locallibrary/internal/database/genres"
	"locallibrary/internal/database/instances"
	"locallibrary/internal/database/languages"
	"locallibrary/internal/entities"
)

type apiTestEnv struct {
	db      *database.Database
	router  *gin.Engine
	service *auth.Service
}

func setupAPITest(t *testing.T) (*apiTestEnv, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_api_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	authConfig := config.Auth{
		Mode:       config.AuthModeLocal,
		BcryptCost: bcrypt.MinCost,
	}
	service := auth.NewService(db.DB, authConfig)

	router := NewRouter(RouterConfig{
		Database:       db,
		Books:          books.NewRepository(db.DB),
		Authors:        authors.NewRepository(db.DB),
		Genres:         genres.NewRepository(db.DB),
		Languages:      languages.NewRepository(db.DB),
		Instances:      instances.NewRepository(db.DB),
		AuthService:    service,
		AuthMiddleware: auth.NewMiddleware(service, nil, authConfig),
		AuthConfig:     authConfig,
	})

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return &apiTestEnv{db: db, router: router, service: service}, cleanup
}

// signIn creates a user and returns a bearer token for it.
func (env *apiTestEnv) signIn(t *testing.T, username string, role entities.UserRole) string {
	t.Helper()
	user, err := env.service.CreateUser(username, username+"@example.com", "", "", "password123", role)
	require.NoError(t, err)
	token, err := env.service.GenerateToken(user.ID)
	require.NoError(t, err)
	return token
}

func (env *apiTestEnv) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.Message
}

func TestAPI_AnonymousWritesAreRejected(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()

	before, err := env.db.TotalRows()
	require.NoError(t, err)

	writes := []struct {
		method string
		path   string
		body   any
	}{
		{"POST", "/libapi/books", gin.H{"title": "The Hobbit"}},
		{"PUT", "/libapi/books/1", gin.H{"title": "The Hobbit"}},
		{"DELETE", "/libapi/books/1", nil},
		{"POST", "/libapi/authors", gin.H{"first_name": "Jane", "last_name": "Austen"}},
		{"POST", "/libapi/genres", gin.H{"name": "Fantasy"}},
		{"POST", "/libapi/languages", gin.H{"name": "English"}},
		{"POST", "/libapi/book_instances", gin.H{"book": gin.H{"title": "The Hobbit"}}},
	}
	for _, write := range writes {
		w := env.request(write.method, write.path, "", write.body)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", write.method, write.path)
		assert.Equal(t, "Please sign in first", decodeMessage(t, w))
	}

	after, err := env.db.TotalRows()
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected writes must not touch the store")
}

func TestAPI_ReadsAreOpen(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()

	for _, path := range []string{
		"/libapi/all_books",
		"/libapi/books",
		"/libapi/all_book_instances",
		"/libapi/authors",
		"/libapi/genres",
		"/libapi/languages",
	} {
		w := env.request("GET", path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAPI_CreateBook_ReturnsOKWithNestedEntities(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	w := env.request("POST", "/libapi/books", token, gin.H{
		"title":   "The Hobbit",
		"summary": "A hobbit goes on an adventure",
		"isbn":    "9780261103344",
		"author":  gin.H{"first_name": "J.R.R.", "last_name": "Tolkien"},
		"genre":   []string{"Fantasy", "Adventure"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var book entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.NotZero(t, book.ID)
	require.NotNil(t, book.Author)
	assert.Equal(t, "Tolkien", book.Author.LastName)
	assert.Len(t, book.Genres, 2)
}

func TestAPI_CreateBook_MissingTitleIsBadRequest(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	w := env.request("POST", "/libapi/books", token, gin.H{"summary": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_GetBook_NotFound(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()

	w := env.request("GET", "/libapi/books/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Book not found", decodeMessage(t, w))
}

func TestAPI_BookFilters(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	create := func(title, authorFirst, authorLast string, genreNames []string) {
		body := gin.H{"title": title, "genre": genreNames}
		if authorLast != "" {
			body["author"] = gin.H{"first_name": authorFirst, "last_name": authorLast}
		}
		w := env.request("POST", "/libapi/books", token, body)
		require.Equal(t, http.StatusOK, w.Code)
	}
	create("War and Peace", "Leo", "Tolstoy", []string{"Historical"})
	create("The Art of War", "", "", []string{"Strategy"})
	create("Emma", "Jane", "Austen", []string{"Romance"})

	titles := func(w *httptest.ResponseRecorder) []string {
		var result []entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		got := make([]string, 0, len(result))
		for _, book := range result {
			got = append(got, book.Title)
		}
		return got
	}

	w := env.request("GET", "/libapi/books?title=war", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"War and Peace", "The Art of War"}, titles(w))

	w = env.request("GET", "/libapi/books?author=tolst", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"War and Peace"}, titles(w))

	w = env.request("GET", "/libapi/books?title=war&genre=strategy", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"The Art of War"}, titles(w))

	w = env.request("GET", "/libapi/books?title=war&genre=romance", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, titles(w))
}

func TestAPI_UpdateBook_PartialAndGenreReplace(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	w := env.request("POST", "/libapi/books", token, gin.H{
		"title": "The Hobbit",
		"isbn":  "9780261103344",
		"genre": []string{"Fantasy"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var created entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.request("PUT", "/libapi/books/"+itoa(created.ID), token, gin.H{
		"title": "The Hobbit, revised",
		"genre": []string{"Children"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "The Hobbit, revised", updated.Title)
	assert.Equal(t, "9780261103344", updated.ISBN)
	require.Len(t, updated.Genres, 1)
	assert.Equal(t, "Children", updated.Genres[0].Name)
}

func TestAPI_DeleteBook_NoContentAndGone(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	w := env.request("POST", "/libapi/books", token, gin.H{"title": "The Hobbit"})
	require.Equal(t, http.StatusOK, w.Code)
	var created entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.request("DELETE", "/libapi/books/"+itoa(created.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.request("GET", "/libapi/books/"+itoa(created.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_DirectGenreCreateDoesNotDedupe(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	for i := 0; i < 2; i++ {
		w := env.request("POST", "/libapi/genres", token, gin.H{"name": "Fantasy"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.request("GET", "/libapi/genres", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result []entities.Genre
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result, 2)
}

func TestAPI_CreateInstance_TransitiveAndUUID(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	w := env.request("POST", "/libapi/book_instances", token, gin.H{
		"book": gin.H{
			"title":  "The Hobbit",
			"author": gin.H{"first_name": "J.R.R.", "last_name": "Tolkien"},
			"genre":  []string{"Fantasy"},
		},
		"imprint":  "HarperCollins 1991",
		"due_back": "2026-09-15",
		"status":   "o",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var instance entities.BookInstance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &instance))
	assert.Len(t, instance.ID, 36)
	assert.Equal(t, entities.LoanStatusOnLoan, instance.Status)
	require.NotNil(t, instance.Book)
	assert.Equal(t, "The Hobbit", instance.Book.Title)

	w = env.request("GET", "/libapi/book_instances/"+instance.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_CreateInstance_InvalidStatus(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	w := env.request("POST", "/libapi/book_instances", token, gin.H{
		"book":   gin.H{"title": "The Hobbit"},
		"status": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_GetInstance_MalformedIDIsNotFound(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()

	w := env.request("GET", "/libapi/book_instances/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Book instance not found", decodeMessage(t, w))
}

func TestAPI_AuthorFilters(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()
	token := env.signIn(t, "librarian", entities.UserRoleLibrarian)

	for _, author := range []gin.H{
		{"first_name": "Jane", "last_name": "Austen"},
		{"first_name": "Charlotte", "last_name": "Bronte"},
	} {
		w := env.request("POST", "/libapi/authors", token, author)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.request("GET", "/libapi/authors?last_name=bront", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result []entities.Author
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result, 1)
	assert.Equal(t, "Charlotte", result[0].FirstName)
}

func TestAPI_Me(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()

	w := env.request("GET", "/api/me", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Please sign in first", decodeMessage(t, w))

	user, err := env.service.CreateUser("reader", "reader@example.com", "Jane", "Doe", "password123", entities.UserRoleMember)
	require.NoError(t, err)
	token, err := env.service.GenerateToken(user.ID)
	require.NoError(t, err)

	w = env.request("GET", "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me meResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "reader", me.Username)
	assert.Equal(t, "reader@example.com", me.Email)
	assert.Equal(t, "Jane", me.FirstName)
	assert.Equal(t, "Doe", me.LastName)
}

func TestAPI_InvalidTokenIsAnonymous(t *testing.T) {
	env, cleanup := setupAPITest(t)
	defer cleanup()

	w := env.request("POST", "/libapi/books", "bogus-token", gin.H{"title": "The Hobbit"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Please sign in first", decodeMessage(t, w))
}

func itoa(id uint) string {
	return strconv.Itoa(int(id))
}
