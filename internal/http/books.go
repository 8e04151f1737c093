package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/database/authors"
	"locallibrary/internal/database/books"
	"locallibrary/internal/entities"
)

// authorRef is the nested author reference accepted inside book payloads. It
// is matched against existing authors by all four fields before a new row is
// created.
type authorRef struct {
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	DateOfBirth *entities.Date `json:"date_of_birth"`
	DateOfDeath *entities.Date `json:"date_of_death"`
}

func (a authorRef) key() authors.Key {
	return authors.Key{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		DateOfBirth: a.DateOfBirth,
		DateOfDeath: a.DateOfDeath,
	}
}

type createBookRequest struct {
	Title   string     `json:"title" binding:"required"`
	Summary string     `json:"summary"`
	ISBN    string     `json:"isbn"`
	Author  *authorRef `json:"author"`
	Genres  []string   `json:"genre"`
}

// updateBookRequest uses pointer fields so that absent keys leave the stored
// value untouched while present-but-empty keys apply.
type updateBookRequest struct {
	Title   *string    `json:"title"`
	Summary *string    `json:"summary"`
	ISBN    *string    `json:"isbn"`
	Author  *authorRef `json:"author"`
	Genres  *[]string  `json:"genre"`
}

type BooksController struct {
	repo *books.Repository
}

func NewBooksController(repo *books.Repository) *BooksController {
	return &BooksController{repo: repo}
}

// GetAllBooks returns the full catalog without filtering.
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	result, err := controller.repo.List(books.Filter{})
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListBooks returns books matching the title/author/genre query parameters.
func (controller *BooksController) ListBooks(c *gin.Context) {
	filter := books.Filter{
		Title:  c.Query("title"),
		Author: c.Query("author"),
		Genre:  c.Query("genre"),
	}
	result, err := controller.repo.List(filter)
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := controller.repo.GetByID(id)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid book payload: "+err.Error())
		return
	}

	in := books.Input{
		Title:   req.Title,
		Summary: req.Summary,
		ISBN:    req.ISBN,
		Genres:  req.Genres,
	}
	if req.Author != nil {
		key := req.Author.key()
		in.Author = &key
	}

	book, err := controller.repo.Create(in)
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid book payload: "+err.Error())
		return
	}

	up := books.Update{
		Title:   req.Title,
		Summary: req.Summary,
		ISBN:    req.ISBN,
		Genres:  req.Genres,
	}
	if req.Author != nil {
		key := req.Author.key()
		up.Author = &key
	}

	book, err := controller.repo.Update(id, up)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.repo.Delete(id); err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c)
		return
	}
	c.Status(http.StatusNoContent)
}
