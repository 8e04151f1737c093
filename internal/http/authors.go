package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/database/authors"
	"locallibrary/internal/entities"
)

type createAuthorRequest struct {
	FirstName   string         `json:"first_name" binding:"required"`
	LastName    string         `json:"last_name" binding:"required"`
	DateOfBirth *entities.Date `json:"date_of_birth"`
	DateOfDeath *entities.Date `json:"date_of_death"`
}

type updateAuthorRequest struct {
	FirstName   *string        `json:"first_name"`
	LastName    *string        `json:"last_name"`
	DateOfBirth *entities.Date `json:"date_of_birth"`
	DateOfDeath *entities.Date `json:"date_of_death"`
}

type AuthorsController struct {
	repo *authors.Repository
}

func NewAuthorsController(repo *authors.Repository) *AuthorsController {
	return &AuthorsController{repo: repo}
}

// ListAuthors returns authors matching the first_name/last_name query
// parameters, both optional substring filters.
func (controller *AuthorsController) ListAuthors(c *gin.Context) {
	result, err := controller.repo.List(c.Query("first_name"), c.Query("last_name"))
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (controller *AuthorsController) GetAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	author, err := controller.repo.GetByID(id)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Author")
			return
		}
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, author)
}

// CreateAuthor always inserts a new row, even when an identical author
// already exists. Deduplication happens only for nested references inside
// book payloads.
func (controller *AuthorsController) CreateAuthor(c *gin.Context) {
	var req createAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid author payload: "+err.Error())
		return
	}

	author := entities.Author{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		DateOfDeath: req.DateOfDeath,
	}
	if err := controller.repo.Create(&author); err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (controller *AuthorsController) UpdateAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid author payload: "+err.Error())
		return
	}

	author, err := controller.repo.GetByID(id)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Author")
			return
		}
		respondInternalError(c)
		return
	}

	if req.FirstName != nil {
		author.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		author.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		author.DateOfBirth = req.DateOfBirth
	}
	if req.DateOfDeath != nil {
		author.DateOfDeath = req.DateOfDeath
	}

	if err := controller.repo.Update(author); err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (controller *AuthorsController) DeleteAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.repo.Delete(id); err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Author")
			return
		}
		respondInternalError(c)
		return
	}
	c.Status(http.StatusNoContent)
}
