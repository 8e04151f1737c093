package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/database/genres"
)

type genreRequest struct {
	Name string `json:"name" binding:"required"`
}

type GenresController struct {
	repo *genres.Repository
}

func NewGenresController(repo *genres.Repository) *GenresController {
	return &GenresController{repo: repo}
}

func (controller *GenresController) ListGenres(c *gin.Context) {
	result, err := controller.repo.List()
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (controller *GenresController) GetGenre(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	genre, err := controller.repo.GetByID(id)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Genre")
			return
		}
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, genre)
}

// CreateGenre inserts a new row without checking for an existing name.
func (controller *GenresController) CreateGenre(c *gin.Context) {
	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid genre payload: "+err.Error())
		return
	}
	genre, err := controller.repo.Create(req.Name)
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, genre)
}

func (controller *GenresController) UpdateGenre(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid genre payload: "+err.Error())
		return
	}

	genre, err := controller.repo.GetByID(id)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Genre")
			return
		}
		respondInternalError(c)
		return
	}
	genre.Name = req.Name
	if err := controller.repo.Update(genre); err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, genre)
}

func (controller *GenresController) DeleteGenre(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.repo.Delete(id); err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Genre")
			return
		}
		respondInternalError(c)
		return
	}
	c.Status(http.StatusNoContent)
}
