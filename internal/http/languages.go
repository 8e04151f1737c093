package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/database/languages"
)

type languageRequest struct {
	Name string `json:"name" binding:"required"`
}

type LanguagesController struct {
	repo *languages.Repository
}

func NewLanguagesController(repo *languages.Repository) *LanguagesController {
	return &LanguagesController{repo: repo}
}

func (controller *LanguagesController) ListLanguages(c *gin.Context) {
	result, err := controller.repo.List()
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (controller *LanguagesController) GetLanguage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	language, err := controller.repo.GetByID(id)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Language")
			return
		}
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, language)
}

func (controller *LanguagesController) CreateLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid language payload: "+err.Error())
		return
	}
	language, err := controller.repo.Create(req.Name)
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, language)
}

func (controller *LanguagesController) UpdateLanguage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid language payload: "+err.Error())
		return
	}

	language, err := controller.repo.GetByID(id)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Language")
			return
		}
		respondInternalError(c)
		return
	}
	language.Name = req.Name
	if err := controller.repo.Update(language); err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, language)
}

func (controller *LanguagesController) DeleteLanguage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.repo.Delete(id); err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Language")
			return
		}
		respondInternalError(c)
		return
	}
	c.Status(http.StatusNoContent)
}
