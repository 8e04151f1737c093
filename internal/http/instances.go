package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"locallibrary/internal/database/books"
	"locallibrary/internal/database/instances"
	"locallibrary/internal/entities"
)

// bookRef is the nested book reference inside a copy registration. Resolved
// with the same get-or-create rules as a direct book create, cascading down
// to the author and genres.
type bookRef struct {
	Title   string     `json:"title" binding:"required"`
	Summary string     `json:"summary"`
	ISBN    string     `json:"isbn"`
	Author  *authorRef `json:"author"`
	Genres  []string   `json:"genre"`
}

type createInstanceRequest struct {
	Book    bookRef              `json:"book" binding:"required"`
	Imprint string               `json:"imprint"`
	DueBack *entities.Date       `json:"due_back"`
	Status  *entities.LoanStatus `json:"status"`
}

type updateInstanceRequest struct {
	Imprint *string              `json:"imprint"`
	DueBack *entities.Date       `json:"due_back"`
	Status  *entities.LoanStatus `json:"status"`
}

func validStatus(s entities.LoanStatus) bool {
	switch s {
	case entities.LoanStatusMaintenance, entities.LoanStatusOnLoan,
		entities.LoanStatusAvailable, entities.LoanStatusReserved:
		return true
	}
	return false
}

type InstancesController struct {
	repo *instances.Repository
}

func NewInstancesController(repo *instances.Repository) *InstancesController {
	return &InstancesController{repo: repo}
}

// parseInstanceID validates the uuid path parameter. Malformed ids are
// rejected as 404 rather than 400 since they can never name a copy.
func parseInstanceID(c *gin.Context) (string, bool) {
	raw := c.Param("id")
	if _, err := uuid.Parse(raw); err != nil {
		respondNotFound(c, "Book instance")
		return "", false
	}
	return raw, true
}

func (controller *InstancesController) GetAllInstances(c *gin.Context) {
	result, err := controller.repo.ListAll()
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (controller *InstancesController) GetInstance(c *gin.Context) {
	id, ok := parseInstanceID(c)
	if !ok {
		return
	}
	instance, err := controller.repo.GetByID(id)
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Book instance")
			return
		}
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, instance)
}

func (controller *InstancesController) CreateInstance(c *gin.Context) {
	var req createInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid book instance payload: "+err.Error())
		return
	}

	status := entities.LoanStatusMaintenance
	if req.Status != nil {
		if !validStatus(*req.Status) {
			respondBadRequest(c, "invalid status code")
			return
		}
		status = *req.Status
	}

	in := instances.Input{
		Book: books.Input{
			Title:   req.Book.Title,
			Summary: req.Book.Summary,
			ISBN:    req.Book.ISBN,
			Genres:  req.Book.Genres,
		},
		Imprint: req.Imprint,
		DueBack: req.DueBack,
		Status:  status,
	}
	if req.Book.Author != nil {
		key := req.Book.Author.key()
		in.Book.Author = &key
	}

	instance, err := controller.repo.Create(in)
	if err != nil {
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, instance)
}

func (controller *InstancesController) UpdateInstance(c *gin.Context) {
	id, ok := parseInstanceID(c)
	if !ok {
		return
	}
	var req updateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid book instance payload: "+err.Error())
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		respondBadRequest(c, "invalid status code")
		return
	}

	instance, err := controller.repo.Update(id, instances.Update{
		Imprint: req.Imprint,
		DueBack: req.DueBack,
		Status:  req.Status,
	})
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Book instance")
			return
		}
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, instance)
}

func (controller *InstancesController) DeleteInstance(c *gin.Context) {
	id, ok := parseInstanceID(c)
	if !ok {
		return
	}
	if err := controller.repo.Delete(id); err != nil {
		if isNotFound(err) {
			respondNotFound(c, "Book instance")
			return
		}
		respondInternalError(c)
		return
	}
	c.Status(http.StatusNoContent)
}
