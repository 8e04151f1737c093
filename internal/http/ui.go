package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/auth"
	"locallibrary/internal/config"
	"locallibrary/internal/database"
	"locallibrary/internal/database/authors"
	"locallibrary/internal/database/books"
	"locallibrary/internal/database/instances"
	"locallibrary/internal/entities"
)

// pagination carries the prev/next state the list templates render.
type pagination struct {
	Page    int
	Pages   int
	HasPrev bool
	HasNext bool
	Prev    int
	Next    int
}

func paginate(page, pageSize int, total int64) pagination {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	return pagination{
		Page:    page,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
		Prev:    page - 1,
		Next:    page + 1,
	}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// PagesController serves the server-rendered catalog pages.
type PagesController struct {
	db             *database.Database
	books          *books.Repository
	authors        *authors.Repository
	instances      *instances.Repository
	sessionManager *auth.SessionManager
	config         config.Catalog
}

func NewPagesController(
	db *database.Database,
	booksRepo *books.Repository,
	authorsRepo *authors.Repository,
	instancesRepo *instances.Repository,
	sessionManager *auth.SessionManager,
	cfg config.Catalog,
) *PagesController {
	return &PagesController{
		db:             db,
		books:          booksRepo,
		authors:        authorsRepo,
		instances:      instancesRepo,
		sessionManager: sessionManager,
		config:         cfg,
	}
}

func (controller *PagesController) base(c *gin.Context) gin.H {
	return gin.H{
		"Username":    auth.GetUsername(c),
		"IsLoggedIn":  auth.GetUserID(c) != auth.AnonymousUserID,
		"IsLibrarian": auth.GetUserRole(c) == entities.UserRoleLibrarian,
	}
}

// Home renders the catalog summary with aggregate counts and the per-session
// visit counter.
func (controller *PagesController) Home(c *gin.Context) {
	counts, err := controller.db.GetCatalogCounts(
		controller.config.SpotlightGenre, controller.config.SpotlightTitle)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading catalog counts")
		return
	}

	visits := 1
	if controller.sessionManager != nil {
		visits = controller.sessionManager.IncrementVisits(c.Request)
	}

	data := controller.base(c)
	data["Counts"] = counts
	data["NumVisits"] = visits
	c.HTML(http.StatusOK, "index.html", data)
}

func (controller *PagesController) BooksPage(c *gin.Context) {
	page := pageParam(c)
	pageSize := controller.config.BooksPageSize
	result, total, err := controller.books.ListPage((page-1)*pageSize, pageSize)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading books")
		return
	}

	data := controller.base(c)
	data["Books"] = result
	data["Pagination"] = paginate(page, pageSize, total)
	c.HTML(http.StatusOK, "book_list.html", data)
}

func (controller *PagesController) BookDetailPage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	book, err := controller.books.GetByID(uint(id))
	if err != nil {
		c.String(http.StatusNotFound, "Book not found")
		return
	}

	data := controller.base(c)
	data["Book"] = book
	c.HTML(http.StatusOK, "book_detail.html", data)
}

func (controller *PagesController) AuthorsPage(c *gin.Context) {
	page := pageParam(c)
	pageSize := controller.config.AuthorsPageSize
	result, total, err := controller.authors.ListPage((page-1)*pageSize, pageSize)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading authors")
		return
	}

	data := controller.base(c)
	data["Authors"] = result
	data["Pagination"] = paginate(page, pageSize, total)
	c.HTML(http.StatusOK, "author_list.html", data)
}

func (controller *PagesController) AuthorDetailPage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.String(http.StatusNotFound, "Author not found")
		return
	}
	author, err := controller.authors.GetByID(uint(id))
	if err != nil {
		c.String(http.StatusNotFound, "Author not found")
		return
	}

	data := controller.base(c)
	data["Author"] = author
	c.HTML(http.StatusOK, "author_detail.html", data)
}

// MyBooksPage lists the caller's on-loan copies, soonest due first. Sits
// behind LoginRequiredPage.
func (controller *PagesController) MyBooksPage(c *gin.Context) {
	page := pageParam(c)
	pageSize := controller.config.LoansPageSize
	result, total, err := controller.instances.ListBorrowedByUserPage(
		auth.GetUserID(c), (page-1)*pageSize, pageSize)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading loans")
		return
	}

	data := controller.base(c)
	data["Instances"] = result
	data["Pagination"] = paginate(page, pageSize, total)
	c.HTML(http.StatusOK, "my_books.html", data)
}

// AllBorrowedPage lists every on-loan copy across all members. Librarian only.
func (controller *PagesController) AllBorrowedPage(c *gin.Context) {
	page := pageParam(c)
	pageSize := controller.config.LoansPageSize
	result, total, err := controller.instances.ListOnLoanPage((page-1)*pageSize, pageSize)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading loans")
		return
	}

	data := controller.base(c)
	data["Instances"] = result
	data["Pagination"] = paginate(page, pageSize, total)
	c.HTML(http.StatusOK, "all_borrowed.html", data)
}
