// Package instances provides database operations for physical book copies.
//
// Registering a copy can transitively create its book, that book's author,
// and any genres, all via get-or-create resolution inside one transaction.
package instances

import (
	"time"

	"gorm.io/gorm"

	"locallibrary/internal/database/books"
	"locallibrary/internal/entities"
)

// Input carries the fields of a copy registration, including the nested
// book reference to resolve.
type Input struct {
	Book    books.Input
	Imprint string
	DueBack *entities.Date
	Status  entities.LoanStatus
}

// Update carries a partial update; nil fields are left unchanged.
type Update struct {
	Imprint *string
	DueBack *entities.Date
	Status  *entities.LoanStatus
}

// Repository handles all book copy database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) preloaded(db *gorm.DB) *gorm.DB {
	return db.Preload("Book").Preload("Book.Author").Preload("Book.Genres")
}

// ListAll returns every copy in the catalog, unpaginated.
func (r *Repository) ListAll() ([]entities.BookInstance, error) {
	result := make([]entities.BookInstance, 0)
	err := r.preloaded(r.db).Order("id ASC").Find(&result).Error
	return result, err
}

func (r *Repository) GetByID(id string) (*entities.BookInstance, error) {
	var instance entities.BookInstance
	err := r.preloaded(r.db).Where("id = ?", id).First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// Create registers a copy, resolving the nested book (and that book's
// author and genres) via get-or-create. All-or-nothing: a failure at any
// step rolls back every row created along the way.
func (r *Repository) Create(in Input) (*entities.BookInstance, error) {
	var id string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		book, err := books.GetOrCreate(tx, in.Book)
		if err != nil {
			return err
		}
		instance := entities.BookInstance{
			BookID:  book.ID,
			Imprint: in.Imprint,
			DueBack: in.DueBack,
			Status:  in.Status,
		}
		if err := tx.Create(&instance).Error; err != nil {
			return err
		}
		id = instance.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Update applies the provided fields. Returns gorm.ErrRecordNotFound when
// the id does not resolve.
func (r *Repository) Update(id string, up Update) (*entities.BookInstance, error) {
	var instance entities.BookInstance
	if err := r.db.Where("id = ?", id).First(&instance).Error; err != nil {
		return nil, err
	}

	if up.Imprint != nil {
		instance.Imprint = *up.Imprint
	}
	if up.DueBack != nil {
		instance.DueBack = up.DueBack
	}
	if up.Status != nil {
		instance.Status = *up.Status
	}
	if err := r.db.Save(&instance).Error; err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *Repository) Delete(id string) error {
	var instance entities.BookInstance
	if err := r.db.Where("id = ?", id).First(&instance).Error; err != nil {
		return err
	}
	return r.db.Delete(&instance).Error
}

// SetBorrower lends a copy to a user: status goes to on-loan with the given
// due date. Passing nil clears the loan and marks the copy available.
func (r *Repository) SetBorrower(id string, userID *uint, dueBack *entities.Date) error {
	var instance entities.BookInstance
	if err := r.db.Where("id = ?", id).First(&instance).Error; err != nil {
		return err
	}
	if userID != nil {
		instance.BorrowerID = userID
		instance.DueBack = dueBack
		instance.Status = entities.LoanStatusOnLoan
	} else {
		instance.BorrowerID = nil
		instance.DueBack = nil
		instance.Status = entities.LoanStatusAvailable
	}
	return r.db.Save(&instance).Error
}

// ListBorrowedByUser returns the caller's on-loan copies, due date ascending.
func (r *Repository) ListBorrowedByUser(userID uint) ([]entities.BookInstance, error) {
	result := make([]entities.BookInstance, 0)
	err := r.preloaded(r.db).
		Where("borrower_id = ? AND status = ?", userID, entities.LoanStatusOnLoan).
		Order("due_back ASC").
		Find(&result).Error
	return result, err
}

// ListOnLoan returns every on-loan copy, due date ascending. Backs the
// librarian-only all-borrowed view.
func (r *Repository) ListOnLoan() ([]entities.BookInstance, error) {
	result := make([]entities.BookInstance, 0)
	err := r.preloaded(r.db).
		Where("status = ?", entities.LoanStatusOnLoan).
		Order("due_back ASC").
		Find(&result).Error
	return result, err
}

// ListBorrowedByUserPage returns one page of the caller's on-loan copies
// plus the total count.
func (r *Repository) ListBorrowedByUserPage(userID uint, offset, limit int) ([]entities.BookInstance, int64, error) {
	base := r.db.Model(&entities.BookInstance{}).
		Where("borrower_id = ? AND status = ?", userID, entities.LoanStatusOnLoan)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	result := make([]entities.BookInstance, 0)
	err := r.preloaded(r.db).
		Where("borrower_id = ? AND status = ?", userID, entities.LoanStatusOnLoan).
		Order("due_back ASC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	return result, total, err
}

// ListOnLoanPage returns one page of all on-loan copies plus the total count.
func (r *Repository) ListOnLoanPage(offset, limit int) ([]entities.BookInstance, int64, error) {
	var total int64
	err := r.db.Model(&entities.BookInstance{}).
		Where("status = ?", entities.LoanStatusOnLoan).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	result := make([]entities.BookInstance, 0)
	err = r.preloaded(r.db).Preload("Borrower").
		Where("status = ?", entities.LoanStatusOnLoan).
		Order("due_back ASC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	return result, total, err
}

// CountOverdue counts on-loan copies whose due date has passed.
func (r *Repository) CountOverdue() (int64, error) {
	var n int64
	err := r.db.Model(&entities.BookInstance{}).
		Where("status = ? AND due_back < ?", entities.LoanStatusOnLoan,
			time.Now().Format(time.DateOnly)).
		Count(&n).Error
	return n, err
}
