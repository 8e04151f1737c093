// Package authors provides database operations for author records.
//
// Direct creation always inserts a new row; deduplication by natural key
// happens only through GetOrCreate, which nested book writes use.
package authors

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"locallibrary/internal/entities"
)

// Key is the natural key used to recognize "the same" author across
// repeated nested writes: all four fields must match, including nil dates.
type Key struct {
	FirstName   string
	LastName    string
	DateOfBirth *entities.Date
	DateOfDeath *entities.Date
}

// GetOrCreate resolves an author by natural key, creating one if no exact
// match exists. Callers running inside a transaction pass the tx handle.
func GetOrCreate(db *gorm.DB, key Key) (*entities.Author, error) {
	q := db.Where("first_name = ? AND last_name = ?", key.FirstName, key.LastName)
	if key.DateOfBirth != nil {
		q = q.Where("date_of_birth = ?", key.DateOfBirth)
	} else {
		q = q.Where("date_of_birth IS NULL")
	}
	if key.DateOfDeath != nil {
		q = q.Where("date_of_death = ?", key.DateOfDeath)
	} else {
		q = q.Where("date_of_death IS NULL")
	}

	var author entities.Author
	err := q.First(&author).Error
	if err == nil {
		return &author, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	author = entities.Author{
		FirstName:   key.FirstName,
		LastName:    key.LastName,
		DateOfBirth: key.DateOfBirth,
		DateOfDeath: key.DateOfDeath,
	}
	if err := db.Create(&author).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns authors matching the optional first/last name filters, each a
// case-insensitive substring match combined with AND. Empty filters return
// the full set.
func (r *Repository) List(firstName, lastName string) ([]entities.Author, error) {
	q := r.db.Order("last_name ASC, first_name ASC")
	if firstName != "" {
		q = q.Where("LOWER(first_name) LIKE LOWER(?)", "%"+firstName+"%")
	}
	if lastName != "" {
		q = q.Where("LOWER(last_name) LIKE LOWER(?)", "%"+lastName+"%")
	}

	result := make([]entities.Author, 0)
	err := q.Find(&result).Error
	return result, err
}

// ListPage returns one page of authors plus the total count.
func (r *Repository) ListPage(offset, limit int) ([]entities.Author, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Author{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	result := make([]entities.Author, 0)
	err := r.db.Order("last_name ASC, first_name ASC").
		Offset(offset).Limit(limit).Find(&result).Error
	return result, total, err
}

func (r *Repository) GetByID(id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.Preload("Books").First(&author, id).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *Repository) GetOrCreate(key Key) (*entities.Author, error) {
	return GetOrCreate(r.db, key)
}

// Create inserts a new author row unconditionally. Duplicates of an existing
// natural key are allowed at this layer.
func (r *Repository) Create(author *entities.Author) error {
	return r.db.Create(author).Error
}

func (r *Repository) Update(author *entities.Author) error {
	return r.db.Omit(clause.Associations).Save(author).Error
}

// Delete removes the author. Books keep existing with their author reference
// cleared, mirroring an FK with on-delete-set-null.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var author entities.Author
		if err := tx.First(&author, id).Error; err != nil {
			return err
		}
		err := tx.Model(&entities.Book{}).
			Where("author_id = ?", id).
			Update("author_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&author).Error
	})
}
