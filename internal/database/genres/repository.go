// Package genres provides database operations for genre records.
//
// The direct Create path never dedupes: posting the same name twice yields
// two rows. Only GetOrCreate, used when resolving genre references nested in
// book writes, matches existing rows by name.
package genres

import (
	"gorm.io/gorm"

	"locallibrary/internal/entities"
)

// GetOrCreate resolves a genre by exact name, creating it if absent.
func GetOrCreate(db *gorm.DB, name string) (*entities.Genre, error) {
	var genre entities.Genre
	err := db.Where("name = ?", name).First(&genre).Error
	if err == nil {
		return &genre, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	genre = entities.Genre{Name: name}
	if err := db.Create(&genre).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

// Repository handles all genre database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List() ([]entities.Genre, error) {
	result := make([]entities.Genre, 0)
	err := r.db.Order("name ASC").Find(&result).Error
	return result, err
}

func (r *Repository) GetByID(id uint) (*entities.Genre, error) {
	var genre entities.Genre
	err := r.db.First(&genre, id).Error
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *Repository) GetOrCreate(name string) (*entities.Genre, error) {
	return GetOrCreate(r.db, name)
}

// Create inserts a new genre row unconditionally, even when the name matches
// an existing row.
func (r *Repository) Create(name string) (*entities.Genre, error) {
	genre := &entities.Genre{Name: name}
	if err := r.db.Create(genre).Error; err != nil {
		return nil, err
	}
	return genre, nil
}

func (r *Repository) Update(genre *entities.Genre) error {
	return r.db.Save(genre).Error
}

func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var genre entities.Genre
		if err := tx.First(&genre, id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM book_genres WHERE genre_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&genre).Error
	})
}
