// Package languages provides database operations for language records.
package languages

import (
	"gorm.io/gorm"

	"locallibrary/internal/entities"
)

// Repository handles all language database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List() ([]entities.Language, error) {
	result := make([]entities.Language, 0)
	err := r.db.Order("name ASC").Find(&result).Error
	return result, err
}

func (r *Repository) GetByID(id uint) (*entities.Language, error) {
	var language entities.Language
	err := r.db.First(&language, id).Error
	if err != nil {
		return nil, err
	}
	return &language, nil
}

// Create inserts a new language row unconditionally; names are not deduped.
func (r *Repository) Create(name string) (*entities.Language, error) {
	language := &entities.Language{Name: name}
	if err := r.db.Create(language).Error; err != nil {
		return nil, err
	}
	return language, nil
}

func (r *Repository) Update(language *entities.Language) error {
	return r.db.Save(language).Error
}

// Delete removes the language, clearing the reference on any books first.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var language entities.Language
		if err := tx.First(&language, id).Error; err != nil {
			return err
		}
		err := tx.Model(&entities.Book{}).
			Where("language_id = ?", id).
			Update("language_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&language).Error
	})
}
