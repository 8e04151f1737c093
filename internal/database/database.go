// Package database owns the gorm connection and schema migration for the
// catalog. Entity-specific queries live in the per-entity repository
// subpackages (authors, books, genres, languages, instances).
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"locallibrary/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Foreign keys are off by default in sqlite
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Genre{},
		&entities.Language{},
		&entities.Book{},
		&entities.BookInstance{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CatalogCounts holds the aggregate numbers shown on the home page.
type CatalogCounts struct {
	Books              int64
	Instances          int64
	InstancesAvailable int64
	Authors            int64
	SpotlightGenres    int64
	SpotlightBooks     int64
}

// GetCatalogCounts computes the home page aggregates. The spotlight counts
// are case-insensitive substring matches against genre names and book titles.
func (d *Database) GetCatalogCounts(spotlightGenre, spotlightTitle string) (CatalogCounts, error) {
	var counts CatalogCounts

	if err := d.DB.Model(&entities.Book{}).Count(&counts.Books).Error; err != nil {
		return counts, err
	}
	if err := d.DB.Model(&entities.BookInstance{}).Count(&counts.Instances).Error; err != nil {
		return counts, err
	}
	err := d.DB.Model(&entities.BookInstance{}).
		Where("status = ?", entities.LoanStatusAvailable).
		Count(&counts.InstancesAvailable).Error
	if err != nil {
		return counts, err
	}
	if err := d.DB.Model(&entities.Author{}).Count(&counts.Authors).Error; err != nil {
		return counts, err
	}
	err = d.DB.Model(&entities.Genre{}).
		Where("LOWER(name) LIKE LOWER(?)", "%"+spotlightGenre+"%").
		Count(&counts.SpotlightGenres).Error
	if err != nil {
		return counts, err
	}
	err = d.DB.Model(&entities.Book{}).
		Where("LOWER(title) LIKE LOWER(?)", "%"+spotlightTitle+"%").
		Count(&counts.SpotlightBooks).Error
	return counts, err
}

// TotalRows sums the row counts of all catalog tables. Used by tests to
// verify that rejected writes leave the store untouched.
func (d *Database) TotalRows() (int64, error) {
	var total int64
	for _, model := range []any{
		&entities.Author{}, &entities.Genre{}, &entities.Language{},
		&entities.Book{}, &entities.BookInstance{},
	} {
		var n int64
		if err := d.DB.Model(model).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
