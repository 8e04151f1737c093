// Package books provides database operations for book records, including the
// nested author/genre resolution performed on create and update.
//
// Nested references are resolved with get-or-create semantics: an author
// matching on (first_name, last_name, date_of_birth, date_of_death) or a
// genre matching on name is reused, otherwise created. Every multi-entity
// write runs in a single transaction.
package books

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"locallibrary/internal/database/authors"
	"locallibrary/internal/database/genres"
	"locallibrary/internal/entities"
)

// Filter holds the optional list filters. Active filters combine with AND;
// each is a case-insensitive substring match. The author filter matches the
// first OR the last name.
type Filter struct {
	Title  string
	Author string
	Genre  string
}

// Input carries the fields of a book create. A nil Author leaves the book
// without an owning author; Genres is the full genre name set.
type Input struct {
	Title   string
	Summary string
	ISBN    string
	Author  *authors.Key
	Genres  []string
}

// Update carries a partial update. Nil fields are left unchanged; a non-nil
// Genres replaces the association set wholesale.
type Update struct {
	Title   *string
	Summary *string
	ISBN    *string
	Author  *authors.Key
	Genres  *[]string
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) preloaded(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Language").Preload("Genres")
}

// List returns all books matching the filter, unpaginated.
func (r *Repository) List(f Filter) ([]entities.Book, error) {
	q := r.preloaded(r.db).Model(&entities.Book{}).Order("books.title ASC")

	if f.Title != "" {
		q = q.Where("LOWER(books.title) LIKE LOWER(?)", "%"+f.Title+"%")
	}
	if f.Author != "" {
		pattern := "%" + f.Author + "%"
		q = q.Joins("LEFT JOIN authors ON authors.id = books.author_id").
			Where("LOWER(authors.first_name) LIKE LOWER(?) OR LOWER(authors.last_name) LIKE LOWER(?)",
				pattern, pattern)
	}
	if f.Genre != "" {
		q = q.Joins("JOIN book_genres ON book_genres.book_id = books.id").
			Joins("JOIN genres ON genres.id = book_genres.genre_id").
			Where("LOWER(genres.name) LIKE LOWER(?)", "%"+f.Genre+"%").
			Group("books.id")
	}

	result := make([]entities.Book, 0)
	err := q.Find(&result).Error
	return result, err
}

// ListPage returns one page of books plus the total count.
func (r *Repository) ListPage(offset, limit int) ([]entities.Book, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	result := make([]entities.Book, 0)
	err := r.preloaded(r.db).Order("title ASC").
		Offset(offset).Limit(limit).Find(&result).Error
	return result, total, err
}

func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.preloaded(r.db).Preload("Instances").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Create resolves the nested author and genres, then inserts the book. The
// whole sequence is one transaction: a failed genre resolution leaves no
// book or author behind.
func (r *Repository) Create(in Input) (*entities.Book, error) {
	var id uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		book, err := create(tx, in)
		if err != nil {
			return err
		}
		id = book.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Update applies the provided fields to an existing book. Returns
// gorm.ErrRecordNotFound when the id does not resolve.
func (r *Repository) Update(id uint, up Update) (*entities.Book, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			return err
		}

		if up.Title != nil {
			book.Title = *up.Title
		}
		if up.Summary != nil {
			book.Summary = *up.Summary
		}
		if up.ISBN != nil {
			book.ISBN = *up.ISBN
		}
		if up.Author != nil {
			author, err := authors.GetOrCreate(tx, *up.Author)
			if err != nil {
				return err
			}
			book.AuthorID = &author.ID
		}
		if err := tx.Omit(clause.Associations).Save(&book).Error; err != nil {
			return err
		}

		if up.Genres != nil {
			return setGenres(tx, &book, *up.Genres)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Delete removes the book and all its copies. Instances go first so no copy
// is ever left referencing a missing book.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			return err
		}
		err := tx.Where("book_id = ?", id).Delete(&entities.BookInstance{}).Error
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM book_genres WHERE book_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&book).Error
	})
}

// GetOrCreate resolves a book by (title, author, summary, isbn), creating it
// if absent. The genre set is replaced either way, matching the behavior of
// a nested book reference inside a copy registration.
func GetOrCreate(tx *gorm.DB, in Input) (*entities.Book, error) {
	var authorID *uint
	if in.Author != nil {
		author, err := authors.GetOrCreate(tx, *in.Author)
		if err != nil {
			return nil, err
		}
		authorID = &author.ID
	}

	q := tx.Where("title = ? AND summary = ? AND isbn = ?", in.Title, in.Summary, in.ISBN)
	if authorID != nil {
		q = q.Where("author_id = ?", *authorID)
	} else {
		q = q.Where("author_id IS NULL")
	}

	var book entities.Book
	err := q.First(&book).Error
	if err == gorm.ErrRecordNotFound {
		book = entities.Book{
			Title:    in.Title,
			Summary:  in.Summary,
			ISBN:     in.ISBN,
			AuthorID: authorID,
		}
		if err := tx.Create(&book).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := setGenres(tx, &book, in.Genres); err != nil {
		return nil, err
	}
	return &book, nil
}

func create(tx *gorm.DB, in Input) (*entities.Book, error) {
	book := entities.Book{
		Title:   in.Title,
		Summary: in.Summary,
		ISBN:    in.ISBN,
	}
	if in.Author != nil {
		author, err := authors.GetOrCreate(tx, *in.Author)
		if err != nil {
			return nil, err
		}
		book.AuthorID = &author.ID
	}
	if err := tx.Create(&book).Error; err != nil {
		return nil, err
	}
	if err := setGenres(tx, &book, in.Genres); err != nil {
		return nil, err
	}
	return &book, nil
}

// setGenres resolves each name via get-or-create and replaces the book's
// genre set ("set" semantics, not "append").
func setGenres(tx *gorm.DB, book *entities.Book, names []string) error {
	resolved := make([]entities.Genre, 0, len(names))
	for _, name := range names {
		genre, err := genres.GetOrCreate(tx, name)
		if err != nil {
			return err
		}
		resolved = append(resolved, *genre)
	}
	return tx.Model(book).Association("Genres").Replace(resolved)
}
