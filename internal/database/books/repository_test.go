package books

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"locallibrary/internal/database/authors"
	"locallibrary/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Genre{},
		&entities.Language{},
		&entities.Book{},
		&entities.BookInstance{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func TestRepository_Create_ResolvesNestedAuthorAndGenres(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.Create(Input{
		Title:   "The Hobbit",
		Summary: "A hobbit goes on an adventure",
		ISBN:    "9780261103344",
		Author:  &authors.Key{FirstName: "J.R.R.", LastName: "Tolkien"},
		Genres:  []string{"Fantasy", "Adventure"},
	})

	require.NoError(t, err)
	require.NotNil(t, book.Author)
	assert.Equal(t, "Tolkien", book.Author.LastName)
	assert.Len(t, book.Genres, 2)

	var authorCount, genreCount int64
	require.NoError(t, db.Model(&entities.Author{}).Count(&authorCount).Error)
	require.NoError(t, db.Model(&entities.Genre{}).Count(&genreCount).Error)
	assert.Equal(t, int64(1), authorCount)
	assert.Equal(t, int64(2), genreCount)
}

func TestRepository_Create_ReusesExistingAuthorAndGenres(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(Input{
		Title:  "The Hobbit",
		Author: &authors.Key{FirstName: "J.R.R.", LastName: "Tolkien"},
		Genres: []string{"Fantasy"},
	})
	require.NoError(t, err)

	second, err := repo.Create(Input{
		Title:  "The Silmarillion",
		Author: &authors.Key{FirstName: "J.R.R.", LastName: "Tolkien"},
		Genres: []string{"Fantasy"},
	})
	require.NoError(t, err)
	require.NotNil(t, second.Author)

	var authorCount, genreCount int64
	require.NoError(t, db.Model(&entities.Author{}).Count(&authorCount).Error)
	require.NoError(t, db.Model(&entities.Genre{}).Count(&genreCount).Error)
	assert.Equal(t, int64(1), authorCount)
	assert.Equal(t, int64(1), genreCount)
}

func TestRepository_List_TitleFilterIsCaseInsensitiveSubstring(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(Input{Title: "War and Peace"})
	require.NoError(t, err)
	_, err = repo.Create(Input{Title: "The Art of War"})
	require.NoError(t, err)
	_, err = repo.Create(Input{Title: "Emma"})
	require.NoError(t, err)

	result, err := repo.List(Filter{Title: "war"})
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestRepository_List_AuthorFilterMatchesFirstOrLastName(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(Input{
		Title:  "Emma",
		Author: &authors.Key{FirstName: "Jane", LastName: "Austen"},
	})
	require.NoError(t, err)
	_, err = repo.Create(Input{
		Title:  "Jane Eyre",
		Author: &authors.Key{FirstName: "Charlotte", LastName: "Bronte"},
	})
	require.NoError(t, err)

	// "jane" matches Austen's first name only, not Bronte
	result, err := repo.List(Filter{Author: "jane"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Emma", result[0].Title)

	byLast, err := repo.List(Filter{Author: "bront"})
	require.NoError(t, err)
	require.Len(t, byLast, 1)
	assert.Equal(t, "Jane Eyre", byLast[0].Title)
}

func TestRepository_List_FiltersCombineWithAnd(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(Input{Title: "The Hobbit", Genres: []string{"Fantasy"}})
	require.NoError(t, err)
	_, err = repo.Create(Input{Title: "The Art of War", Genres: []string{"Strategy"}})
	require.NoError(t, err)

	result, err := repo.List(Filter{Title: "the", Genre: "fantasy"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "The Hobbit", result[0].Title)
}

func TestRepository_List_GenreFilterDoesNotDuplicateBooks(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(Input{Title: "The Hobbit", Genres: []string{"Fantasy", "Fantasy Adventure"}})
	require.NoError(t, err)

	// Both genres match the substring; the book must appear once
	result, err := repo.List(Filter{Genre: "fantasy"})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestRepository_Update_PartialFields(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.Create(Input{
		Title:   "The Hobbit",
		Summary: "First edition summary",
		ISBN:    "9780261103344",
	})
	require.NoError(t, err)

	newTitle := "The Hobbit, or There and Back Again"
	updated, err := repo.Update(book.ID, Update{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, "First edition summary", updated.Summary)
	assert.Equal(t, "9780261103344", updated.ISBN)
}

func TestRepository_Update_ReplacesGenreSet(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.Create(Input{Title: "The Hobbit", Genres: []string{"Fantasy", "Adventure"}})
	require.NoError(t, err)

	newGenres := []string{"Children"}
	updated, err := repo.Update(book.ID, Update{Genres: &newGenres})
	require.NoError(t, err)

	require.Len(t, updated.Genres, 1)
	assert.Equal(t, "Children", updated.Genres[0].Name)
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	title := "anything"
	_, err := repo.Update(999, Update{Title: &title})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Delete_RemovesInstances(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.Create(Input{Title: "The Hobbit", Genres: []string{"Fantasy"}})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		instance := entities.BookInstance{BookID: book.ID, Status: entities.LoanStatusAvailable}
		require.NoError(t, db.Create(&instance).Error)
	}

	require.NoError(t, repo.Delete(book.ID))

	var instanceCount, linkCount int64
	require.NoError(t, db.Model(&entities.BookInstance{}).Count(&instanceCount).Error)
	require.NoError(t, db.Table("book_genres").Count(&linkCount).Error)
	assert.Zero(t, instanceCount)
	assert.Zero(t, linkCount)

	// The genre itself survives
	var genreCount int64
	require.NoError(t, db.Model(&entities.Genre{}).Count(&genreCount).Error)
	assert.Equal(t, int64(1), genreCount)
}

func TestGetOrCreate_MatchesOnAllFields(t *testing.T) {
	_, db, cleanup := setupTestDB(t)
	defer cleanup()

	in := Input{
		Title:   "The Hobbit",
		Summary: "A hobbit goes on an adventure",
		ISBN:    "9780261103344",
		Author:  &authors.Key{FirstName: "J.R.R.", LastName: "Tolkien"},
	}
	first, err := GetOrCreate(db, in)
	require.NoError(t, err)

	second, err := GetOrCreate(db, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A different summary is a different book
	in.Summary = "Revised summary"
	third, err := GetOrCreate(db, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestGetOrCreate_ReplacesGenresOnExistingBook(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.Create(Input{Title: "The Hobbit", Genres: []string{"Fantasy"}})
	require.NoError(t, err)

	_, err = GetOrCreate(db, Input{Title: "The Hobbit", Genres: []string{"Adventure"}})
	require.NoError(t, err)

	reloaded, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Genres, 1)
	assert.Equal(t, "Adventure", reloaded.Genres[0].Name)
}
