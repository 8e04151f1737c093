package entities

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanStatus is the single-letter availability code of a physical copy.
type LoanStatus string

const (
	LoanStatusMaintenance LoanStatus = "m"
	LoanStatusOnLoan      LoanStatus = "o"
	LoanStatusAvailable   LoanStatus = "a"
	LoanStatusReserved    LoanStatus = "r"
)

// Date is a calendar date without a time component. It marshals as
// "2006-01-02" in JSON and is stored as a date column.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse(time.DateOnly, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Format(time.DateOnly), nil
}

func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		t, err := time.Parse(time.DateOnly, v[:min(len(v), 10)])
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

type Author struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FirstName   string    `gorm:"index;size:100" json:"first_name"`
	LastName    string    `gorm:"index;size:100" json:"last_name"`
	DateOfBirth *Date     `gorm:"type:date" json:"date_of_birth,omitempty"`
	DateOfDeath *Date     `gorm:"type:date" json:"date_of_death,omitempty"`
	Books       []Book    `gorm:"foreignKey:AuthorID" json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// FullName renders "Last, First" the way the list pages display authors.
func (a Author) FullName() string {
	return a.LastName + ", " + a.FirstName
}

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:200" json:"name"`
	Books     []Book    `gorm:"many2many:book_genres;" json:"-"`
	CreatedAt time.Time `json:"-"`
}

type Language struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:200" json:"name"`
	Books     []Book    `gorm:"foreignKey:LanguageID" json:"-"`
	CreatedAt time.Time `json:"-"`
}

type Book struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"index;size:200" json:"title"`
	Summary    string    `gorm:"type:text" json:"summary"`
	ISBN       string    `gorm:"index;size:13" json:"isbn"`
	AuthorID   *uint     `gorm:"index" json:"-"`
	Author     *Author   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	LanguageID *uint     `gorm:"index" json:"-"`
	Language   *Language `gorm:"foreignKey:LanguageID" json:"language,omitempty"`
	Genres     []Genre   `gorm:"many2many:book_genres;" json:"genre"`

	Instances []BookInstance `gorm:"foreignKey:BookID" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BookInstance is one physical, loanable copy of a Book. Its identity is an
// opaque UUID rather than a sequential integer.
type BookInstance struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	BookID     uint       `gorm:"index" json:"-"`
	Book       *Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Imprint    string     `gorm:"size:200" json:"imprint"`
	DueBack    *Date      `gorm:"type:date" json:"due_back,omitempty"`
	Status     LoanStatus `gorm:"size:1;default:'m'" json:"status"`
	BorrowerID *uint      `gorm:"index" json:"-"`
	Borrower   *User      `gorm:"foreignKey:BorrowerID" json:"-"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`
}

func (bi *BookInstance) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == "" {
		bi.ID = uuid.NewString()
	}
	return nil
}

// IsOverdue reports whether an on-loan copy is past its due date.
func (bi BookInstance) IsOverdue() bool {
	return bi.Status == LoanStatusOnLoan && bi.DueBack != nil &&
		bi.DueBack.Before(time.Now())
}

func (Author) TableName() string {
	return "authors"
}

func (Genre) TableName() string {
	return "genres"
}

func (Language) TableName() string {
	return "languages"
}

func (Book) TableName() string {
	return "books"
}

func (BookInstance) TableName() string {
	return "book_instances"
}
