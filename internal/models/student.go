package models

import "time"

// Student represents a learner registered at the school together with
// guardian contact details.
type Student struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	TCNumber     string    `db:"tc_number" json:"tc_number"`
	BirthDate    time.Time `db:"birth_date" json:"birth_date"`
	Grade        string    `db:"grade" json:"grade"`
	Phone        string    `db:"phone" json:"phone"`
	Email        string    `db:"email" json:"email"`
	Address      string    `db:"address" json:"address"`
	ParentName   string    `db:"parent_name" json:"parent_name"`
	ParentPhone  string    `db:"parent_phone" json:"parent_phone"`
	ParentEmail  string    `db:"parent_email" json:"parent_email"`
	Parent2Name  *string   `db:"parent2_name" json:"parent2_name,omitempty"`
	Parent2Phone *string   `db:"parent2_phone" json:"parent2_phone,omitempty"`
	Parent2Email *string   `db:"parent2_email" json:"parent2_email,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display and filenames.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Grade     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
