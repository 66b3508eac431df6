package models

import "time"

// Club is a student activity group with a fixed membership ceiling.
type Club struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Capacity    int       `db:"capacity" json:"capacity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClubSummary extends Club with its current occupancy.
type ClubSummary struct {
	Club
	MemberCount int `db:"member_count" json:"member_count"`
}

// ClubSelection is the join record for one student's membership in one club.
// A (student_id, club_id) pair is unique.
type ClubSelection struct {
	ID        string    `db:"id" json:"id"`
	ClubID    string    `db:"club_id" json:"club_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClubMember enriches a selection with student display fields.
type ClubMember struct {
	ClubSelection
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	TCNumber  string `db:"tc_number" json:"tc_number"`
	Grade     string `db:"grade" json:"grade"`
}

// ClubDetail is a club together with its enrolled members.
type ClubDetail struct {
	Club
	Members []ClubMember `json:"members"`
}

// SelectionRequest is one candidate (club, student) pair in a batch
// enrollment call.
type SelectionRequest struct {
	ClubID    string `json:"club_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}
