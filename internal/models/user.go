package models

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID        int       `json:"id" db:"id"`
	FullName  string    `json:"fullName" db:"full_name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	CreatedOn time.Time `json:"createdOn" db:"created_on"`
}
