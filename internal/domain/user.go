package domain

import "time"

// User is a persisted identity record. PasswordHash is empty when the record
// was loaded through a default projection.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Draft is a not-yet-persisted user. Password is plaintext on the single-record
// path; on the bulk path it may already be a bcrypt hash. Plaintext is capped
// at 72 bytes, the bcrypt input limit.
type Draft struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required,maxbytes=72"`
	Role      string `json:"role" validate:"required,oneof=user admin"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	FirstName *string
	LastName  *string
	Username  *string
	Email     *string
	Password  *string
	Role      *string
}

// Person is one synthetic identity produced by a fake-data generator.
type Person struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
}
