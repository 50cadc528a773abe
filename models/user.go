package models

// User represents a row in the "users" table. Users are seeded out of band
// and only ever read, by username, during login.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
}
