package entities

import "time"

// Admin is an operator account for the privileged API surface.
type Admin struct {
	ID        int64
	Login     string
	Password  string
	CreatedAt time.Time
}
