package models

import "time"

// Project is a container of tasks owned by a single user
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerEmail  string    `json:"owner_email"`
}
