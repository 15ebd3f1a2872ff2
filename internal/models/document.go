package models

import "time"

// Document is one registered source document (a drawing or spec file).
type Document struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Folder    string    `json:"folder,omitempty" db:"folder"`
	Path      string    `json:"path" db:"path"`
	Title     string    `json:"title,omitempty" db:"title"`
	Pages     int       `json:"pages" db:"pages"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Page is one extracted page of a document, the unit handed to the index.
type Page struct {
	Number  int    `json:"number"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}
