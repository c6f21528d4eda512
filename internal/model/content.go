package model

import "time"

// Book is a published or draft title. Series holds the slugs of the series
// the book belongs to, denormalized from the junction table at read time.
type Book struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Description string     `json:"description"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Badges      []string   `json:"badges"`
	PublishDate string     `json:"publish_date,omitempty"`
	Published   bool       `json:"published"`
	Series      []string   `json:"series"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Series struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Published   bool       `json:"published"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type World struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Published   bool       `json:"published"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Character belongs to zero or more worlds. Worlds holds the world slugs,
// denormalized from the junction table at read time.
type Character struct {
	ID        int64      `json:"id"`
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	Role      string     `json:"role,omitempty"`
	Bio       string     `json:"bio"`
	Tags      []string   `json:"tags"`
	Published bool       `json:"published"`
	Worlds    []string   `json:"worlds"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
