package domain

import (
	"context"
	"time"
)

type Post struct {
	ID      string
	Title   string
	Content string
	Image   string
	Date    time.Time
}

// PostInput carries the fields a client submits for create and update.
type PostInput struct {
	Title   string `validate:"required"`
	Content string `validate:"required"`
	Image   Image  `validate:"-"`
}

// Store owns post persistence and identity assignment.
type Store interface {
	// List returns every live post in the store's configured Ordering.
	List(ctx context.Context) ([]Post, error)
	// Get returns ErrNotFound when no post has the given id.
	Get(ctx context.Context, id string) (Post, error)
	// Create returns a *ValidationError and leaves the store untouched when
	// the title or the content is empty.
	Create(ctx context.Context, in PostInput) (Post, error)
	// Update replaces title and content. A NoImage input keeps the current
	// image. The id never changes and the date is refreshed.
	Update(ctx context.Context, id string, in PostInput) (Post, error)
	Delete(ctx context.Context, id string) error
}

// ApplyUpdate returns p with in applied under the image retention policy.
func ApplyUpdate(p Post, in PostInput, now time.Time) Post {
	p.Title = in.Title
	p.Content = in.Content
	if path, ok := in.Image.Get(); ok {
		p.Image = path
	}
	p.Date = now
	return p
}
