// Package memory implements domain.Store over a slice held in process memory.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"postboard/domain"
)

// Compile-time assertion that Store implements domain.Store.
var _ domain.Store = (*Store)(nil)

// Store keeps posts in insertion order and assigns ids from a counter that
// only moves forward.
type Store struct {
	mu     sync.RWMutex
	posts  []domain.Post
	nextID int64
	order  domain.Ordering
	now    func() time.Time
}

type Option func(*Store)

// WithSeed loads posts with their existing ids. The id counter continues
// after the highest numeric seeded id.
func WithSeed(posts []domain.Post) Option {
	return func(s *Store) {
		for _, p := range posts {
			s.posts = append(s.posts, p)
			if n, err := strconv.ParseInt(p.ID, 10, 64); err == nil && n >= s.nextID {
				s.nextID = n + 1
			}
		}
	}
}

func WithOrdering(o domain.Ordering) Option {
	return func(s *Store) {
		s.order = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		order: domain.OrderInsertion,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.order == domain.OrderDefault {
		s.order = domain.OrderInsertion
	}
	return s
}

// List returns a copy of the stored posts.
func (s *Store) List(_ context.Context) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]domain.Post, 0, len(s.posts))
	if s.order == domain.OrderNewestFirst {
		// The slice is kept in insertion order, so newest first is a reverse
		// walk sorted by date.
		for i := len(s.posts) - 1; i >= 0; i-- {
			posts = append(posts, s.posts[i])
		}
		sortNewestFirst(posts)
		return posts, nil
	}
	return append(posts, s.posts...), nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Post{}, domain.ErrNotFound
	}
	return s.posts[i], nil
}

func (s *Store) Create(_ context.Context, in domain.PostInput) (domain.Post, error) {
	if err := in.Validate(); err != nil {
		return domain.Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	image, _ := in.Image.Get()
	p := domain.Post{
		ID:      strconv.FormatInt(s.nextID, 10),
		Title:   in.Title,
		Content: in.Content,
		Image:   image,
		Date:    s.now(),
	}
	s.nextID++
	s.posts = append(s.posts, p)
	return p, nil
}

func (s *Store) Update(_ context.Context, id string, in domain.PostInput) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Post{}, domain.ErrNotFound
	}
	s.posts[i] = domain.ApplyUpdate(s.posts[i], in, s.now())
	return s.posts[i], nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	return nil
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

func sortNewestFirst(posts []domain.Post) {
	slices.SortStableFunc(posts, func(a, b domain.Post) int {
		return b.Date.Compare(a.Date)
	})
}
