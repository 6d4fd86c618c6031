// Package sqldb implements domain.Store over SQLite or PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"postboard/domain"
)

var _ domain.Store = (*Store)(nil)

// dateLayout is fixed width so that SQLite orders dates stored as text
// chronologically.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectPost = "SELECT id, title, content, image, date FROM posts"

type Store struct {
	db    *sql.DB
	order domain.Ordering
	now   func() time.Time
}

type Option func(*Store)

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

// New returns a Store over an already migrated database. Posts are listed
// newest first unless told otherwise.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		order: domain.OrderNewestFirst,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.order == domain.OrderDefault {
		s.order = domain.OrderNewestFirst
	}
	return s
}

func (s *Store) List(ctx context.Context) ([]domain.Post, error) {
	query := selectPost + " ORDER BY date DESC, id DESC"
	if s.order == domain.OrderInsertion {
		query = selectPost + " ORDER BY id ASC"
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating posts")
	}
	return posts, nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Post, error) {
	n, err := parseID(id)
	if err != nil {
		return domain.Post{}, err
	}
	return getPost(ctx, s.db, n)
}

func (s *Store) Create(ctx context.Context, in domain.PostInput) (domain.Post, error) {
	if err := in.Validate(); err != nil {
		return domain.Post{}, err
	}

	image, _ := in.Image.Get()
	p := domain.Post{
		Title:   in.Title,
		Content: in.Content,
		Image:   image,
		Date:    s.now().UTC().Truncate(time.Microsecond),
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO posts (title, content, image, date) VALUES ($1, $2, $3, $4) RETURNING id",
		p.Title, p.Content, nullString(p.Image), p.Date.Format(dateLayout),
	).Scan(&id)
	if err != nil {
		return domain.Post{}, errors.Wrap(err, "inserting post")
	}
	p.ID = strconv.FormatInt(id, 10)
	return p, nil
}

// Update reads the current row and writes the new one in a single
// transaction so a missing image keeps the stored one.
func (s *Store) Update(ctx context.Context, id string, in domain.PostInput) (p domain.Post, err error) {
	n, err := parseID(id)
	if err != nil {
		return domain.Post{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Post{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			// The returned error already explains the failure.
			_ = tx.Rollback()
		}
	}()

	current, err := getPost(ctx, tx, n)
	if err != nil {
		return domain.Post{}, err
	}
	p = domain.ApplyUpdate(current, in, s.now().UTC().Truncate(time.Microsecond))

	_, err = tx.ExecContext(ctx,
		"UPDATE posts SET title = $1, content = $2, image = $3, date = $4 WHERE id = $5",
		p.Title, p.Content, nullString(p.Image), p.Date.Format(dateLayout), n,
	)
	if err != nil {
		return domain.Post{}, errors.Wrapf(err, "updating post %s", id)
	}
	if err = tx.Commit(); err != nil {
		return domain.Post{}, errors.Wrap(err, "committing transaction")
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", n)
	if err != nil {
		return errors.Wrapf(err, "deleting post %s", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "deleting post %s", id)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getPost(ctx context.Context, q queryer, id int64) (domain.Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx, selectPost+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Post{}, domain.ErrNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (domain.Post, error) {
	var (
		p     domain.Post
		id    int64
		image sql.NullString
		date  string
	)
	if err := row.Scan(&id, &p.Title, &p.Content, &image, &date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, err
		}
		return domain.Post{}, errors.Wrap(err, "scanning post")
	}

	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return domain.Post{}, errors.Wrapf(err, "parsing date of post %d", id)
	}
	p.ID = strconv.FormatInt(id, 10)
	p.Image = image.String
	p.Date = t.UTC()
	return p, nil
}

// parseID maps ids that can never exist in the table to ErrNotFound.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 1 {
		return 0, domain.ErrNotFound
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
