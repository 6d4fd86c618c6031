package sqldb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/domain"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db, opts...)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestOpen_MigrateTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, DriverSQLite))
	require.NoError(t, db.Close())

	db, err = Open(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "")
	assert.Error(t, err)
}

func TestStore_CreateThenGet(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 2, 3, 4, 5, 6, 789000, time.UTC)}
	s := newTestStore(t, WithClock(clock.now))

	p, err := s.Create(ctx, domain.PostInput{Title: "hello", Content: "world", Image: domain.SomeImage("/uploads/a.png")})
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p2, err := s.Create(ctx, domain.PostInput{Title: "second", Content: "post"})
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, p2.ID)

	got, err = s.Get(ctx, p2.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
}

func TestStore_CreateInvalidDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Create(ctx, domain.PostInput{Title: "kept", Content: "c"})
	require.NoError(t, err)

	for _, in := range []domain.PostInput{{Content: "x"}, {Title: "x"}, {}} {
		_, err := s.Create(ctx, in)
		require.ErrorIs(t, err, domain.ErrValidation)
	}

	posts, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestStore_UnknownID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []string{"1", "99", "0", "abc", ""} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "get %q", id)

		_, err = s.Update(ctx, id, domain.PostInput{Title: "t", Content: "c"})
		assert.ErrorIs(t, err, domain.ErrNotFound, "update %q", id)

		assert.ErrorIs(t, s.Delete(ctx, id), domain.ErrNotFound, "delete %q", id)
	}
}

func TestStore_UpdateMissingRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for range 3 {
		_, err := s.Update(ctx, "42", domain.PostInput{Title: "t", Content: "c"})
		require.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Zero(t, s.db.Stats().InUse, "failed updates must release their transaction")

	p, err := s.Create(ctx, domain.PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestStore(t, WithClock(clock.now))

	p, err := s.Create(ctx, domain.PostInput{Title: "t", Content: "c", Image: domain.SomeImage("/uploads/a.png")})
	require.NoError(t, err)

	clock.advance(time.Hour)
	updated, err := s.Update(ctx, p.ID, domain.PostInput{Title: "t2", Content: "c2"})
	require.NoError(t, err)
	assert.Equal(t, domain.Post{ID: p.ID, Title: "t2", Content: "c2", Image: "/uploads/a.png", Date: clock.t}, updated)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	updated, err = s.Update(ctx, p.ID, domain.PostInput{Title: "t3", Content: "c3", Image: domain.SomeImage("/uploads/b.png")})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/b.png", updated.Image)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.Create(ctx, domain.PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, p.ID))

	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, p.ID), domain.ErrNotFound)

	// AUTOINCREMENT never hands out a deleted id again.
	p2, err := s.Create(ctx, domain.PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "2", p2.ID)
}

func TestStore_ListOrdering(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		order domain.Ordering
		want  []string
	}{
		{domain.OrderDefault, []string{"t3", "t2", "t1"}},
		{domain.OrderNewestFirst, []string{"t3", "t2", "t1"}},
		{domain.OrderInsertion, []string{"t1", "t2", "t3"}},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			clock := &fakeClock{t: start}
			s := newTestStore(t, WithOrdering(tt.order), WithClock(clock.now))

			for _, title := range []string{"t1", "t2", "t3"} {
				clock.advance(time.Second)
				_, err := s.Create(ctx, domain.PostInput{Title: title, Content: "c"})
				require.NoError(t, err)
			}

			posts, err := s.List(ctx)
			require.NoError(t, err)
			var got []string
			for _, p := range posts {
				got = append(got, p.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_ListEmpty(t *testing.T) {
	posts, err := newTestStore(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}
