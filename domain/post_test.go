package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      PostInput
		missing []string
	}{
		{"valid", PostInput{Title: "t", Content: "c"}, nil},
		{"valid with image", PostInput{Title: "t", Content: "c", Image: SomeImage("/uploads/a.png")}, nil},
		{"no title", PostInput{Content: "c"}, []string{"title"}},
		{"no content", PostInput{Title: "t"}, []string{"content"}},
		{"empty", PostInput{}, []string{"title", "content"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.missing == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.missing, ve.Fields)
		})
	}
}

func TestImage(t *testing.T) {
	path, ok := NoImage().Get()
	assert.False(t, ok)
	assert.Empty(t, path)

	var zero Image
	_, ok = zero.Get()
	assert.False(t, ok)

	path, ok = SomeImage("/uploads/x.jpg").Get()
	assert.True(t, ok)
	assert.Equal(t, "/uploads/x.jpg", path)
}

func TestApplyUpdate(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	edited := created.Add(time.Hour)
	p := Post{ID: "7", Title: "old", Content: "old", Image: "/uploads/old.png", Date: created}

	kept := ApplyUpdate(p, PostInput{Title: "new", Content: "body"}, edited)
	assert.Equal(t, Post{ID: "7", Title: "new", Content: "body", Image: "/uploads/old.png", Date: edited}, kept)

	replaced := ApplyUpdate(p, PostInput{Title: "new", Content: "body", Image: SomeImage("/uploads/new.png")}, edited)
	assert.Equal(t, "/uploads/new.png", replaced.Image)
	assert.Equal(t, "7", replaced.ID)
}

func TestParseOrdering(t *testing.T) {
	for in, want := range map[string]Ordering{"": OrderDefault, "insertion": OrderInsertion, "newest": OrderNewestFirst} {
		got, err := ParseOrdering(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseOrdering("random")
	assert.Error(t, err)
}
