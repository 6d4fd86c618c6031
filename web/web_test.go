package web

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRegistry_Render(t *testing.T) {
	r, err := NewTemplateRegistry("My Blog")
	require.NoError(t, err)

	post := map[string]interface{}{"ID": "3", "Title": "Hello", "Content": "body", "Image": "/uploads/a.png", "Date": "2024-01-02"}
	data := map[string]interface{}{
		"index.html":  map[string]interface{}{"Posts": []interface{}{post}},
		"post.html":   nil,
		"read.html":   post,
		"edit.html":   post,
		"delete.html": post,
	}

	for _, name := range Views {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.Render(&buf, name, data[name], nil))
			assert.Contains(t, buf.String(), "<title>My Blog</title>")
			if name != "post.html" {
				assert.Contains(t, buf.String(), "Hello")
			}
		})
	}
}

func TestTemplateRegistry_UnknownTemplate(t *testing.T) {
	r, err := NewTemplateRegistry("Blog")
	require.NoError(t, err)

	err = r.Render(io.Discard, "missing.html", nil, nil)
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	data, err := fs.ReadFile(Static(), "style.css")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestHTTPErrorHandler(t *testing.T) {
	var logs bytes.Buffer
	handler := HTTPErrorHandler(slog.New(slog.NewTextHandler(&logs, nil)))
	e := echo.New()

	tests := []struct {
		name   string
		method string
		err    error
		code   int
		body   string
		logged bool
	}{
		{"not found", http.MethodGet, echo.NewHTTPError(http.StatusNotFound, "Post not found"), http.StatusNotFound, "Post not found", false},
		{"bad request", http.MethodPost, echo.ErrBadRequest, http.StatusBadRequest, "Bad Request", true},
		{"plain error", http.MethodGet, errors.New("boom"), http.StatusInternalServerError, "Internal Server Error", true},
		{"head", http.MethodHead, echo.NewHTTPError(http.StatusNotFound, "Post not found"), http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(tt.method, "/read/1", nil), rec)

			handler(tt.err, c)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
			assert.Equal(t, tt.logged, logs.Len() > 0)
		})
	}
}
