package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"postboard/domain"
	"postboard/upload"
)

type Handler struct {
	Store   domain.Store
	Uploads *upload.Uploader
	// Images serves uploads kept in memory. Nil when uploads go to disk.
	Images *upload.MemoryStorage
	// ConfirmDelete makes GET /delete/:id render a confirmation page
	// instead of deleting right away.
	ConfirmDelete bool
	Logger        *slog.Logger
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.GetPosts)
	e.GET("/post", h.GetNewPostForm)
	e.POST("/submit", h.NewPost)
	e.POST("/post", h.NewPost)
	e.GET("/read/:id", h.GetByID)
	e.GET("/edit/:id", h.GetEditPostForm)
	e.POST("/edit/:id", h.EditPost)
	e.GET("/delete/:id", h.GetDeletePost)
	e.POST("/delete/:id", h.DeletePost)
	if h.Images != nil {
		e.GET("/uploads/:name", h.GetImage)
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

var errPostNotFound = echo.NewHTTPError(http.StatusNotFound, "Post not found")

// storeError maps a store error to the response the client sees.
func (h *Handler) storeError(c echo.Context, op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return errPostNotFound
	}
	h.logger().Error("store failure",
		"op", op,
		"path", c.Request().URL.Path,
		"error", err,
	)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
