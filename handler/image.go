package handler

import (
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
)

// GetImage serves an upload kept by the memory upload storage.
func (h *Handler) GetImage(c echo.Context) error {
	data, ok := h.Images.Get(c.Param("name"))
	if !ok {
		return echo.ErrNotFound
	}

	return c.Blob(http.StatusOK, mimetype.Detect(data).String(), data)
}
