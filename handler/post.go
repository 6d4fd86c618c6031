package handler

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"postboard/domain"
	"postboard/upload"
)

var (
	sanitizerStrict = bluemonday.StrictPolicy()
	sanitizerUGC    = bluemonday.UGCPolicy()
)

// PostDTO is a post prepared for display. Title and Content are already
// sanitized HTML.
type PostDTO struct {
	ID      string
	Title   template.HTML
	Content template.HTML
	Image   string
	Date    string
}

// EditPostDTO carries the raw fields shown in the edit form.
type EditPostDTO struct {
	ID      string
	Title   string
	Content string
	Image   string
}

func newPostDTO(p domain.Post) PostDTO {
	dto := PostDTO{
		ID:      p.ID,
		Title:   template.HTML(sanitizerStrict.Sanitize(p.Title)),
		Content: safeMd(p.Content),
		Image:   p.Image,
	}
	if !p.Date.IsZero() {
		dto.Date = p.Date.Format(time.DateOnly)
	}
	return dto
}

func (h *Handler) GetPosts(c echo.Context) error {
	return h.renderIndex(c)
}

func (h *Handler) renderIndex(c echo.Context) error {
	posts, err := h.Store.List(c.Request().Context())
	if err != nil {
		return h.storeError(c, "list", err)
	}

	dtos := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		dtos = append(dtos, newPostDTO(p))
	}

	return c.Render(http.StatusOK, "index.html", struct {
		Posts []PostDTO
	}{
		Posts: dtos,
	})
}

func (h *Handler) GetNewPostForm(c echo.Context) error {
	return c.Render(http.StatusOK, "post.html", nil)
}

// NewPost creates a post. A submission without title or content renders the
// listing again without storing anything.
func (h *Handler) NewPost(c echo.Context) error {
	in := domain.PostInput{
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
	}
	if err := in.Validate(); err != nil {
		return h.renderIndex(c)
	}

	image, err := h.acceptImage(c)
	if err != nil {
		return err
	}
	in.Image = image

	_, err = h.Store.Create(c.Request().Context(), in)
	if err != nil {
		h.discardImage(c, image)
	}
	if errors.Is(err, domain.ErrValidation) {
		return h.renderIndex(c)
	}
	if err != nil {
		return h.storeError(c, "create", err)
	}

	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) GetByID(c echo.Context) error {
	p, err := h.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.storeError(c, "get", err)
	}

	return c.Render(http.StatusOK, "read.html", newPostDTO(p))
}

func (h *Handler) GetEditPostForm(c echo.Context) error {
	p, err := h.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.storeError(c, "get", err)
	}

	return c.Render(http.StatusOK, "edit.html", EditPostDTO{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		Image:   p.Image,
	})
}

// EditPost updates a post. The upload is checked before the store is
// consulted, so a rejected file answers 400 even for an unknown id.
func (h *Handler) EditPost(c echo.Context) error {
	in := domain.PostInput{
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
	}
	image, err := h.acceptImage(c)
	if err != nil {
		return err
	}
	in.Image = image

	_, err = h.Store.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		h.discardImage(c, image)
		return h.storeError(c, "update", err)
	}

	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) GetDeletePost(c echo.Context) error {
	if !h.ConfirmDelete {
		return h.DeletePost(c)
	}

	p, err := h.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.storeError(c, "get", err)
	}

	return c.Render(http.StatusOK, "delete.html", newPostDTO(p))
}

func (h *Handler) DeletePost(c echo.Context) error {
	if err := h.Store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.storeError(c, "delete", err)
	}

	return c.Redirect(http.StatusFound, "/")
}

// acceptImage stores the optional post-image file of the request.
func (h *Handler) acceptImage(c echo.Context) (domain.Image, error) {
	fh, err := c.FormFile("post-image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return domain.NoImage(), nil
	}
	if err != nil {
		return domain.NoImage(), echo.ErrBadRequest
	}

	image, err := h.Uploads.Accept(c.Request().Context(), fh)
	if errors.Is(err, upload.ErrRejected) {
		h.logger().Info("upload rejected", "path", c.Request().URL.Path, "error", err)
		return domain.NoImage(), echo.ErrBadRequest
	}
	if err != nil {
		h.logger().Error("upload failure", "path", c.Request().URL.Path, "error", err)
		return domain.NoImage(), echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	return image, nil
}

// discardImage drops an upload whose post was never written.
func (h *Handler) discardImage(c echo.Context, image domain.Image) {
	if err := h.Uploads.Discard(c.Request().Context(), image); err != nil {
		h.logger().Error("upload cleanup failure", "path", c.Request().URL.Path, "error", err)
	}
}

func mdToHTML(md string) []byte {
	// create markdown parser with extensions
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	// create HTML renderer with extensions
	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return markdown.Render(doc, renderer)
}

func safeMd(content string) template.HTML {
	return template.HTML(sanitizerUGC.SanitizeBytes(mdToHTML(content)))
}
