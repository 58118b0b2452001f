package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/portfolio/internal/loader"
	"github.com/jonathan/portfolio/internal/rendering"
)

// ErrNotLoaded is returned when the profile document is requested before the
// current view has loaded it.
var ErrNotLoaded = errors.New("profile document not loaded")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		loadErr     *loader.LoadError
		renderErr   *rendering.RenderError
		templateErr *rendering.TemplateError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotLoaded), errors.As(err, &loadErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.As(err, &renderErr), errors.As(err, &templateErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
