// Package loader provides the data sources the portfolio view loads its profile document from.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/portfolio/internal/fetch"
	"github.com/jonathan/portfolio/internal/schemas"
	"github.com/jonathan/portfolio/internal/types"
)

// DefaultLocation is the well-known path of the profile document.
const DefaultLocation = "data.json"

// Source retrieves the profile document. Implementations return a *LoadError on failure.
type Source interface {
	FetchProfile(ctx context.Context) (*types.ProfileDocument, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*types.ProfileDocument, error)

// FetchProfile calls f(ctx).
func (f SourceFunc) FetchProfile(ctx context.Context) (*types.ProfileDocument, error) {
	return f(ctx)
}

// New returns an HTTPSource for http(s) locations and a FileSource otherwise.
func New(location string, opts *fetch.Options) Source {
	if location == "" {
		location = DefaultLocation
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location, Options: opts}
	}
	return &FileSource{Path: location}
}

// HTTPSource loads the profile document with a plain GET.
type HTTPSource struct {
	URL     string
	Options *fetch.Options
}

// FetchProfile retrieves and decodes the document at s.URL.
func (s *HTTPSource) FetchProfile(ctx context.Context) (*types.ProfileDocument, error) {
	result, err := fetch.URL(ctx, s.URL, s.Options)
	if err != nil {
		kind := KindFetch
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			kind = KindStatus
		}
		return nil, &LoadError{
			Location: s.URL,
			Kind:     kind,
			Message:  "failed to retrieve profile document",
			Cause:    err,
		}
	}
	return Decode(s.URL, result.Body)
}

// FileSource loads the profile document from the local filesystem.
type FileSource struct {
	Path string
}

// FetchProfile reads and decodes the file at s.Path.
func (s *FileSource) FetchProfile(ctx context.Context) (*types.ProfileDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{
			Location: s.Path,
			Kind:     KindFetch,
			Message:  "load cancelled",
			Cause:    err,
		}
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &LoadError{
			Location: s.Path,
			Kind:     KindFetch,
			Message:  "failed to read profile document",
			Cause:    err,
		}
	}
	return Decode(s.Path, data)
}

// Decode turns raw bytes into a validated ProfileDocument.
// The document is accepted whole or rejected whole: the schema check runs first so
// missing keys are reported by JSON path, then struct validation checks values.
func Decode(location string, data []byte) (*types.ProfileDocument, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{
			Location: location,
			Kind:     KindDecode,
			Message:  "profile document is not valid JSON",
			Cause:    err,
		}
	}

	if err := schemas.ValidateProfile(data); err != nil {
		return nil, &LoadError{
			Location: location,
			Kind:     KindInvalid,
			Message:  "profile document does not match schema",
			Cause:    err,
		}
	}

	var doc types.ProfileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{
			Location: location,
			Kind:     KindDecode,
			Message:  "failed to decode profile document",
			Cause:    err,
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, &LoadError{
			Location: location,
			Kind:     KindInvalid,
			Message:  "profile document failed validation",
			Cause:    fmt.Errorf("struct validation: %w", err),
		}
	}

	return &doc, nil
}
